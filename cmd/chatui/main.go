// Command chatui is a terminal chat client with persistent sessions.
package main

import "github.com/diogo/chatui/internal/commands"

func main() {
	commands.Execute()
}
