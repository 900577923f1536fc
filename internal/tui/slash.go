package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/chatui/internal/models"
	"github.com/diogo/chatui/internal/render"
)

const helpText = `Commands:
  /new                 Start a new chat
  /sessions            Browse chats
  /switch <ref>        Switch chat (@last, @first, index, id or title)
  /rename <title>      Rename the current chat
  /delete [ref]        Delete the current (or given) chat
  /model [id]          Show or set the model of the current chat
  /models              List available models
  /settings            Show generation settings
  /temp <0-2>          Set temperature
  /maxtokens <n>       Set max tokens (100-8000)
  /system [prompt]     Show or set the system prompt
  /preset [name]       List presets or apply one
  /theme [name]        List palettes or switch
  /help                Show this help
  /quit                Exit`

func isCommand(input string) bool {
	switch input {
	case "exit", "quit":
		return true
	}
	return strings.HasPrefix(input, "/")
}

// runCommand executes a slash command. Results land in m.notice, failures
// in m.err; neither is persisted.
func (m Model) runCommand(input string) (tea.Model, tea.Cmd) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	name = strings.ToLower(name)

	m.err = nil
	m.notice = ""

	switch name {
	case "/quit", "/exit", "exit", "quit":
		return m, tea.Quit

	case "/new":
		m.store.CreateSession()
		m.notice = "New chat started"

	case "/sessions", "/chats":
		m.openPicker()
		return m, nil

	case "/switch":
		if arg == "" {
			m.err = fmt.Errorf("usage: /switch <ref>")
			break
		}
		id, err := m.resolver.Resolve(arg)
		if err != nil {
			m.err = err
			break
		}
		m.store.SetCurrentSession(id)
		if sess, ok := m.store.Session(id); ok {
			m.notice = "Switched to " + sess.Title
		}

	case "/rename":
		if arg == "" {
			m.err = fmt.Errorf("usage: /rename <title>")
			break
		}
		id := m.store.CurrentSessionID()
		if _, ok := m.store.Session(id); !ok {
			m.err = fmt.Errorf("no chat selected")
			break
		}
		m.store.RenameSession(id, arg)
		m.notice = "Renamed to " + arg

	case "/delete":
		id := m.store.CurrentSessionID()
		if arg != "" {
			resolved, err := m.resolver.Resolve(arg)
			if err != nil {
				m.err = err
				break
			}
			id = resolved
		}
		sess, ok := m.store.Session(id)
		if !ok {
			m.err = fmt.Errorf("no chat selected")
			break
		}
		m.store.DeleteSession(id)
		m.notice = "Deleted " + sess.Title

	case "/model":
		if arg == "" {
			m.notice = "Model: " + m.currentModelName() + "\n" + modelList()
			break
		}
		model, ok := models.ModelByID(arg)
		if !ok {
			m.err = fmt.Errorf("unknown model %q (see /models)", arg)
			break
		}
		if _, ok := m.store.CurrentSession(); !ok {
			m.err = fmt.Errorf("no chat selected")
			break
		}
		m.store.SetModelForCurrentSession(model.ID)
		m.notice = "Model set to " + model.Name

	case "/models":
		m.notice = modelList()

	case "/settings":
		s := m.store.Settings()
		m.notice = fmt.Sprintf("Temperature: %.1f\nMax tokens:  %d\nSystem:      %s", s.Temperature, s.MaxTokens, s.SystemPrompt)

	case "/temp", "/temperature":
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			m.err = fmt.Errorf("usage: /temp <0-2>")
			break
		}
		m.err = m.applySettings(models.SettingsPatch{Temperature: &v})
		if m.err == nil {
			m.notice = fmt.Sprintf("Temperature set to %.1f", v)
		}

	case "/maxtokens":
		n, err := strconv.Atoi(arg)
		if err != nil {
			m.err = fmt.Errorf("usage: /maxtokens <100-8000>")
			break
		}
		m.err = m.applySettings(models.SettingsPatch{MaxTokens: &n})
		if m.err == nil {
			m.notice = fmt.Sprintf("Max tokens set to %d", n)
		}

	case "/system":
		if arg == "" {
			m.notice = "System prompt: " + m.store.Settings().SystemPrompt
			break
		}
		m.store.UpdateSettings(models.SettingsPatch{SystemPrompt: &arg})
		m.notice = "System prompt updated"

	case "/preset":
		m.runPreset(arg)

	case "/theme":
		if arg == "" {
			m.notice = "Palettes: " + strings.Join(render.PaletteNames(), ", ")
			break
		}
		if !ApplyPalette(arg) {
			m.err = fmt.Errorf("unknown palette %q", arg)
			break
		}
		m.notice = "Palette set to " + arg

	case "/help":
		m.notice = helpText

	default:
		m.err = fmt.Errorf("unknown command %s (type /help)", name)
	}

	m.refresh()
	return m, nil
}

func (m *Model) applySettings(patch models.SettingsPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	m.store.UpdateSettings(patch)
	return nil
}

func (m *Model) runPreset(name string) {
	if m.presets == nil {
		m.err = fmt.Errorf("presets are not available")
		return
	}
	presets, err := m.presets()
	if err != nil {
		m.err = err
		return
	}

	if name == "" {
		var lines []string
		for _, p := range presets {
			lines = append(lines, fmt.Sprintf("  %-10s %s", p.Name, p.Description))
		}
		m.notice = "Presets:\n" + strings.Join(lines, "\n")
		return
	}

	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			m.err = m.applySettings(p.Patch())
			if m.err == nil {
				m.notice = "Applied preset " + p.Name
			}
			return
		}
	}
	m.err = fmt.Errorf("preset %q not found", name)
}

func modelList() string {
	var lines []string
	for _, model := range models.AllModels() {
		lines = append(lines, fmt.Sprintf("  %-18s %s (%s)", model.ID, model.Name, model.Provider))
	}
	return "Models:\n" + strings.Join(lines, "\n")
}
