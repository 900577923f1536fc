package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatui/internal/export"
	"github.com/diogo/chatui/internal/models"
)

// sessionPicker is the /sessions overlay
type sessionPicker struct {
	open     bool
	cursor   int
	sessions []models.Session
}

func (m *Model) openPicker() {
	m.picker = sessionPicker{open: true, sessions: m.store.Sessions()}
	current := m.store.CurrentSessionID()
	for i, s := range m.picker.sessions {
		if s.ID == current {
			m.picker.cursor = i
			break
		}
	}
}

func (m *Model) closePicker() {
	m.picker = sessionPicker{}
	m.refresh()
}

func (m Model) selectedSession() (models.Session, bool) {
	p := m.picker
	if p.cursor < 0 || p.cursor >= len(p.sessions) {
		return models.Session{}, false
	}
	return p.sessions[p.cursor], true
}

func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	n := len(m.picker.sessions)

	switch key.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc", "q":
		m.closePicker()

	case "up", "k":
		if n > 0 {
			m.picker.cursor = (m.picker.cursor - 1 + n) % n
		}

	case "down", "j":
		if n > 0 {
			m.picker.cursor = (m.picker.cursor + 1) % n
		}

	case "home", "g":
		m.picker.cursor = 0

	case "end", "G":
		m.picker.cursor = max(n-1, 0)

	case "enter":
		if sess, ok := m.selectedSession(); ok {
			m.store.SetCurrentSession(sess.ID)
			m.notice = "Switched to " + sess.Title
		}
		m.closePicker()

	case "n":
		m.store.CreateSession()
		m.notice = "New chat started"
		m.closePicker()

	case "d", "delete":
		sess, ok := m.selectedSession()
		if !ok {
			break
		}
		m.store.DeleteSession(sess.ID)
		m.picker.sessions = m.store.Sessions()
		if len(m.picker.sessions) == 0 {
			m.notice = "All chats deleted"
			m.closePicker()
			break
		}
		m.picker.cursor = min(m.picker.cursor, len(m.picker.sessions)-1)
	}

	return m, nil
}

func (m Model) renderPicker() string {
	width := m.width - 4
	if width < 40 {
		width = 40
	}

	var items []string
	if len(m.picker.sessions) == 0 {
		items = append(items, hintStyle.Render("  No chats yet. Press n to start one."))
	}

	current := m.store.CurrentSessionID()
	titleWidth := width - 40
	if titleWidth < 10 {
		titleWidth = 10
	}

	for i, sess := range m.picker.sessions {
		marker := "  "
		if i == m.picker.cursor {
			marker = pickerSelectedStyle.Render("> ")
		}
		title := truncate(sess.Title, titleWidth)
		if sess.ID == current {
			title = pickerCurrentStyle.Render(title + " ●")
		}
		meta := pickerMetaStyle.Render(fmt.Sprintf("  %s · %d msgs · %s",
			modelName(sess.ModelID), len(sess.Messages),
			export.FormatRelativeTime(models.Time(sess.UpdatedAt))))

		items = append(items, marker+pickerItemStyle.Render(fmt.Sprintf("%d. %s", i+1, title))+meta)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		pickerHeaderStyle.Render("Chat History"),
		strings.Join(items, "\n"),
	)
	help := statusBarStyle.Render("↑/↓ move • enter open • n new • d delete • esc back")

	return lipgloss.JoinVertical(lipgloss.Left,
		pickerPanelStyle.Width(width).Render(body),
		help,
	)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
