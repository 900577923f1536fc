package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/diogo/chatui/internal/chat"
	"github.com/diogo/chatui/internal/config"
	"github.com/diogo/chatui/internal/models"
	"github.com/diogo/chatui/internal/render"
	"github.com/diogo/chatui/internal/store"
)

// replyMsg carries the outcome of one completion request back to Update
type replyMsg struct {
	seq   int
	req   chat.Request
	reply string
	err   error
}

// PresetSource loads the available settings presets
type PresetSource func() ([]config.Preset, error)

// Model represents the TUI state
type Model struct {
	store    store.ChatStore
	chat     *chat.Service
	resolver *store.Resolver
	presets  PresetSource
	render   render.Options
	log      zerolog.Logger

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// in-flight request; seq tells a stale reply from the current one
	loading bool
	pending *chat.Request
	seq     int
	cancel  context.CancelFunc

	ready  bool
	err    error  // transient, cleared by the next action
	notice string // output of the last slash command
	picker sessionPicker

	width  int
	height int
}

// Option configures a Model
type Option func(*Model)

// WithRenderOptions sets the markdown options for assistant messages
func WithRenderOptions(opts render.Options) Option {
	return func(m *Model) { m.render = opts }
}

// WithPresets enables the /preset command
func WithPresets(src PresetSource) Option {
	return func(m *Model) { m.presets = src }
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(m *Model) { m.log = log }
}

// New creates the chat TUI model
func New(st store.ChatStore, svc *chat.Service, opts ...Option) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message here... (/help for commands)"
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	m := Model{
		store:    st,
		chat:     svc,
		resolver: store.NewResolver(st),
		render:   render.DefaultOptions(),
		log:      zerolog.Nop(),
		textarea: ta,
		spinner:  s,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.picker.open {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m.updatePicker(msg)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		inputHeight := 4
		statusHeight := 1
		footerHeight := 2 // error or notice line

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - footerHeight - 2
		if vpHeight < 5 {
			vpHeight = 5
		}
		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.abort()
			return m, tea.Quit

		case "esc":
			if m.loading {
				m.abort()
				m.notice = "Request cancelled"
				return m, nil
			}
			return m, tea.Quit

		case "enter":
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			if isCommand(input) {
				m.textarea.Reset()
				return m.runCommand(input)
			}
			return m.send(m.textarea.Value())
		}

	case replyMsg:
		if m.pending == nil || msg.seq != m.seq {
			// reply to a request that was cancelled
			return m, nil
		}
		m.loading = false
		m.pending = nil
		m.cancel = nil
		if _, err := m.chat.Finish(msg.req, msg.reply, msg.err); err != nil {
			m.err = err
		}
		m.refresh()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Only KeyMsg reaches the textarea, and not while a reply is pending
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// send starts a request for content. The completion runs in a tea.Cmd so the
// UI stays responsive; Finish happens back in Update.
func (m Model) send(content string) (tea.Model, tea.Cmd) {
	req, err := m.chat.Begin(content)
	if err != nil {
		m.err = err
		return m, nil
	}

	m.textarea.Reset()
	m.err = nil
	m.notice = ""
	m.loading = true
	m.seq++
	m.pending = &req

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.refresh()

	svc, seq := m.chat, m.seq
	request := func() tea.Msg {
		reply, err := svc.Request(ctx, req)
		return replyMsg{seq: seq, req: req, reply: reply, err: err}
	}
	return m, tea.Batch(request, m.spinner.Tick)
}

// abort cancels the in-flight request and releases the processing flag
func (m *Model) abort() {
	if !m.loading || m.pending == nil {
		return
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.chat.Finish(*m.pending, "", context.Canceled)
	m.loading = false
	m.pending = nil
	m.cancel = nil
	m.refresh()
}

// refresh rebuilds the viewport from the current session
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	sess, ok := m.store.CurrentSession()
	if !ok {
		m.viewport.SetContent("")
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	for i, msg := range sess.Messages {
		if i > 0 {
			content.WriteString("\n")
		}

		switch msg.Role {
		case models.RoleUser:
			content.WriteString(userLabelStyle.Render("● You"))
			content.WriteString("\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(msg.Content))
		case models.RoleSystem:
			content.WriteString(systemLabelStyle.Render("System"))
			content.WriteString("\n")
			content.WriteString(systemBubbleStyle.Width(bubbleWidth).Render(msg.Content))
		default:
			content.WriteString(assistantLabelStyle.Render("✦ " + modelName(sess.ModelID)))
			content.WriteString("\n")
			rendered := render.MarkdownOrPlain(msg.Content, m.render.WithWidth(bubbleWidth-4))
			content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}
	if m.picker.open {
		return m.renderPicker()
	}

	var sections []string
	contentWidth := m.width - 4

	sections = append(sections, headerStyle.Width(contentWidth).Render(m.renderHeader()))

	var messagesContent string
	if sess, ok := m.store.CurrentSession(); !ok || len(sess.Messages) == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	var inputContent string
	if m.loading {
		inputContent = fmt.Sprintf("%s %s", m.spinner.View(),
			loadingStyle.Render(m.currentModelName()+" is thinking... (esc to cancel)"))
	} else {
		inputContent = lipgloss.JoinVertical(lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	switch {
	case m.err != nil:
		sections = append(sections, FormatError(m.err))
	case m.notice != "":
		sections = append(sections, noticeStyle.Render(m.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := models.DefaultTitle
	if sess, ok := m.store.CurrentSession(); ok {
		title = sess.Title
	}
	settings := m.store.Settings()

	return lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("✦ "+title),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.currentModelName()),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(fmt.Sprintf("temp %.1f, %d tokens", settings.Temperature, settings.MaxTokens)),
	)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		welcomeIconStyle.Width(width).Render("✦"),
		"",
		welcomeTitleStyle.Width(width).Render("Welcome to Chat Nexus"),
		"",
		welcomeStyle.Width(width).Render("Choose a model with /model and start chatting."),
		"",
	)

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Esc", "Quit"},
		{"/sessions", "Chats"},
		{"/help", "Commands"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

func (m Model) currentModelName() string {
	if sess, ok := m.store.CurrentSession(); ok {
		return modelName(sess.ModelID)
	}
	return models.DefaultModel().Name
}

func modelName(id string) string {
	if model, ok := models.ModelByID(id); ok {
		return model.Name
	}
	return "Unknown"
}

// Run starts the chat TUI
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.abort()
	}
	return err
}
