package tui

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"auenbot/internal/bot"
)

// ChatPort is the TUI-facing subset of the bot.
type ChatPort interface {
	Converse(ctx context.Context, s *bot.Session, userText string) (string, error)
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	chat     ChatPort
	session  *bot.Session
	input    textinput.Model
	viewport viewport.Model
	status   string
	ready    bool
}

// New creates a new TUI model with a fresh session.
func New(chat ChatPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Schreib deine Frage hier …"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		chat:     chat,
		session:  bot.NewSession(),
		input:    ti,
		viewport: vp,
		status:   "Bereit. Frag mich zu Tieren & Pflanzen.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around transcript and input boxes
		_, th := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		totalHeaderLines := 1 // header
		totalFooterLines := 1 // status
		reserved := totalHeaderLines + totalFooterLines + ih + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				if _, err := m.chat.Converse(context.Background(), m.session, q); err != nil {
					m.status = "Fehler: " + err.Error()
				} else {
					m.status = "Bereit."
				}
				m.input.SetValue("")
				m.viewport.SetContent(m.renderTranscript())
				m.viewport.GotoBottom()
				return m, nil
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and the conversation transcript.
func (m Model) View() string {
	if !m.ready {
		return "Laden..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("🌿 AuenBot")
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	var b strings.Builder
	for i, msg := range m.session.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if msg.Role == bot.RoleUser {
			b.WriteString(userLabelStyle.Render("Du:"))
		} else {
			b.WriteString(botLabelStyle.Render("KarlA:"))
		}
		b.WriteString(" ")
		b.WriteString(renderEmphasis(msg.Content))
	}
	return b.String()
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userLabelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	botLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	emphasisStyle      = lipgloss.NewStyle().Bold(true)
	emphasisRe         = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// renderEmphasis renders **bold** reply spans with terminal emphasis.
func renderEmphasis(s string) string {
	return emphasisRe.ReplaceAllStringFunc(s, func(span string) string {
		return emphasisStyle.Render(strings.Trim(span, "*"))
	})
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
