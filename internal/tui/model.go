// Package tui is the interactive chat front end.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/corpusqa/corpusqa/models"
)

// ChatPort is the TUI-facing subset of the orchestrator.
type ChatPort interface {
	Chat(ctx context.Context, question, sessionID, identity, token string) models.ChatResult
	Context(sessionID string, n int) string
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	bot       ChatPort
	identity  string
	token     string
	sessionID string

	input      textinput.Model
	viewport   viewport.Model
	transcript []string
	status     string
	ready      bool
}

// New creates a chat model bound to an identity and token.
func New(bot ChatPort, identity, token string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, /new for a fresh session, /history to review"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		bot:       bot,
		identity:  identity,
		token:     token,
		sessionID: newSessionID(),
		input:     ti,
		viewport:  vp,
		status:    "Ready. Type your question.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := transcriptStyle.GetFrameSize()
		_, qh := inputStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - fh
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(strings.Join(m.transcript, "\n"))
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" {
			return m.submit()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}
	m.input.SetValue("")

	switch line {
	case "/new":
		m.sessionID = newSessionID()
		m.transcript = nil
		m.status = "New session " + m.sessionID
	case "/history":
		history := m.bot.Context(m.sessionID, 10)
		if history == "" {
			history = "No history yet."
		}
		m.transcript = append(m.transcript, dimStyle.Render(history))
		m.status = "Showing history for " + m.sessionID
	case "/quit":
		return m, tea.Quit
	default:
		m.transcript = append(m.transcript, youStyle.Render(m.identity+": ")+line)
		result := m.bot.Chat(context.Background(), line, m.sessionID, m.identity, m.token)
		if result.Status == models.StatusError {
			m.transcript = append(m.transcript, errStyle.Render(fmt.Sprintf("error %d: %s", result.Code, result.Error)))
			m.status = "Request failed."
		} else {
			m.transcript = append(m.transcript, botStyle.Render("bot: ")+result.Answer)
			m.transcript = append(m.transcript, dimStyle.Render(renderMeta(result)))
			m.status = fmt.Sprintf("Requests this hour: %d", result.RequestsUsed)
		}
	}
	m.viewport.SetContent(strings.Join(m.transcript, "\n"))
	m.viewport.GotoBottom()
	return m, nil
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("corpusqa: grounded document chat")
	session := dimStyle.Render("session " + m.sessionID)
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "  " + session + "\n" + transcript + "\n" + input + "\n" + status
}

func renderMeta(r models.ChatResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "confidence: %s (%.0f%%)", confidenceLabel(r.Confidence), r.Confidence*100)
	if len(r.Sources) > 0 {
		b.WriteString("  sources: ")
		refs := make([]string, len(r.Sources))
		for i, src := range r.Sources {
			ref := src.Source
			if src.Locator != "" {
				ref += ", " + src.Locator
			}
			refs[i] = ref
		}
		b.WriteString(strings.Join(refs, "; "))
	}
	return b.String()
}

func confidenceLabel(c float64) string {
	switch {
	case c >= 0.7:
		return "high"
	case c >= 0.4:
		return "medium"
	}
	return "low"
}

func newSessionID() string { return uuid.NewString()[:8] }

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	youStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
