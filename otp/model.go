package otp

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SubmitMsg is emitted when the user confirms the entered code.
type SubmitMsg struct {
	Code string
}

// ResendMsg is emitted when the user asks for a new code.
type ResendMsg struct{}

// ResultMsg reports the outcome of a submit or resend back to the model.
// Done ends the program; otherwise the cells are cleared for another try
// when Failed is set.
type ResultMsg struct {
	Message string
	Failed  bool
	Done    bool
}

// Styles controls how [Model] renders.
type Styles struct {
	Title   lipgloss.Style
	Prompt  lipgloss.Style
	Cell    lipgloss.Style
	Focused lipgloss.Style
	Info    lipgloss.Style
	Error   lipgloss.Style
	Pending lipgloss.Style
}

// DefaultStyles uses the indigo accents of the registration page.
func DefaultStyles() Styles {
	cell := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("250")).
		Width(3).
		Align(lipgloss.Center).
		Bold(true)
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).MarginBottom(1),
		Prompt:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Cell:    cell,
		Focused: cell.BorderForeground(lipgloss.Color("63")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("35")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		Pending: lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
	}
}

// Model is a bubbletea model around [Input].
type Model struct {
	Title  string
	Prompt string

	input  Input
	keys   KeyMap
	help   help.Model
	styles Styles

	message   string
	failed    bool
	pending   bool
	cancelled bool
	done      bool
}

// New returns a model with the default key map and styles.
func New(title, prompt string) Model {
	return Model{
		Title:  title,
		Prompt: prompt,
		keys:   DefaultKeyMap,
		help:   help.New(),
		styles: DefaultStyles(),
	}
}

// WithKeyMap replaces the key bindings.
func (m Model) WithKeyMap(keys KeyMap) Model {
	m.keys = keys
	return m
}

// WithStyles replaces the styles.
func (m Model) WithStyles(styles Styles) Model {
	m.styles = styles
	return m
}

// SetPending marks a submit as in flight. While pending, Enter and resend
// are ignored.
func (m *Model) SetPending(pending bool) {
	m.pending = pending
}

func (m Model) Pending() bool   { return m.pending }
func (m Model) Cancelled() bool { return m.cancelled }
func (m Model) Done() bool      { return m.done }
func (m Model) Input() Input    { return m.input }

// SetMessage shows text under the cells.
func (m *Model) SetMessage(text string, failed bool) {
	m.message = text
	m.failed = failed
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ResultMsg:
		m.pending = false
		m.SetMessage(msg.Message, msg.Failed)
		if msg.Done {
			m.done = true
			return m, tea.Quit
		}
		if msg.Failed {
			m.input.Reset()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Paste {
		m.input.Paste(string(msg.Runes))
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.cancelled = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		if m.pending {
			return m, nil
		}
		m.pending = true
		code := m.input.Value()
		return m, func() tea.Msg { return SubmitMsg{Code: code} }

	case key.Matches(msg, m.keys.Resend):
		if m.pending {
			return m, nil
		}
		m.pending = true
		return m, func() tea.Msg { return ResendMsg{} }

	case key.Matches(msg, m.keys.Backspace):
		m.input.Backspace()

	case key.Matches(msg, m.keys.Left):
		m.input.MoveFocus(-1)

	case key.Matches(msg, m.keys.Right):
		m.input.MoveFocus(1)

	case key.Matches(msg, m.keys.Digit), msg.Type == tea.KeyRunes:
		// Several runes in one message come from fast typing.
		for _, r := range msg.Runes {
			m.input.Type(r)
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	if m.Title != "" {
		b.WriteString(m.styles.Title.Render(m.Title))
		b.WriteString("\n")
	}
	if m.Prompt != "" {
		b.WriteString(m.styles.Prompt.Render(m.Prompt))
		b.WriteString("\n")
	}

	cells := m.input.Cells()
	boxes := make([]string, 0, Length)
	for i, c := range cells {
		style := m.styles.Cell
		if i == m.input.Focus() && !m.pending {
			style = m.styles.Focused
		}
		if c == "" {
			c = " "
		}
		boxes = append(boxes, style.Render(c))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n")

	switch {
	case m.pending:
		b.WriteString(m.styles.Pending.Render("…"))
		b.WriteString("\n")
	case m.message != "" && m.failed:
		b.WriteString(m.styles.Error.Render(m.message))
		b.WriteString("\n")
	case m.message != "":
		b.WriteString(m.styles.Info.Render(m.message))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}
