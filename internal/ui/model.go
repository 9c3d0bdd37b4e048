package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mgpai22/dubmark/internal/controller"
)

const (
	defaultWidth  = 100
	defaultHeight = 24
	// title line plus the two status lines
	chromeHeight = 4
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#93C5FD"))
	currentStyle = lipgloss.NewStyle().Background(lipgloss.Color("#FFD166")).Foreground(lipgloss.Color("#000000"))
	lineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E7EB"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
)

// Model is the bubbletea front end: a scrolling list of subtitle lines with
// the current one highlighted and a status line underneath. Key presses are
// resolved through the controller keymap.
type Model struct {
	ctx    context.Context
	ctrl   *controller.Controller
	keymap controller.Keymap
	title  string

	viewport viewport.Model
	help     string
	showHelp bool
	status   string
	quitting bool
}

func NewModel(
	ctx context.Context,
	ctrl *controller.Controller,
	bindings []controller.Binding,
	title string,
) (Model, error) {
	help, err := renderHelp(bindings, defaultWidth-4)
	if err != nil {
		return Model{}, fmt.Errorf("failed to render help: %w", err)
	}

	m := Model{
		ctx:      ctx,
		ctrl:     ctrl,
		keymap:   controller.NewKeymap(bindings),
		title:    title,
		viewport: viewport.New(defaultWidth, defaultHeight-chromeHeight),
		help:     help,
		status:   "Ready",
	}
	m.refresh()
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-chromeHeight)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.showHelp && msg.Type == tea.KeyEsc {
			m.showHelp = false
			m.refresh()
			return m, nil
		}

		action, ok := m.keymap.Lookup(msg.String())
		if !ok {
			if m.showHelp {
				var cmd tea.Cmd
				m.viewport, cmd = m.viewport.Update(msg)
				return m, cmd
			}
			return m, nil
		}

		res := m.ctrl.Dispatch(m.ctx, action)
		if res.Status != "" {
			m.status = res.Status
		}
		if res.ToggleHelp {
			m.showHelp = !m.showHelp
		}
		if res.Quit {
			m.quitting = true
			return m, tea.Quit
		}
		m.refresh()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(statusStyle.Render("Status: "))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString(hintStyle.Render(" | Press Q to quit, ? for help"))
	return b.String()
}

// status text currently shown
func (m Model) Status() string {
	return m.status
}

// refresh re-renders the viewport content and scrolls the current line into view.
func (m *Model) refresh() {
	if m.showHelp {
		m.viewport.SetContent(m.help)
		m.viewport.GotoTop()
		return
	}

	sess := m.ctrl.Session()
	current := sess.Index()
	lines := sess.Lines()

	rows := make([]string, len(lines))
	for i, line := range lines {
		text := fmt.Sprintf("%4d  %s", line.Index+1, line.ID)
		if i == current {
			rows[i] = currentStyle.Render(text)
		} else {
			rows[i] = lineStyle.Render(text)
		}
	}
	m.viewport.SetContent(strings.Join(rows, "\n"))

	if current < m.viewport.YOffset {
		m.viewport.SetYOffset(current)
	} else if h := m.viewport.Height; h > 0 && current >= m.viewport.YOffset+h {
		m.viewport.SetYOffset(current - h + 1)
	}
}

// Run drives the model until the operator quits or ctx is cancelled.
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}
