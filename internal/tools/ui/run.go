// Package ui renders a single long-running campusctl action in the terminal.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	spinnerRune = []string{"|", "/", "-", "\\"}
)

// ErrInterrupted is returned when the operator presses ctrl+c.
var ErrInterrupted = errors.New("interrupted")

type Action func(context.Context) ([]string, error)

type resultMsg struct {
	details []string
	err     error
}

type tickMsg time.Time

type model struct {
	title   string
	action  Action
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time
	frame   int

	details []string
	err     error
	done    bool
}

func newModel(title string, timeout time.Duration, action Action) model {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return model{title: title, action: action, ctx: ctx, cancel: cancel, started: time.Now()}
}

func tick() tea.Cmd {
	return tea.Tick(150*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	run := func() tea.Msg {
		details, err := m.action(m.ctx)
		return resultMsg{details: details, err: err}
	}
	return tea.Batch(run, tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancel()
			m.err = ErrInterrupted
			m.done = true
			return m, tea.Quit
		}
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tick()
	case resultMsg:
		m.cancel()
		m.details, m.err, m.done = msg.details, msg.err, true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	elapsed := mutedStyle.Render(time.Since(m.started).Round(100 * time.Millisecond).String())
	switch {
	case !m.done:
		fmt.Fprintf(&b, "%s working %s\n", spinnerRune[m.frame%len(spinnerRune)], elapsed)
		return b.String()
	case m.err != nil:
		fmt.Fprintf(&b, "%s %v %s\n", failStyle.Render("FAILED"), m.err, elapsed)
	default:
		fmt.Fprintf(&b, "%s %s\n", okStyle.Render("OK"), elapsed)
	}
	for _, d := range m.details {
		b.WriteString("  • " + d + "\n")
	}
	return b.String()
}

// Run executes action behind a spinner and returns its result once it
// finishes, the timeout fires, or the operator interrupts it.
func Run(title string, timeout time.Duration, action Action) ([]string, error) {
	m := newModel(title, timeout, action)
	defer m.cancel()
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", title, err)
	}
	res := final.(model)
	return res.details, res.err
}
