// Package tui renders a pipeline run as an interactive terminal view:
// one bar per step, an overall bar and a scrolling log tail.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oshokin/mashup-tool/internal/progress"
)

// EventMsg delivers one pipeline progress event to the view.
type EventMsg progress.Event

// DoneMsg ends the view once the pipeline has returned.
type DoneMsg struct {
	// Err is the pipeline's terminal error, nil on success.
	Err error
}

type tickMsg time.Time

const (
	defaultWidth = 80
	minViewWidth = 40
	minBarWidth  = 10
	logHeight    = 8
	maxLogLines  = 200
)

// stepView tracks one pipeline stage's bar and counters.
type stepView struct {
	bar     progressbar.Model
	current int
	total   int
	message string
	seen    bool
}

func (v stepView) fraction() float64 {
	if v.total <= 0 {
		return 0
	}

	f := float64(v.current) / float64(v.total)
	if f > 1 {
		f = 1
	}

	return f
}

// Model is the bubbletea model for a pipeline run.
type Model struct {
	title      string
	cancel     context.CancelFunc
	steps      [progress.StepCount]stepView
	overall    progressbar.Model
	logs       viewport.Model
	lines      []string
	start      time.Time
	width      int
	active     progress.Step
	cancelling bool
	done       bool
	err        error
}

// NewModel builds the run view. cancel is invoked when the user asks to
// stop the run.
func NewModel(title string, cancel context.CancelFunc) Model {
	m := Model{
		title:  title,
		cancel: cancel,
		start:  time.Now(),
	}

	for i := range m.steps {
		m.steps[i].bar = progressbar.New(progressbar.WithDefaultGradient())
	}

	m.overall = progressbar.New(progressbar.WithDefaultGradient())
	m.logs = viewport.New(defaultWidth-2, logHeight)

	m.resize(defaultWidth)

	return m
}

// Init starts the elapsed-time ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles keys, progress events and the completion message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.done {
				return m, tea.Quit
			}

			if !m.cancelling {
				m.cancelling = true
				m.appendLine("Stopping, waiting for running tasks to finish")
				m.cancel()
			}

			return m, nil
		case "j", "down":
			m.logs.LineDown(1)
		case "k", "up":
			m.logs.LineUp(1)
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width)
	case EventMsg:
		m.apply(progress.Event(msg))
	case DoneMsg:
		m.done = true
		m.err = msg.Err

		return m, tea.Quit
	case tickMsg:
		if !m.done {
			return m, tick()
		}
	}

	return m, nil
}

// apply folds one progress event into the step states. Entering a later
// step closes out the earlier bars so they read full.
func (m *Model) apply(e progress.Event) {
	if e.Step < 0 || int(e.Step) >= len(m.steps) {
		return
	}

	if e.Step > m.active {
		for s := m.active; s < e.Step; s++ {
			if m.steps[s].seen {
				m.steps[s].current = m.steps[s].total
			}
		}

		m.active = e.Step
	}

	view := &m.steps[e.Step]
	view.seen = true
	view.current = e.Current
	view.total = e.Total
	view.message = e.Message

	if e.Message != "" {
		m.appendLine(fmt.Sprintf("[%s] %s", e.Step, e.Message))
	}
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}

	m.logs.SetContent(strings.Join(m.lines, "\n"))
	m.logs.GotoBottom()
}

func (m *Model) resize(width int) {
	if width < minViewWidth {
		width = minViewWidth
	}

	m.width = width

	barWidth := width - 30
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}

	for i := range m.steps {
		m.steps[i].bar.Width = barWidth
	}

	m.overall.Width = barWidth
	m.logs.Width = width - 2
	m.logs.Height = logHeight
}

func (m Model) overallFraction() float64 {
	if m.done && m.err == nil {
		return 1
	}

	return (float64(m.active) + m.steps[m.active].fraction()) / progress.StepCount
}

// View renders the full run screen.
func (m Model) View() string {
	var b strings.Builder

	elapsed := time.Since(m.start).Round(time.Second)
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(elapsed.String()))
	b.WriteString("\n\n")

	for i := range m.steps {
		view := m.steps[i]
		line := stepNameStyle.Render(progress.Step(i).String()) + " " + view.bar.ViewAs(view.fraction())

		if view.total > 0 {
			line += fmt.Sprintf(" %d/%d", view.current, view.total)
		}

		if view.message != "" {
			room := m.width - lipgloss.Width(line) - 2
			line += "  " + mutedStyle.Render(truncate(view.message, room))
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(stepNameStyle.Render("overall"))
	b.WriteString(" ")
	b.WriteString(m.overall.ViewAs(m.overallFraction()))
	b.WriteString("\n\n")
	b.WriteString(logBoxStyle.Render(m.logs.View()))
	b.WriteString("\n")

	switch {
	case m.done && m.err != nil:
		b.WriteString(FailureNotice("Run failed: " + m.err.Error()))
	case m.done:
		b.WriteString(successStyle.Render("Run finished"))
	case m.cancelling:
		b.WriteString(warnStyle.Render("Stopping after the current tasks"))
	default:
		b.WriteString(mutedStyle.Render("q stop · j/k scroll the log"))
	}

	b.WriteString("\n")

	return b.String()
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	if limit == 1 {
		return "…"
	}

	return string(runes[:limit-1]) + "…"
}
