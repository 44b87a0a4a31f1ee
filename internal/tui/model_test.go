package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/mashup-tool/internal/progress"
)

func keyMsg(s string) tea.KeyMsg {
	if s == "ctrl+c" {
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}

	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_EventUpdatesStep(t *testing.T) {
	t.Parallel()

	m := NewModel("Mashup run", func() {})

	updated, _ := m.Update(EventMsg{Step: progress.StepAlign, Current: 1, Total: 4, Message: "Aligning Song B"})
	model, ok := updated.(Model)
	require.True(t, ok)

	require.Equal(t, 1, model.steps[progress.StepAlign].current)
	require.Equal(t, 4, model.steps[progress.StepAlign].total)
	require.Equal(t, progress.StepAlign, model.active)

	view := model.View()
	require.Contains(t, view, "1/4")
	require.Contains(t, view, "align")
	require.Contains(t, view, "Aligning Song B")
}

func TestModel_LaterStepClosesEarlierBars(t *testing.T) {
	t.Parallel()

	m := NewModel("Mashup run", func() {})

	updated, _ := m.Update(EventMsg{Step: progress.StepClassify, Current: 1, Total: 2, Message: "first"})
	updated, _ = updated.Update(EventMsg{Step: progress.StepConcat, Current: 1, Total: 3, Message: "third"})

	model, ok := updated.(Model)
	require.True(t, ok)

	require.Equal(t, 2, model.steps[progress.StepClassify].current)
	require.Equal(t, progress.StepConcat, model.active)
	require.InDelta(t, (2+1.0/3)/3, model.overallFraction(), 1e-9)
}

func TestModel_CancelKeyRequestsStop(t *testing.T) {
	t.Parallel()

	var cancelled bool

	m := NewModel("Mashup run", func() { cancelled = true })

	updated, cmd := m.Update(keyMsg("q"))
	require.Nil(t, cmd)

	model, ok := updated.(Model)
	require.True(t, ok)
	require.True(t, cancelled)
	require.True(t, model.cancelling)
	require.Contains(t, model.View(), "Stopping")

	// A second press while still winding down does not quit.
	_, cmd = model.Update(keyMsg("ctrl+c"))
	require.Nil(t, cmd)
}

func TestModel_DoneQuits(t *testing.T) {
	t.Parallel()

	m := NewModel("Mashup run", func() {})

	updated, cmd := m.Update(DoneMsg{})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())

	model, ok := updated.(Model)
	require.True(t, ok)
	require.True(t, model.done)
	require.InDelta(t, 1.0, model.overallFraction(), 1e-9)
	require.Contains(t, model.View(), "Run finished")
}

func TestModel_DoneWithErrorShowsFailure(t *testing.T) {
	t.Parallel()

	m := NewModel("Mashup run", func() {})

	updated, _ := m.Update(DoneMsg{Err: errors.New("join failed")})
	model, ok := updated.(Model)
	require.True(t, ok)
	require.Contains(t, model.View(), "Run failed")
	require.Contains(t, model.View(), "join failed")

	// Any stop key now exits.
	_, cmd := model.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_Resize(t *testing.T) {
	t.Parallel()

	m := NewModel("Mashup run", func() {})

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model, ok := updated.(Model)
	require.True(t, ok)
	require.Equal(t, 120, model.width)
	require.Equal(t, 90, model.overall.Width)
}

func TestSuccessBanner(t *testing.T) {
	t.Parallel()

	banner := SuccessBanner("Packaging complete", "Artifact: dist/mashup.exe")
	require.Contains(t, banner, "Packaging complete")
	require.Contains(t, banner, "Artifact: dist/mashup.exe")
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "abc", truncate("abc", 5))
	require.Equal(t, "ab…", truncate("abcdef", 3))
	require.Equal(t, "", truncate("abc", 0))
	require.Equal(t, "…", truncate("abc", 1))
}
