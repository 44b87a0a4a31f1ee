package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/oshokin/mashup-tool/internal/progress"
)

// Run executes fn under the interactive view. Events reported through the
// supplied reporter drive the bars; q or ctrl+c cancels fn's context and
// the final state stays on screen after exit.
func Run(ctx context.Context, title string, fn func(ctx context.Context, reporter progress.Reporter) error) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(NewModel(title, cancel))

	done := make(chan error, 1)

	go func() {
		err := fn(runCtx, progress.Func(func(e progress.Event) {
			program.Send(EventMsg(e))
		}))

		done <- err

		program.Send(DoneMsg{Err: err})
	}()

	if _, err := program.Run(); err != nil {
		cancel()

		if runErr := <-done; runErr != nil {
			return runErr
		}

		return fmt.Errorf("render progress: %w", err)
	}

	return <-done
}
