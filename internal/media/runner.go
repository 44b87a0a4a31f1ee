package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"
)

// stderrTailBytes bounds how much tool stderr is kept for error reporting.
const stderrTailBytes = 2048

// Command is one external tool invocation.
type Command struct {
	// Path is the resolved executable path.
	Path string
	// Args are the arguments, excluding the executable name.
	Args []string
	// Timeout bounds the invocation when positive.
	Timeout time.Duration
}

// Runner executes media tool commands. Services depend on this interface
// so tests can substitute a fake for the external binaries.
type Runner interface {
	// Run executes the command, discarding stdout.
	Run(ctx context.Context, cmd Command) error
	// Output executes the command and returns its stdout.
	Output(ctx context.Context, cmd Command) ([]byte, error)
}

// ExecRunner runs commands through os/exec, keeping a bounded stderr tail
// to surface the tool's diagnostics inside returned errors.
type ExecRunner struct{}

// NewExecRunner creates an exec-backed runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command, discarding stdout.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	_, err := r.run(ctx, cmd, false)

	return err
}

// Output executes the command and returns its stdout.
func (r *ExecRunner) Output(ctx context.Context, cmd Command) ([]byte, error) {
	return r.run(ctx, cmd, true)
}

func (r *ExecRunner) run(ctx context.Context, cmd Command, wantOutput bool) ([]byte, error) {
	runCtx := ctx

	if cmd.Timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	var (
		tool   = filepath.Base(cmd.Path)
		stderr = &tailBuffer{capacity: stderrTailBytes}
		stdout bytes.Buffer
	)

	execCmd := exec.CommandContext(runCtx, cmd.Path, cmd.Args...)
	execCmd.Stderr = stderr

	if wantOutput {
		execCmd.Stdout = &stdout
	}

	if err := execCmd.Run(); err != nil {
		// Prefer the context error so timeouts read as timeouts, not exit codes.
		if ctxErr := runCtx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", tool, ctxErr)
		}

		if tail := stderr.String(); tail != "" {
			return nil, fmt.Errorf("%s: %w: %s", tool, err, tail)
		}

		return nil, fmt.Errorf("%s: %w", tool, err)
	}

	return stdout.Bytes(), nil
}

// tailBuffer keeps the last capacity bytes written to it.
type tailBuffer struct {
	capacity int
	data     []byte
}

// Write appends p, discarding the oldest bytes beyond the capacity.
func (b *tailBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	if len(b.data) > b.capacity {
		b.data = b.data[len(b.data)-b.capacity:]
	}

	return len(p), nil
}

// String returns the retained tail with surrounding whitespace trimmed.
func (b *tailBuffer) String() string {
	return string(bytes.TrimSpace(b.data))
}
