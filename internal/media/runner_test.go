package media

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeScript drops an executable shell script for exec tests.
func writeScript(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "tool.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))

	return path
}

// TestExecRunnerOutput returns the command's stdout.
func TestExecRunnerOutput(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "echo hello\n")

	out, err := NewExecRunner().Output(context.Background(), Command{Path: script})
	require.NoError(t, err)
	require.Equal(t, "hello", strings.TrimSpace(string(out)))
}

// TestExecRunnerSurfacesStderr includes the tool's stderr tail in the error.
func TestExecRunnerSurfacesStderr(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "echo boom details 1>&2\nexit 3\n")

	err := NewExecRunner().Run(context.Background(), Command{Path: script})
	require.Error(t, err)
	require.ErrorContains(t, err, "boom details")
}

// TestExecRunnerTimeout cancels the invocation and reports the deadline.
func TestExecRunnerTimeout(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "sleep 5\n")

	err := NewExecRunner().Run(context.Background(), Command{
		Path:    script,
		Timeout: 50 * time.Millisecond,
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestTailBufferKeepsTail retains only the newest bytes past the capacity.
func TestTailBufferKeepsTail(t *testing.T) {
	t.Parallel()

	b := &tailBuffer{capacity: 8}

	_, err := b.Write([]byte("0123456789abcdef"))
	require.NoError(t, err)
	require.Equal(t, "89abcdef", b.String())

	_, err = b.Write([]byte("XY"))
	require.NoError(t, err)
	require.Equal(t, "abcdefXY", b.String())
}
