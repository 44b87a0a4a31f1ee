package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultFFmpegName is the conventional ffmpeg executable name.
	DefaultFFmpegName = "ffmpeg"
	// DefaultFFprobeName is the conventional ffprobe executable name.
	DefaultFFprobeName = "ffprobe"
)

var (
	// ErrToolNotFound is returned when a media binary cannot be located.
	ErrToolNotFound = errors.New("media tool not found")
	// errUnexpectedBanner is returned when a tool's -version output cannot be parsed.
	errUnexpectedBanner = errors.New("unexpected version banner")
)

// ResolveOptions configure toolset resolution.
type ResolveOptions struct {
	// Dir is the local tools directory checked before PATH.
	Dir string
	// FFmpeg overrides the ffmpeg name or path.
	FFmpeg string
	// FFprobe overrides the ffprobe name or path.
	FFprobe string
	// Timeout bounds each tool invocation.
	Timeout time.Duration
	// Runner executes the commands. Defaults to the exec-backed runner.
	Runner Runner
}

// Toolset holds the resolved media binaries and answers capability probes.
type Toolset struct {
	// FFmpeg is the resolved ffmpeg executable path.
	FFmpeg string
	// FFprobe is the resolved ffprobe executable path.
	FFprobe string

	// runner executes tool invocations.
	runner Runner
	// timeout bounds each invocation.
	timeout time.Duration

	// mu guards the cached capability probe.
	mu sync.Mutex
	// rubberband caches the rubberband filter probe result.
	rubberband *bool
}

// NewToolset wraps already resolved binaries. Resolve is the usual entry
// point, this constructor serves callers that manage resolution themselves.
func NewToolset(ffmpeg, ffprobe string, timeout time.Duration, runner Runner) *Toolset {
	if runner == nil {
		runner = NewExecRunner()
	}

	return &Toolset{
		FFmpeg:  ffmpeg,
		FFprobe: ffprobe,
		runner:  runner,
		timeout: timeout,
	}
}

// Resolve locates ffmpeg and ffprobe using the explicit overrides, the tools
// directory and finally PATH, in that order.
func Resolve(opts ResolveOptions) (*Toolset, error) {
	ffmpeg, err := resolveTool(opts.FFmpeg, DefaultFFmpegName, opts.Dir)
	if err != nil {
		return nil, err
	}

	ffprobe, err := resolveTool(opts.FFprobe, DefaultFFprobeName, opts.Dir)
	if err != nil {
		return nil, err
	}

	return NewToolset(ffmpeg, ffprobe, opts.Timeout, opts.Runner), nil
}

// Run executes a built command through the toolset's runner.
func (t *Toolset) Run(ctx context.Context, cmd Command) error {
	return t.runner.Run(ctx, cmd)
}

// resolveTool finds one binary: explicit paths are taken as-is, bare names
// are checked in the tools directory before falling back to PATH.
func resolveTool(override, defaultName, dir string) (string, error) {
	name := override
	if name == "" {
		name = defaultName
	}

	if strings.ContainsAny(name, `/\`) || filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrToolNotFound, name, err)
		}

		return filepath.Clean(name), nil
	}

	if dir != "" {
		for _, candidate := range []string{
			filepath.Join(dir, name),
			filepath.Join(dir, name+".exe"),
		} {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	return path, nil
}

// Version runs "<tool> -version" and returns the version token of its banner.
func (t *Toolset) Version(ctx context.Context, tool string) (string, error) {
	out, err := t.runner.Output(ctx, Command{
		Path:    tool,
		Args:    []string{"-version"},
		Timeout: t.timeout,
	})
	if err != nil {
		return "", err
	}

	return parseVersionBanner(string(out))
}

// parseVersionBanner extracts the token after "version" from the first line
// of a tool banner like "ffmpeg version 6.1.1 Copyright ...".
func parseVersionBanner(out string) (string, error) {
	line, _, _ := strings.Cut(out, "\n")

	fields := strings.Fields(line)
	for i, field := range fields {
		if field == "version" && i+1 < len(fields) {
			return fields[i+1], nil
		}
	}

	return "", fmt.Errorf("%w: %q", errUnexpectedBanner, line)
}

// HasRubberband reports whether the resolved ffmpeg build carries the
// rubberband filter. The probe runs once; the result is cached.
func (t *Toolset) HasRubberband(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rubberband != nil {
		return *t.rubberband, nil
	}

	out, err := t.runner.Output(ctx, Command{
		Path:    t.FFmpeg,
		Args:    []string{"-hide_banner", "-filters"},
		Timeout: t.timeout,
	})
	if err != nil {
		return false, err
	}

	has := listsFilter(string(out), "rubberband")
	t.rubberband = &has

	return has, nil
}

// listsFilter scans "ffmpeg -filters" output for a filter name. Each entry
// line is "<flags> <name> <io> <description>".
func listsFilter(out, name string) bool {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}

	return false
}
