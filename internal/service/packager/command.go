package packager

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/oshokin/mashup-tool/internal/logger"
	"github.com/oshokin/mashup-tool/internal/tui"
)

var (
	errRuntimeMissing  = errors.New("runtime not found on PATH")
	errArtifactMissing = errors.New("artifact was not produced")
)

// Options contains inputs for the packager entry point.
type Options struct {
	// BuildSpecPath is an optional path to the build spec (defaults to
	// mashup-build.yaml in the working directory).
	BuildSpecPath string
	// NoPause skips the pause for acknowledgment after a failure.
	NoPause bool
}

// packager drives one packaging pass.
// It is unexported, callers should use Run, which wires the defaults.
type packager struct {
	// spec is the validated build spec.
	spec *BuildSpec
	// lookPath resolves the runtime on PATH.
	lookPath func(file string) (string, error)
	// runCommand executes one build step, streaming its output.
	runCommand func(ctx context.Context, name string, args ...string) error
	// out receives the banner and failure notices.
	out io.Writer
	// pause controls whether failures wait for acknowledgment.
	pause bool
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "mashup-packager")

	spec, err := LoadBuildSpec(opts.BuildSpecPath)
	if err != nil {
		return err
	}

	pkg := &packager{
		spec:       spec,
		lookPath:   exec.LookPath,
		runCommand: runStreaming,
		out:        os.Stdout,
		pause:      !opts.NoPause && term.IsTerminal(int(os.Stdin.Fd())),
	}

	return pkg.run(ctx)
}

// run walks the packaging steps in order. The runtime check comes first so
// a missing toolchain stops the pass before anything is installed or built.
func (p *packager) run(ctx context.Context) error {
	runtimePath, err := p.lookPath(p.spec.Runtime)
	if err != nil {
		fmt.Fprintln(p.out, tui.FailureNotice(
			"The "+p.spec.Runtime+" runtime was not found on PATH. Install it and run the packager again."))
		p.pauseForAcknowledgment()

		return fmt.Errorf("%s: %w", p.spec.Runtime, errRuntimeMissing)
	}

	logger.InfoKV(ctx, "Runtime resolved", "runtime", p.spec.Runtime, "path", runtimePath)

	if err = p.ensureDependency(ctx); err != nil {
		return p.failPackaging(ctx, err)
	}

	if err = p.invokePackager(ctx); err != nil {
		return p.failPackaging(ctx, err)
	}

	releasePath, err := p.publishRelease(ctx)
	if err != nil {
		return p.failPackaging(ctx, err)
	}

	p.printBanner(releasePath)

	return nil
}

// ensureDependency installs or upgrades the packaging dependency.
func (p *packager) ensureDependency(ctx context.Context) error {
	if len(p.spec.Ensure) == 0 {
		return nil
	}

	logger.InfoKV(ctx, "Ensuring packaging dependency", "command", strings.Join(p.spec.Ensure, " "))

	if err := p.runCommand(ctx, p.spec.Ensure[0], p.spec.Ensure[1:]...); err != nil {
		return fmt.Errorf("ensure packaging dependency: %w", err)
	}

	return nil
}

// invokePackager runs the packaging executable with the build spec's arguments.
func (p *packager) invokePackager(ctx context.Context) error {
	logger.InfoKV(ctx, "Invoking packager",
		"packager", p.spec.Packager,
		"args", strings.Join(p.spec.Args, " "))

	if err := p.runCommand(ctx, p.spec.Packager, p.spec.Args...); err != nil {
		return fmt.Errorf("run packager: %w", err)
	}

	return nil
}

// publishRelease verifies the artifact and writes the release description
// next to it.
func (p *packager) publishRelease(ctx context.Context) (string, error) {
	if _, err := os.Stat(p.spec.Artifact); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", p.spec.Artifact, errArtifactMissing)
		}

		return "", fmt.Errorf("stat artifact: %w", err)
	}

	release := NewRelease()
	if err := release.AddFile(p.spec.Artifact); err != nil {
		return "", fmt.Errorf("checksum artifact: %w", err)
	}

	releasePath := filepath.Join(filepath.Dir(p.spec.Artifact), ReleaseFilename)
	if err := release.Save(releasePath); err != nil {
		return "", fmt.Errorf("save release description: %w", err)
	}

	logger.InfoKV(ctx, "Saved release description", "path", releasePath, "version", release.Version)

	return releasePath, nil
}

// failPackaging reports a packaging failure without the completion banner.
func (p *packager) failPackaging(ctx context.Context, err error) error {
	logger.ErrorKV(ctx, "Packaging failed", "error", err)

	fmt.Fprintln(p.out, tui.FailureNotice("Packaging failed: "+err.Error()))
	p.pauseForAcknowledgment()

	return err
}

// printBanner reports where the artifact landed and what it needs at run time.
func (p *packager) printBanner(releasePath string) {
	fmt.Fprintln(p.out, tui.SuccessBanner("Packaging finished",
		"Artifact: "+p.spec.Artifact,
		"Release description: "+releasePath,
		"The tool needs "+p.spec.MediaTool+" on PATH or next to the artifact."))
}

// pauseForAcknowledgment keeps the console open until the user reacts, so
// a double-clicked run does not vanish with its diagnostic.
func (p *packager) pauseForAcknowledgment() {
	if !p.pause {
		return
	}

	fmt.Fprint(p.out, "Press Enter to continue...")

	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}

// runStreaming executes a build step attached to the console.
func runStreaming(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
