package provision

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/logger"
	"github.com/oshokin/mashup-tool/internal/service/common"
)

var errBadHTTPStatus = errors.New("unexpected http status")

// Options are inputs accepted by the provisioner entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// ManifestPath is the tools manifest location.
	ManifestPath string
	// Tools limits provisioning to the named tools. Empty means all.
	Tools []string
}

// runner holds the mutable state of a single provisioning pass.
// It is intentionally unexported, call Run(ctx, Options) from callers.
type runner struct {
	cfg                *config.Config    // Settings loaded from YAML.
	manifest           *Manifest         // Parsed tools manifest.
	requested          []string          // Tool names to provision, in order.
	marker             *common.RunMarker // Concurrency guard in the tools directory.
	temporaryDirectory string            // Where payloads land before apply.
	installed          int               // Tools freshly installed this pass.
	upToDate           int               // Tools whose checksums already matched.
}

// Run executes the provisioner lifecycle and is the public entry point for
// the CLI.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "mashup-provision")

	p, err := newRunner(ctx, opts)

	defer p.cleanup(ctx)

	if err != nil {
		return err
	}

	if err = p.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Provisioning failed", "error", err)
		return err
	}

	logger.InfoKV(ctx, "Provisioning finished",
		"installed", p.installed,
		"up_to_date", p.upToDate,
		"tools_dir", p.cfg.Tools.Dir)

	return nil
}

// newRunner prepares the pass and writes a marker to avoid concurrent runs
// against the same tools directory.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	p := new(runner)

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return p, fmt.Errorf("load configuration: %w", err)
	}

	p.cfg = cfg

	if err = os.MkdirAll(cfg.Tools.Dir, DefaultFileMode); err != nil {
		return p, fmt.Errorf("create tools directory: %w", err)
	}

	p.marker, err = common.AcquireMarker(ctx, filepath.Join(cfg.Tools.Dir, markerFilename))
	if err != nil {
		return p, err
	}

	manifestPath := opts.ManifestPath
	if manifestPath == "" {
		manifestPath = ManifestFilename
	}

	p.manifest, err = LoadManifest(manifestPath)
	if err != nil {
		return p, err
	}

	p.requested, err = p.manifest.Select(opts.Tools)
	if err != nil {
		return p, err
	}

	return p, nil
}

// run installs every requested tool that is missing or outdated.
func (p *runner) run(ctx context.Context) error {
	for _, name := range p.requested {
		if err := ctx.Err(); err != nil {
			return err
		}

		spec := p.manifest.Tools[name]
		target := filepath.Join(p.cfg.Tools.Dir, spec.InstallName(name))

		current, err := p.isUpToDate(target, spec)
		if err != nil {
			return fmt.Errorf("check %s: %w", name, err)
		}

		if current {
			p.upToDate++

			logger.InfoKV(ctx, "Tool is up to date", "tool", name, "path", target)

			continue
		}

		if err = p.install(ctx, name, spec, target); err != nil {
			return fmt.Errorf("install %s: %w", name, err)
		}

		p.installed++
	}

	return nil
}

// isUpToDate compares the installed file's checksum against the manifest.
func (p *runner) isUpToDate(target string, spec ToolSpec) (bool, error) {
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	installedChecksum, err := FileChecksum(target)
	if err != nil {
		return false, err
	}

	expected, err := base64.StdEncoding.DecodeString(spec.Checksum)
	if err != nil {
		return false, err
	}

	return bytes.Equal(installedChecksum, expected), nil
}

// install downloads the tool and applies it with checksum verification.
func (p *runner) install(ctx context.Context, name string, spec ToolSpec, target string) error {
	logger.InfoKV(ctx, "Downloading tool", "tool", name, "url", spec.URL)

	downloaded, err := p.download(ctx, name, spec.URL)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Clean(downloaded))
	if err != nil {
		return err
	}

	expected, err := base64.StdEncoding.DecodeString(spec.Checksum)
	if err != nil {
		return err
	}

	// The apply swaps files in place and needs a target to swap out.
	if _, err = os.Stat(target); errors.Is(err, os.ErrNotExist) {
		var placeholder *os.File

		placeholder, err = os.Create(filepath.Clean(target))
		if err != nil {
			return err
		}

		if err = placeholder.Close(); err != nil {
			return err
		}
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: DefaultFileMode,
		Checksum:   expected,
		Hash:       DefaultChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return err
	}

	oldName := target + ".old"
	if _, err = os.Stat(oldName); err == nil {
		_ = os.Remove(oldName)
	}

	logger.InfoKV(ctx, "Installed tool", "tool", name, "path", target)

	return nil
}

// download fetches a tool payload into the pass's temporary directory.
func (p *runner) download(ctx context.Context, name, rawURL string) (string, error) {
	if p.temporaryDirectory == "" {
		dir, err := os.MkdirTemp("", "mashup-provision-")
		if err != nil {
			return "", err
		}

		p.temporaryDirectory = dir
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", err
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s, %s: %w", rawURL, response.Status, errBadHTTPStatus)
	}

	outputName := filepath.Join(p.temporaryDirectory, name)

	output, err := os.Create(filepath.Clean(outputName))
	if err != nil {
		return "", err
	}

	if _, err = io.Copy(output, response.Body); err != nil {
		_ = output.Close()

		return "", err
	}

	if err = output.Close(); err != nil {
		return "", err
	}

	return outputName, nil
}

// cleanup removes temporary artifacts and releases the running marker.
func (p *runner) cleanup(ctx context.Context) {
	if p.marker != nil {
		p.marker.Release()
	}

	if p.temporaryDirectory != "" {
		if _, err := os.Stat(p.temporaryDirectory); err == nil {
			_ = os.RemoveAll(p.temporaryDirectory)
		}
	}

	logger.Info(ctx, "The provisioner has stopped")
}
