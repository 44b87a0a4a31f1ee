package packager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// BuildSpecFilename is the default build spec filename.
	BuildSpecFilename = "mashup-build.yaml"

	// ReleaseFilename names the release description written next to the
	// artifact.
	ReleaseFilename = "mashup-release.yaml"

	// DefaultMediaTool is the external binary a packaged build needs at
	// run time when the build spec does not name one.
	DefaultMediaTool = "ffmpeg"
)

var (
	errNoRuntime  = errors.New("build spec names no runtime")
	errNoPackager = errors.New("build spec names no packager")
	errNoArtifact = errors.New("build spec names no artifact path")
)

// BuildSpec describes one packaging pass.
type BuildSpec struct {
	// Runtime is the toolchain executable that must be on PATH before
	// packaging starts.
	Runtime string `yaml:"runtime"`
	// Ensure is the argv that installs or upgrades the packaging
	// dependency. Empty means the dependency is managed elsewhere.
	Ensure []string `yaml:"ensure,omitempty"`
	// Packager is the packaging executable.
	Packager string `yaml:"packager"`
	// Args are the packager arguments, typically naming the build inputs.
	Args []string `yaml:"args,omitempty"`
	// Artifact is the fixed path the packager produces.
	Artifact string `yaml:"artifact"`
	// MediaTool is the external binary the artifact needs at run time.
	MediaTool string `yaml:"media_tool,omitempty"`
}

// LoadBuildSpec reads and validates a build spec. An empty path means
// BuildSpecFilename in the working directory.
func LoadBuildSpec(path string) (*BuildSpec, error) {
	if path == "" {
		path = BuildSpecFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read build spec: %w", err)
	}

	var spec BuildSpec
	if err = yaml.Unmarshal(contents, &spec); err != nil {
		return nil, fmt.Errorf("parse build spec: %w", err)
	}

	if spec.Runtime == "" {
		return nil, fmt.Errorf("%s: %w", path, errNoRuntime)
	}

	if spec.Packager == "" {
		return nil, fmt.Errorf("%s: %w", path, errNoPackager)
	}

	if spec.Artifact == "" {
		return nil, fmt.Errorf("%s: %w", path, errNoArtifact)
	}

	if spec.MediaTool == "" {
		spec.MediaTool = DefaultMediaTool
	}

	return &spec, nil
}
