// Package provision installs the external media tools a machine needs,
// driven by a checksum manifest.
package provision

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	// Ensure SHA512 is linked in for checksum verification.
	_ "crypto/sha512"
)

const (
	// ManifestFilename is the default tools manifest filename.
	ManifestFilename = "mashup-tools.yaml"

	// markerFilename serializes provisioning runs sharing a tools directory.
	markerFilename = "mashup-provision-marker.yaml"

	// DefaultFileMode is applied to installed tools.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction hashes tool payloads.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512
)

var (
	errEmptyManifest   = errors.New("manifest lists no tools")
	errNoURL           = errors.New("missing download url")
	errNoChecksum      = errors.New("missing checksum")
	errUnknownTool     = errors.New("tool not in manifest")
	errHashUnavailable = errors.New("hash function unavailable")
)

// ToolSpec describes one downloadable media tool.
type ToolSpec struct {
	// URL is where the tool binary is fetched from.
	URL string `yaml:"url"`
	// Checksum is the base64 encoded SHA-512 of the binary.
	Checksum string `yaml:"checksum"`
	// Filename overrides the installed name. Empty means the tool name
	// plus the platform executable extension.
	Filename string `yaml:"filename,omitempty"`
}

// Manifest lists the tools a machine can be provisioned with.
type Manifest struct {
	// Tools maps tool names to their download specs.
	Tools map[string]ToolSpec `yaml:"tools"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err = yaml.Unmarshal(contents, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if len(m.Tools) == 0 {
		return nil, fmt.Errorf("%s: %w", path, errEmptyManifest)
	}

	for name, spec := range m.Tools {
		if spec.URL == "" {
			return nil, fmt.Errorf("tool %s: %w", name, errNoURL)
		}

		if spec.Checksum == "" {
			return nil, fmt.Errorf("tool %s: %w", name, errNoChecksum)
		}

		if _, err = base64.StdEncoding.DecodeString(spec.Checksum); err != nil {
			return nil, fmt.Errorf("tool %s checksum: %w", name, err)
		}
	}

	return &m, nil
}

// Select returns the tools to provision in a stable order. An empty
// request selects every tool in the manifest.
func (m *Manifest) Select(names []string) ([]string, error) {
	if len(names) == 0 {
		all := make([]string, 0, len(m.Tools))
		for name := range m.Tools {
			all = append(all, name)
		}

		sort.Strings(all)

		return all, nil
	}

	for _, name := range names {
		if _, ok := m.Tools[name]; !ok {
			return nil, fmt.Errorf("%w: %s", errUnknownTool, name)
		}
	}

	return names, nil
}

// InstallName returns the filename the tool is installed under.
func (s ToolSpec) InstallName(name string) string {
	if s.Filename != "" {
		return s.Filename
	}

	return name + getExecutableExtension()
}

// FileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func FileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// getExecutableExtension returns ".exe" on Windows and "" elsewhere.
func getExecutableExtension() string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return ".exe"
	}

	return ""
}
