package packager

import (
	"encoding/base64"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/mashup-tool/internal/service/provision"
	"github.com/oshokin/mashup-tool/internal/version"
)

// Release describes a packaged build for distribution.
type Release struct {
	// Version is the build version the artifact was produced from.
	Version string `yaml:"version"`
	// Files maps distributed filenames to base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// NewRelease returns a release stamped with the current version.
func NewRelease() *Release {
	return &Release{
		Version: version.Short(),
		Files:   make(map[string]string),
	}
}

// AddFile records the checksum of one distributed file under its base name.
func (r *Release) AddFile(path string) error {
	checksum, err := provision.FileChecksum(path)
	if err != nil {
		return err
	}

	r.Files[filepath.Base(path)] = base64.StdEncoding.EncodeToString(checksum)

	return nil
}

// Save writes the release description to the provided path.
func (r *Release) Save(path string) error {
	contents, err := yaml.Marshal(r)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Clean(path), contents, provision.DefaultFileMode)
}
