//go:build unix

package integration

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/mashup-tool/internal/service/packager"
)

// writeBuildSpec marshals a build spec into dir and returns its path.
func writeBuildSpec(t *testing.T, dir string, spec *packager.BuildSpec) string {
	t.Helper()

	data, err := yaml.Marshal(spec)
	require.NoError(t, err)

	path := filepath.Join(dir, packager.BuildSpecFilename)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

// TestPackager_BuildsReleaseDescription drives a shell-backed build spec end
// to end and verifies the artifact checksum lands in the release description.
func TestPackager_BuildsReleaseDescription(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	artifact := filepath.Join(dir, "mashup-tool")

	specPath := writeBuildSpec(t, dir, &packager.BuildSpec{
		Runtime:  "sh",
		Packager: "sh",
		Args:     []string{"-c", "printf 'packaged build' > \"" + artifact + "\""},
		Artifact: artifact,
	})

	err := packager.Run(context.Background(), &packager.Options{
		BuildSpecPath: specPath,
		NoPause:       true,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, packager.ReleaseFilename))
	require.NoError(t, err)

	var release packager.Release
	require.NoError(t, yaml.Unmarshal(data, &release))
	require.NotEmpty(t, release.Version)

	checksum := sha512.Sum512([]byte("packaged build"))
	require.Equal(t, base64.StdEncoding.EncodeToString(checksum[:]), release.Files["mashup-tool"])
}

// TestPackager_FailingBuildWritesNoRelease runs a packager that exits with an
// error before producing anything.
func TestPackager_FailingBuildWritesNoRelease(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	specPath := writeBuildSpec(t, dir, &packager.BuildSpec{
		Runtime:  "sh",
		Packager: "sh",
		Args:     []string{"-c", "exit 3"},
		Artifact: filepath.Join(dir, "mashup-tool"),
	})

	err := packager.Run(context.Background(), &packager.Options{
		BuildSpecPath: specPath,
		NoPause:       true,
	})
	require.ErrorContains(t, err, "run packager")

	require.NoFileExists(t, filepath.Join(dir, packager.ReleaseFilename))
}

// TestPackager_MissingArtifactFails runs a packager that succeeds without
// leaving the promised artifact behind.
func TestPackager_MissingArtifactFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	specPath := writeBuildSpec(t, dir, &packager.BuildSpec{
		Runtime:  "sh",
		Packager: "true",
		Artifact: filepath.Join(dir, "mashup-tool"),
	})

	err := packager.Run(context.Background(), &packager.Options{
		BuildSpecPath: specPath,
		NoPause:       true,
	})
	require.ErrorContains(t, err, "artifact was not produced")

	require.NoFileExists(t, filepath.Join(dir, packager.ReleaseFilename))
}
