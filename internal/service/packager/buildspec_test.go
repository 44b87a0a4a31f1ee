package packager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeBuildSpec stores build spec contents under a temporary directory.
func writeBuildSpec(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), BuildSpecFilename)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

// TestLoadBuildSpec validates parsing, required fields and the media tool
// default.
func TestLoadBuildSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contents    string
		expectedErr error
		mediaTool   string
	}{
		{
			name: "full spec",
			contents: "runtime: go\n" +
				"ensure: [go, install, example.com/pack@latest]\n" +
				"packager: pack\n" +
				"args: [build.spec]\n" +
				"artifact: dist/mashup-tool\n" +
				"media_tool: sox\n",
			mediaTool: "sox",
		},
		{
			name: "media tool defaults",
			contents: "runtime: go\n" +
				"packager: pack\n" +
				"artifact: dist/mashup-tool\n",
			mediaTool: DefaultMediaTool,
		},
		{
			name: "missing runtime",
			contents: "packager: pack\n" +
				"artifact: dist/mashup-tool\n",
			expectedErr: errNoRuntime,
		},
		{
			name: "missing packager",
			contents: "runtime: go\n" +
				"artifact: dist/mashup-tool\n",
			expectedErr: errNoPackager,
		},
		{
			name: "missing artifact",
			contents: "runtime: go\n" +
				"packager: pack\n",
			expectedErr: errNoArtifact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			spec, err := LoadBuildSpec(writeBuildSpec(t, tt.contents))
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)

				return
			}

			require.NoError(t, err)
			require.Equal(t, "go", spec.Runtime)
			require.Equal(t, "pack", spec.Packager)
			require.Equal(t, tt.mediaTool, spec.MediaTool)
		})
	}
}

// TestLoadBuildSpec_MissingFile surfaces the read error.
func TestLoadBuildSpec_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadBuildSpec(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
