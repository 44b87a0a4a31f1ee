package aligner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, paths ...string) {
	t.Helper()

	for _, p := range paths {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("audio"), 0o600))
	}
}

// TestFindAudioFiles_IDBoundary covers the separator rule, the recursive
// walk, the extension filter and the stem ordering.
func TestFindAudioFiles_IDBoundary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t,
		filepath.Join(dir, "10001-front.wav"),
		filepath.Join(dir, "nested", "10001_back.mp3"),
		filepath.Join(dir, "10001 live.flac"),
		filepath.Join(dir, "10001.ogg"),
		filepath.Join(dir, "100011-other.wav"),
		filepath.Join(dir, "10001-notes.txt"),
	)

	matches, err := findAudioFiles(dir, "10001", "ignored")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "10001.ogg"),
		filepath.Join(dir, "10001 live.flac"),
		filepath.Join(dir, "10001-front.wav"),
		filepath.Join(dir, "nested", "10001_back.mp3"),
	}, matches)
}

// TestFindAudioFiles_NameFallback verifies the case-insensitive substring
// search kicks in only when the ID finds nothing.
func TestFindAudioFiles_NameFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t,
		filepath.Join(dir, "Love Song (Live).wav"),
		filepath.Join(dir, "other.mp3"),
	)

	matches, err := findAudioFiles(dir, "99999", "love song")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "Love Song (Live).wav")}, matches)

	matches, err = findAudioFiles(dir, "", "")
	require.NoError(t, err)
	require.Empty(t, matches)
}

// TestFindAudioFiles_MissingDir verifies walk errors surface.
func TestFindAudioFiles_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := findAudioFiles(filepath.Join(t.TempDir(), "absent"), "1", "x")
	require.Error(t, err)
}

// TestStemMatchesID exercises the boundary characters.
func TestStemMatchesID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		stem     string
		id       string
		expected bool
	}{
		{name: "exact", stem: "10001", id: "10001", expected: true},
		{name: "dash", stem: "10001-front", id: "10001", expected: true},
		{name: "underscore", stem: "10001_back", id: "10001", expected: true},
		{name: "space", stem: "10001 live", id: "10001", expected: true},
		{name: "longer id", stem: "100011-front", id: "10001", expected: false},
		{name: "different", stem: "20001-front", id: "10001", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.expected, stemMatchesID(tt.stem, tt.id))
		})
	}
}
