package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, defaulting and range validations.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing songbook.
	cfg := new(Config)

	err := Validate(cfg)
	require.Error(t, err)

	// Key range beyond half an octave.
	cfg = &Config{
		Songbook: "songbook.xlsx",
		KeyRange: 7,
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Negative gap.
	cfg = &Config{
		Songbook:   "songbook.xlsx",
		GapSeconds: -1,
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Minimal valid config gets structural defaults filled.
	cfg = &Config{
		Songbook: "songbook.xlsx",
	}

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultOutputDir, cfg.OutputDir)
	require.Equal(t, DefaultToolsDir, cfg.Tools.Dir)
	require.Equal(t, DefaultFrontSegment, cfg.Segments.Front)
	require.Equal(t, DefaultBackSegment, cfg.Segments.Back)
	require.Equal(t, DefaultSampleRate, cfg.SampleRate)
	require.Equal(t, DefaultToolTimeout, cfg.ToolTimeout)
}

// TestLoadKeepsExplicitZeroes ensures absent fields default while explicit
// zero values in the file survive loading.
func TestLoadKeepsExplicitZeroes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	contents := []byte("songbook: book.xlsx\nkey_range: 0\ngap_seconds: 0\n")
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Explicit zeroes kept.
	require.Equal(t, 0, cfg.KeyRange)
	require.Zero(t, cfg.GapSeconds)

	// Absent fields defaulted.
	require.InDelta(t, DefaultBPMRange, cfg.BPMRange, 0.001)
	require.Equal(t, DefaultSampleRate, cfg.SampleRate)
}

// TestLoadOrDefault covers the lenient loading used before a songbook exists.
func TestLoadOrDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// Absent file yields the defaults.
	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultToolsDir, cfg.Tools.Dir)
	require.Empty(t, cfg.Songbook)

	// An existing file is honored without demanding a songbook.
	path := filepath.Join(dir, "settings.yaml")
	contents := []byte("tools:\n  dir: bin\n")
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	cfg, err = LoadOrDefault(path)
	require.NoError(t, err)
	require.Equal(t, "bin", cfg.Tools.Dir)

	// An explicitly emptied tools dir falls back to the default.
	contents = []byte("tools:\n  dir: \"\"\n")
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	cfg, err = LoadOrDefault(path)
	require.NoError(t, err)
	require.Equal(t, DefaultToolsDir, cfg.Tools.Dir)

	// Malformed settings still fail.
	require.NoError(t, os.WriteFile(path, []byte("tools: ["), 0o600))

	_, err = LoadOrDefault(path)
	require.Error(t, err)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := Default()
	cfg.Songbook = filepath.Join(dir, "songbook.xlsx")
	cfg.AudioDir = filepath.Join(dir, "audio")
	cfg.KeyRange = 3
	cfg.BPMRange = 8
	cfg.Segments.Front = "chorus-a"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Songbook, loaded.Songbook)
	require.Equal(t, cfg.AudioDir, loaded.AudioDir)
	require.Equal(t, cfg.KeyRange, loaded.KeyRange)
	require.InDelta(t, cfg.BPMRange, loaded.BPMRange, 0.001)
	require.Equal(t, "chorus-a", loaded.Segments.Front)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}
