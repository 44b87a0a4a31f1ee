package checker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/domain/song"
	"github.com/oshokin/mashup-tool/internal/media"
	"github.com/oshokin/mashup-tool/internal/repository/songbook"
)

var errTestRead = errors.New("read failed")

const (
	versionBanner = "ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers"

	filtersWithRubberband = " T.. rubberband        A->A       Apply time-stretching and pitch-shifting.\n" +
		" ... atempo            A->A       Adjust audio tempo."

	filtersWithoutRubberband = " ... atempo            A->A       Adjust audio tempo."

	probeJSON = `{"format":{"duration":"215.4"},"streams":[` +
		`{"codec_type":"audio","codec_name":"pcm_s16le","sample_rate":"44100","channels":2}]}`
)

// fakeRunner answers version, filter and file probes with canned output.
type fakeRunner struct {
	versionOut string
	versionErr error
	filtersOut string
	probeOut   string
}

func (f *fakeRunner) Run(context.Context, media.Command) error {
	return nil
}

func (f *fakeRunner) Output(_ context.Context, cmd media.Command) ([]byte, error) {
	if len(cmd.Args) > 0 && cmd.Args[len(cmd.Args)-1] == "-filters" {
		return []byte(f.filtersOut), nil
	}

	for _, arg := range cmd.Args {
		if arg == "-show_format" {
			return []byte(f.probeOut), nil
		}
	}

	return []byte(f.versionOut), f.versionErr
}

// memoryRepository serves canned songbook rows.
type memoryRepository struct {
	songs []song.Song
	err   error
}

func (m *memoryRepository) ReadSongbook(context.Context, string) ([]song.Song, error) {
	return m.songs, m.err
}

func (m *memoryRepository) WriteGroupbook(context.Context, string, []song.Group) error {
	return nil
}

func (m *memoryRepository) ReadGroupbook(context.Context, string) ([]songbook.Sheet, error) {
	return nil, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Songbook = "book.xlsx"
	cfg.AudioDir = t.TempDir()
	cfg.OutputDir = t.TempDir()

	return cfg
}

func testToolset(runner *fakeRunner) *media.Toolset {
	return media.NewToolset("ffmpeg", "ffprobe", 0, runner)
}

func findResult(t *testing.T, results []CheckResult, name string) CheckResult {
	t.Helper()

	for _, result := range results {
		if result.Name == name {
			return result
		}
	}

	t.Fatalf("no check named %q in %v", name, results)

	return CheckResult{}
}

func TestRun_AllPass(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	sample := filepath.Join(cfg.AudioDir, "10001-front-chorus.wav")
	require.NoError(t, os.WriteFile(sample, []byte("RIFF"), 0o600))

	repo := &memoryRepository{songs: []song.Song{{ID: "10001"}, {ID: "10002"}}}
	runner := &fakeRunner{versionOut: versionBanner, filtersOut: filtersWithRubberband, probeOut: probeJSON}

	results := NewService(cfg, repo, testToolset(runner)).Run(context.Background())
	require.Len(t, results, 8)

	for _, result := range results {
		require.Equal(t, StatusPass, result.Status, "check %s: %s", result.Name, result.Detail)
	}

	require.Contains(t, findResult(t, results, "songbook").Detail, "2 songs")
	require.Contains(t, findResult(t, results, "ffmpeg").Detail, "6.1.1")
	require.Contains(t, findResult(t, results, "audio sample").Detail, "pcm_s16le")
	require.Contains(t, findResult(t, results, "audio sample").Detail, "44100 Hz")

	warnings, failures := Summarize(results)
	require.Zero(t, warnings)
	require.Zero(t, failures)
}

func TestCheckSongbook_ReadErrorFails(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	repo := &memoryRepository{err: errTestRead}
	runner := &fakeRunner{versionOut: versionBanner, filtersOut: filtersWithRubberband}

	results := NewService(cfg, repo, testToolset(runner)).Run(context.Background())

	result := findResult(t, results, "songbook")
	require.Equal(t, StatusFail, result.Status)
	require.Contains(t, result.Detail, "read failed")
}

func TestCheckAudioDir_MissingFails(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.AudioDir = filepath.Join(cfg.AudioDir, "does-not-exist")

	runner := &fakeRunner{versionOut: versionBanner, filtersOut: filtersWithRubberband}
	results := NewService(cfg, new(memoryRepository), testToolset(runner)).Run(context.Background())

	require.Equal(t, StatusFail, findResult(t, results, "audio directory").Status)
}

func TestCheckOutputDir_CreatesMissingPath(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.OutputDir = filepath.Join(cfg.OutputDir, "nested", "out")

	runner := &fakeRunner{versionOut: versionBanner, filtersOut: filtersWithRubberband}
	results := NewService(cfg, new(memoryRepository), testToolset(runner)).Run(context.Background())

	require.Equal(t, StatusPass, findResult(t, results, "output directory").Status)
	require.DirExists(t, cfg.OutputDir)
}

func TestCheckRubberband_AbsentWarns(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	runner := &fakeRunner{versionOut: versionBanner, filtersOut: filtersWithoutRubberband}

	results := NewService(cfg, new(memoryRepository), testToolset(runner)).Run(context.Background())

	result := findResult(t, results, "rubberband")
	require.Equal(t, StatusWarn, result.Status)
	require.Contains(t, result.Detail, "falls back")
}

func TestCheckAudioSample_NoFilesWarns(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	runner := &fakeRunner{versionOut: versionBanner, filtersOut: filtersWithRubberband, probeOut: probeJSON}

	results := NewService(cfg, new(memoryRepository), testToolset(runner)).Run(context.Background())

	result := findResult(t, results, "audio sample")
	require.Equal(t, StatusWarn, result.Status)
	require.Contains(t, result.Detail, "no audio files")
}

func TestCheckAudioSample_ProbeFailureWarns(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	sample := filepath.Join(cfg.AudioDir, "10001-front-chorus.wav")
	require.NoError(t, os.WriteFile(sample, []byte("not audio"), 0o600))

	runner := &fakeRunner{versionOut: versionBanner, filtersOut: filtersWithRubberband, probeOut: "garbage"}
	results := NewService(cfg, new(memoryRepository), testToolset(runner)).Run(context.Background())

	result := findResult(t, results, "audio sample")
	require.Equal(t, StatusWarn, result.Status)
	require.Contains(t, result.Detail, sample)
}

func TestCheckMediaTools_ResolveFailure(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Tools.FFmpeg = filepath.Join(t.TempDir(), "missing", "ffmpeg")

	results := NewService(cfg, new(memoryRepository), nil).Run(context.Background())

	result := findResult(t, results, "media tools")
	require.Equal(t, StatusFail, result.Status)
	require.Contains(t, result.Detail, "not found")
}

func TestCheckToolVersion_BadBannerFails(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	runner := &fakeRunner{versionOut: "garbage output", filtersOut: filtersWithRubberband}

	results := NewService(cfg, new(memoryRepository), testToolset(runner)).Run(context.Background())

	require.Equal(t, StatusFail, findResult(t, results, "ffmpeg").Status)
	require.Equal(t, StatusFail, findResult(t, results, "ffprobe").Status)
}

func TestCheckSegments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		front  string
		back   string
		status Status
	}{
		{name: "defaults", front: config.DefaultFrontSegment, back: config.DefaultBackSegment, status: StatusPass},
		{name: "empty front", front: "", back: "back-chorus", status: StatusFail},
		{name: "identical", front: "chorus", back: "chorus", status: StatusFail},
		{name: "unsafe characters", front: "front/chorus", back: "back-chorus", status: StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t)
			cfg.Segments.Front = tt.front
			cfg.Segments.Back = tt.back

			svc := NewService(cfg, new(memoryRepository), testToolset(&fakeRunner{versionOut: versionBanner}))
			require.Equal(t, tt.status, svc.checkSegments().Status)
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	warnings, failures := Summarize([]CheckResult{
		{Status: StatusPass},
		{Status: StatusWarn},
		{Status: StatusWarn},
		{Status: StatusFail},
	})

	require.Equal(t, 2, warnings)
	require.Equal(t, 1, failures)
}
