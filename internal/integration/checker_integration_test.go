//go:build unix

package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/mashup-tool/internal/service/checker"
)

// ffmpegStubNoRubberband is the ffmpeg stub with the rubberband filter
// missing from its filter list.
const ffmpegStubNoRubberband = `#!/bin/sh
for last; do :; done
case "$*" in
*-filters*) echo " ... atempo            A->A       Adjust audio tempo." ;;
*-version*) echo "ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers" ;;
*) : > "$last" ;;
esac
`

// TestChecker_PassesOnPreparedEnvironment runs every preflight check against
// a complete fixture: settings, songbook, audio files and stub tools.
func TestChecker_PassesOnPreparedEnvironment(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		songbookPath = filepath.Join(dir, "songbook.xlsx")
		audioDir     = filepath.Join(dir, "audio")
		outputDir    = filepath.Join(dir, "output")
		toolsDir     = writeMediaStubs(t, dir)
	)

	writeSongbook(t, songbookPath)

	require.NoError(t, os.MkdirAll(audioDir, 0o755))
	writeAudioSegments(t, audioDir, "10001")

	cfgPath := writeFixtureSettings(t, dir, songbookPath, audioDir, outputDir, toolsDir)

	err := checker.Run(context.Background(), &checker.Options{ConfigPath: cfgPath, Strict: true})
	require.NoError(t, err)
}

// TestChecker_StrictPromotesWarnings removes the rubberband filter from the
// stub ffmpeg and verifies the warning fails only a strict run.
func TestChecker_StrictPromotesWarnings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		songbookPath = filepath.Join(dir, "songbook.xlsx")
		audioDir     = filepath.Join(dir, "audio")
		outputDir    = filepath.Join(dir, "output")
		toolsDir     = writeMediaStubs(t, dir)
	)

	require.NoError(t, os.WriteFile(filepath.Join(toolsDir, "ffmpeg"), []byte(ffmpegStubNoRubberband), 0o755))

	writeSongbook(t, songbookPath)

	require.NoError(t, os.MkdirAll(audioDir, 0o755))
	writeAudioSegments(t, audioDir, "10001")

	cfgPath := writeFixtureSettings(t, dir, songbookPath, audioDir, outputDir, toolsDir)

	err := checker.Run(context.Background(), &checker.Options{ConfigPath: cfgPath})
	require.NoError(t, err)

	err = checker.Run(context.Background(), &checker.Options{ConfigPath: cfgPath, Strict: true})
	require.ErrorContains(t, err, "environment checks failed")
}

// TestChecker_MissingSongbookFails points the settings at a songbook that
// does not exist.
func TestChecker_MissingSongbookFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		audioDir  = filepath.Join(dir, "audio")
		outputDir = filepath.Join(dir, "output")
		toolsDir  = writeMediaStubs(t, dir)
	)

	require.NoError(t, os.MkdirAll(audioDir, 0o755))

	cfgPath := writeFixtureSettings(t, dir, filepath.Join(dir, "absent.xlsx"), audioDir, outputDir, toolsDir)

	err := checker.Run(context.Background(), &checker.Options{ConfigPath: cfgPath})
	require.ErrorContains(t, err, "environment checks failed")
}
