// Package checker verifies that a machine is ready to run the mashup
// pipeline: settings, workbook, directories and the media tools.
package checker

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/media"
	"github.com/oshokin/mashup-tool/internal/repository/songbook"
	"github.com/oshokin/mashup-tool/internal/service/common"
)

// audioExtensions are the formats the sample probe recognizes.
//
//nolint:gochecknoglobals // Read-only lookup table.
var audioExtensions = map[string]struct{}{
	".wav":  {},
	".mp3":  {},
	".m4a":  {},
	".flac": {},
	".aac":  {},
	".ogg":  {},
	".wma":  {},
}

// Status classifies a preflight check outcome.
type Status int

// Check outcomes, from harmless to blocking.
const (
	StatusPass Status = iota
	StatusWarn
	StatusFail
)

// String returns the status label used in logs.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// CheckResult is one preflight finding.
type CheckResult struct {
	// Name identifies the check.
	Name string
	// Status is the outcome.
	Status Status
	// Detail explains the outcome.
	Detail string
}

// Service runs the preflight checks against one configuration.
type Service struct {
	cfg   *config.Config
	repo  songbook.Repository
	tools *media.Toolset
}

// NewService builds the check runner. tools may be nil, in which case the
// media binaries are resolved from the configuration on first use.
func NewService(cfg *config.Config, repo songbook.Repository, tools *media.Toolset) *Service {
	return &Service{cfg: cfg, repo: repo, tools: tools}
}

// Run executes every check and returns the findings in a fixed order.
func (s *Service) Run(ctx context.Context) []CheckResult {
	results := []CheckResult{
		s.checkSongbook(ctx),
		s.checkAudioDir(),
		s.checkOutputDir(),
	}

	results = append(results, s.checkMediaTools(ctx)...)
	results = append(results, s.checkRubberband(ctx), s.checkAudioSample(ctx), s.checkSegments())

	return results
}

// Summarize counts warnings and failures over a run's findings.
func Summarize(results []CheckResult) (warnings, failures int) {
	for _, result := range results {
		switch result.Status {
		case StatusWarn:
			warnings++
		case StatusFail:
			failures++
		case StatusPass:
		}
	}

	return warnings, failures
}

func (s *Service) checkSongbook(ctx context.Context) CheckResult {
	result := CheckResult{Name: "songbook"}

	if s.cfg.Songbook == "" {
		result.Status = StatusFail
		result.Detail = "no songbook configured"

		return result
	}

	songs, err := s.repo.ReadSongbook(ctx, s.cfg.Songbook)
	if err != nil {
		result.Status = StatusFail
		result.Detail = err.Error()

		return result
	}

	result.Detail = fmt.Sprintf("%s: %d songs", s.cfg.Songbook, len(songs))

	return result
}

func (s *Service) checkAudioDir() CheckResult {
	result := CheckResult{Name: "audio directory"}

	if s.cfg.AudioDir == "" {
		result.Status = StatusFail
		result.Detail = "no audio directory configured"

		return result
	}

	info, err := os.Stat(s.cfg.AudioDir)
	switch {
	case err != nil:
		result.Status = StatusFail
		result.Detail = err.Error()
	case !info.IsDir():
		result.Status = StatusFail
		result.Detail = s.cfg.AudioDir + " is not a directory"
	default:
		result.Detail = s.cfg.AudioDir
	}

	return result
}

// checkOutputDir proves writability with a scratch file rather than
// trusting permission bits.
func (s *Service) checkOutputDir() CheckResult {
	result := CheckResult{Name: "output directory"}

	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		result.Status = StatusFail
		result.Detail = err.Error()

		return result
	}

	probe, err := os.CreateTemp(s.cfg.OutputDir, "mashup-write-check-*")
	if err != nil {
		result.Status = StatusFail
		result.Detail = err.Error()

		return result
	}

	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	result.Detail = s.cfg.OutputDir

	return result
}

func (s *Service) checkMediaTools(ctx context.Context) []CheckResult {
	tools, err := s.toolset()
	if err != nil {
		return []CheckResult{{Name: "media tools", Status: StatusFail, Detail: err.Error()}}
	}

	return []CheckResult{
		s.checkToolVersion(ctx, tools, "ffmpeg", tools.FFmpeg),
		s.checkToolVersion(ctx, tools, "ffprobe", tools.FFprobe),
	}
}

func (s *Service) checkToolVersion(ctx context.Context, tools *media.Toolset, name, path string) CheckResult {
	result := CheckResult{Name: name}

	version, err := tools.Version(ctx, path)
	if err != nil {
		result.Status = StatusFail
		result.Detail = fmt.Sprintf("%s: %v", path, err)

		return result
	}

	result.Detail = fmt.Sprintf("%s %s (%s)", name, version, path)

	return result
}

func (s *Service) checkRubberband(ctx context.Context) CheckResult {
	result := CheckResult{Name: "rubberband"}

	tools, err := s.toolset()
	if err != nil {
		result.Status = StatusWarn
		result.Detail = "skipped, ffmpeg unavailable"

		return result
	}

	has, err := tools.HasRubberband(ctx)
	switch {
	case err != nil:
		result.Status = StatusWarn
		result.Detail = fmt.Sprintf("could not probe filters: %v", err)
	case !has:
		result.Status = StatusWarn
		result.Detail = "rubberband filter missing, pitch shifting falls back to resampling"
	default:
		result.Detail = "rubberband filter available"
	}

	return result
}

// checkAudioSample probes the first audio file under the audio directory,
// proving the tools can actually read the source material.
func (s *Service) checkAudioSample(ctx context.Context) CheckResult {
	result := CheckResult{Name: "audio sample"}

	sample, err := s.findAudioSample()
	if err != nil {
		result.Status = StatusWarn
		result.Detail = err.Error()

		return result
	}

	if sample == "" {
		result.Status = StatusWarn
		result.Detail = "no audio files under " + s.cfg.AudioDir

		return result
	}

	tools, err := s.toolset()
	if err != nil {
		result.Status = StatusWarn
		result.Detail = "skipped, ffprobe unavailable"

		return result
	}

	info, err := tools.Probe(ctx, sample)
	if err != nil {
		result.Status = StatusWarn
		result.Detail = fmt.Sprintf("%s: %v", sample, err)

		return result
	}

	result.Detail = fmt.Sprintf("%s: %s, %s, %d Hz",
		filepath.Base(sample), info.Codec, info.Duration.Round(time.Millisecond), info.SampleRate)

	return result
}

// findAudioSample returns the first audio file under the audio directory.
func (s *Service) findAudioSample() (string, error) {
	var sample string

	err := filepath.WalkDir(s.cfg.AudioDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if _, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		sample = path

		return fs.SkipAll
	})
	if err != nil {
		return "", err
	}

	return sample, nil
}

// checkSegments rejects suffixes the file lookup cannot round-trip.
func (s *Service) checkSegments() CheckResult {
	result := CheckResult{Name: "segments"}

	front, back := s.cfg.Segments.Front, s.cfg.Segments.Back

	switch {
	case front == "" || back == "":
		result.Status = StatusFail
		result.Detail = "segment suffixes must not be empty"
	case front == back:
		result.Status = StatusFail
		result.Detail = "front and back suffixes are identical"
	case common.SafeName(front) != front || common.SafeName(back) != back:
		result.Status = StatusFail
		result.Detail = "segment suffixes contain filesystem-unsafe characters"
	default:
		result.Detail = front + " / " + back
	}

	return result
}

func (s *Service) toolset() (*media.Toolset, error) {
	if s.tools == nil {
		tools, err := common.ResolveTools(s.cfg)
		if err != nil {
			return nil, err
		}

		s.tools = tools
	}

	return s.tools, nil
}
