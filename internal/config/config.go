package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the mashup binaries.
type Config struct {
	// Songbook is the path to the source songbook workbook (xlsx).
	Songbook string `yaml:"songbook"`
	// AudioDir is the directory scanned recursively for source audio files.
	AudioDir string `yaml:"audio_dir"`
	// OutputDir is the directory receiving groupbooks, aligned stems and mashups.
	OutputDir string `yaml:"output_dir"`
	// KeyRange is the maximum circular key distance for two songs to match.
	KeyRange int `yaml:"key_range"`
	// BPMRange is the maximum BPM difference for two songs to match.
	BPMRange float64 `yaml:"bpm_range"`
	// GapSeconds is the silence inserted before, between and after mashup segments.
	GapSeconds float64 `yaml:"gap_seconds"`
	// Workers caps concurrent media tool invocations. Zero means the CPU count.
	Workers int `yaml:"workers"`
	// SampleRate is the working sample rate for alignment and generated silence.
	SampleRate int `yaml:"sample_rate"`
	// ToolTimeout bounds a single media tool invocation.
	ToolTimeout time.Duration `yaml:"tool_timeout"`
	// Tools configures where the external media binaries are found.
	Tools ToolsConfig `yaml:"tools"`
	// Segments configures the chorus segment filename suffixes.
	Segments SegmentsConfig `yaml:"segments"`
}

// ToolsConfig locates the external media binaries.
type ToolsConfig struct {
	// Dir is the local directory checked for tools before falling back to PATH.
	Dir string `yaml:"dir"`
	// FFmpeg is an explicit name or path for the ffmpeg binary.
	FFmpeg string `yaml:"ffmpeg"`
	// FFprobe is an explicit name or path for the ffprobe binary.
	FFprobe string `yaml:"ffprobe"`
}

// SegmentsConfig names the per-song chorus segment files.
// A segment file for song 10001 with Front "front-chorus" is "10001-front-chorus.<ext>".
type SegmentsConfig struct {
	// Front is the filename suffix of the leading chorus segment.
	Front string `yaml:"front"`
	// Back is the filename suffix of the trailing chorus segment.
	Back string `yaml:"back"`
}

const (
	// DefaultConfigFilename is the default filename for mashup settings.
	DefaultConfigFilename = "mashup-settings.yaml"

	// DefaultOutputDir is used when no output directory is configured.
	DefaultOutputDir = "output"

	// StageDirName is the working directory the aligner renders into and the
	// concat step reads from, kept under the output directory.
	StageDirName = ".mashup-stage"

	// DefaultKeyRange is the default maximum circular key distance.
	DefaultKeyRange = 2
	// MaxKeyRange is the largest meaningful circular key distance (half an octave).
	MaxKeyRange = 6

	// DefaultBPMRange is the default maximum BPM difference.
	DefaultBPMRange = 5.0
	// MaxBPMRange is the largest accepted BPM difference.
	MaxBPMRange = 20.0

	// DefaultGapSeconds is the default silence duration around segments.
	DefaultGapSeconds = 1.0
	// MaxGapSeconds is the largest accepted silence duration.
	MaxGapSeconds = 5.0

	// DefaultSampleRate is the working sample rate when none is configured.
	DefaultSampleRate = 44100

	// DefaultToolTimeout is the default bound on one media tool invocation.
	DefaultToolTimeout = 10 * time.Minute

	// DefaultToolsDir is the default local directory for media tools.
	DefaultToolsDir = "tools"

	// DefaultFrontSegment is the default leading chorus filename suffix.
	DefaultFrontSegment = "front-chorus"
	// DefaultBackSegment is the default trailing chorus filename suffix.
	DefaultBackSegment = "back-chorus"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errSongbookRequired is returned when the songbook path is missing.
	errSongbookRequired = errors.New("songbook path must be provided")
	// errWorkersNegative is returned for a negative worker count.
	errWorkersNegative = errors.New("workers must not be negative")
)

// Default returns a configuration with every optional field at its default.
// Songbook stays empty and must be provided by the settings file or flags.
func Default() *Config {
	return &Config{
		AudioDir:    ".",
		OutputDir:   DefaultOutputDir,
		KeyRange:    DefaultKeyRange,
		BPMRange:    DefaultBPMRange,
		GapSeconds:  DefaultGapSeconds,
		SampleRate:  DefaultSampleRate,
		ToolTimeout: DefaultToolTimeout,
		Tools: ToolsConfig{
			Dir: DefaultToolsDir,
		},
		Segments: SegmentsConfig{
			Front: DefaultFrontSegment,
			Back:  DefaultBackSegment,
		},
	}
}

// Load reads configuration from the provided path and validates essential fields.
// Fields absent from the file keep their defaults; explicit zero values
// (key_range: 0, gap_seconds: 0) are respected.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault reads configuration like Load, but an absent settings file
// yields the defaults and no songbook is required. A machine being
// provisioned may not have any settings yet.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if cfg.Tools.Dir == "" {
		cfg.Tools.Dir = DefaultToolsDir
	}

	return cfg, nil
}

// Save writes the settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields,
// fills structural defaults and rejects out-of-range matching parameters.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Songbook == "" {
		return errSongbookRequired
	}

	if cfg.AudioDir == "" {
		cfg.AudioDir = "."
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	if cfg.KeyRange < 0 || cfg.KeyRange > MaxKeyRange {
		return fmt.Errorf("key range %d is outside 0..%d", cfg.KeyRange, MaxKeyRange)
	}

	if cfg.BPMRange < 0 || cfg.BPMRange > MaxBPMRange {
		return fmt.Errorf("BPM range %.1f is outside 0..%.0f", cfg.BPMRange, MaxBPMRange)
	}

	if cfg.GapSeconds < 0 || cfg.GapSeconds > MaxGapSeconds {
		return fmt.Errorf("gap %.2fs is outside 0..%.0fs", cfg.GapSeconds, MaxGapSeconds)
	}

	if cfg.Workers < 0 {
		return errWorkersNegative
	}

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}

	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = DefaultToolTimeout
	}

	if cfg.Tools.Dir == "" {
		cfg.Tools.Dir = DefaultToolsDir
	}

	if cfg.Segments.Front == "" {
		cfg.Segments.Front = DefaultFrontSegment
	}

	if cfg.Segments.Back == "" {
		cfg.Segments.Back = DefaultBackSegment
	}

	return nil
}
