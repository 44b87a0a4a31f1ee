package classifier

import (
	"context"
	"fmt"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/logger"
	"github.com/oshokin/mashup-tool/internal/progress"
	"github.com/oshokin/mashup-tool/internal/repository/songbook"
)

// Options controls the classification run and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Songbook provides an optional songbook path override.
	Songbook string
	// OutputDir provides an optional output directory override.
	OutputDir string
}

// Run classifies the songbook into mashup groups and writes the groupbook.
// Loads configuration first, command line overrides win over the file.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "mashup-classify")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if opts.Songbook != "" {
		cfg.Songbook = opts.Songbook
	}

	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}

	if err = config.Validate(cfg); err != nil {
		return err
	}

	reporter := progress.Func(func(e progress.Event) {
		logger.Debugf(ctx, "%s %d/%d: %s", e.Step, e.Current, e.Total, e.Message)
	})

	svc := NewService(cfg, songbook.NewFileRepository(), reporter)

	result, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Classification finished",
		"songs", result.Songs,
		"groups", result.Groups,
		"groupbook", result.GroupbookPath)

	return nil
}
