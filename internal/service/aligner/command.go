package aligner

import (
	"context"
	"fmt"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/logger"
	"github.com/oshokin/mashup-tool/internal/progress"
	"github.com/oshokin/mashup-tool/internal/repository/songbook"
	"github.com/oshokin/mashup-tool/internal/service/classifier"
	"github.com/oshokin/mashup-tool/internal/service/common"
)

// Options controls the alignment run and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Groupbook provides an optional groupbook path override. When empty the
	// groupbook written by classification under the output directory is used.
	Groupbook string
	// AudioDir provides an optional audio directory override.
	AudioDir string
	// OutputDir provides an optional output directory override.
	OutputDir string
}

// Run aligns every group member to its anchor into the stage directory.
// Loads configuration first, command line overrides win over the file.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "mashup-align")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if opts.AudioDir != "" {
		cfg.AudioDir = opts.AudioDir
	}

	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}

	if err = config.Validate(cfg); err != nil {
		return err
	}

	groupbook := opts.Groupbook
	if groupbook == "" {
		groupbook = classifier.GroupbookPath(cfg.Songbook, cfg.OutputDir)
	}

	tools, err := common.ResolveTools(cfg)
	if err != nil {
		return err
	}

	reporter := progress.Func(func(e progress.Event) {
		logger.Debugf(ctx, "%s %d/%d: %s", e.Step, e.Current, e.Total, e.Message)
	})

	svc := NewService(cfg, songbook.NewFileRepository(), tools, reporter)

	result, err := svc.Run(ctx, groupbook)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Alignment finished",
		"succeeded", result.Succeeded,
		"total", result.Total,
		"stage_dir", result.StageDir)

	return nil
}
