package checker

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/logger"
	"github.com/oshokin/mashup-tool/internal/repository/songbook"
)

// Options controls the preflight run.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Strict treats warnings as failures.
	Strict bool
}

// errChecksFailed is the terminal error when any check fails.
var errChecksFailed = errors.New("environment checks failed")

// Run loads the configuration, executes every preflight check and fails
// when any of them does.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "mashup-checker")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		logger.ErrorKV(ctx, "Check failed", "check", "configuration", "detail", err.Error())
		return fmt.Errorf("load configuration: %w", err)
	}

	if err = config.Validate(cfg); err != nil {
		logger.ErrorKV(ctx, "Check failed", "check", "configuration", "detail", err.Error())
		return fmt.Errorf("validate configuration: %w", err)
	}

	logger.InfoKV(ctx, "Check passed", "check", "configuration", "detail", "settings are valid")

	results := NewService(cfg, songbook.NewFileRepository(), nil).Run(ctx)

	for _, result := range results {
		switch result.Status {
		case StatusPass:
			logger.InfoKV(ctx, "Check passed", "check", result.Name, "detail", result.Detail)
		case StatusWarn:
			logger.WarnKV(ctx, "Check warning", "check", result.Name, "detail", result.Detail)
		case StatusFail:
			logger.ErrorKV(ctx, "Check failed", "check", result.Name, "detail", result.Detail)
		}
	}

	warnings, failures := Summarize(results)
	if opts.Strict {
		failures += warnings
	}

	if failures > 0 {
		return fmt.Errorf("%w: %d of %d", errChecksFailed, failures, len(results))
	}

	logger.InfoKV(ctx, "Environment ready", "checks", len(results), "warnings", warnings)

	return nil
}
