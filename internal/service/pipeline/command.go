package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/logger"
	"github.com/oshokin/mashup-tool/internal/media"
	"github.com/oshokin/mashup-tool/internal/progress"
	"github.com/oshokin/mashup-tool/internal/repository/songbook"
	"github.com/oshokin/mashup-tool/internal/service/common"
	"github.com/oshokin/mashup-tool/internal/tui"
)

// Options are the command line inputs for the full pipeline run.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// Songbook overrides the configured songbook path.
	Songbook string
	// AudioDir overrides the configured audio directory.
	AudioDir string
	// OutputDir overrides the configured output directory.
	OutputDir string
	// Plain disables the interactive view and logs progress instead.
	Plain bool
}

// Run executes classify, align and concat behind one command, rendering
// progress interactively on a terminal and through the logger otherwise.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "mashup-run")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if opts.Songbook != "" {
		cfg.Songbook = opts.Songbook
	}

	if opts.AudioDir != "" {
		cfg.AudioDir = opts.AudioDir
	}

	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}

	if err = config.Validate(cfg); err != nil {
		return fmt.Errorf("validate configuration: %w", err)
	}

	tools, err := common.ResolveTools(cfg)
	if err != nil {
		return err
	}

	var result *Result

	if opts.Plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		result, err = runPlain(ctx, cfg, tools)
	} else {
		result, err = runInteractive(ctx, cfg, tools)
	}

	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Mashup run finished",
		"groups", result.Groups,
		"groupbook", result.GroupbookPath,
		"aligned", fmt.Sprintf("%d/%d", result.Aligned, result.AlignTotal),
		"joined", fmt.Sprintf("%d/%d", result.Joined, result.JoinTotal),
		"tracks", filepath.Join(cfg.OutputDir, "*.mp3"))

	return nil
}

func runPlain(ctx context.Context, cfg *config.Config, tools *media.Toolset) (*Result, error) {
	reporter := progress.Func(func(e progress.Event) {
		logger.Infof(ctx, "[%s] %d/%d: %s", e.Step, e.Current, e.Total, e.Message)
	})

	return NewService(cfg, songbook.NewFileRepository(), tools, reporter).Run(ctx)
}

func runInteractive(ctx context.Context, cfg *config.Config, tools *media.Toolset) (*Result, error) {
	// The view owns the terminal, keep routine log output off it. The quiet
	// logger is scoped to the run context, the closing summary still logs
	// at the configured level.
	quiet := logger.FromContext(ctx).Desugar().WithOptions(logger.WithLevel(zapcore.ErrorLevel)).Sugar()
	ctx = logger.ToContext(ctx, quiet)

	var result *Result

	err := tui.Run(ctx, "Mashup run", func(runCtx context.Context, reporter progress.Reporter) error {
		var runErr error

		result, runErr = NewService(cfg, songbook.NewFileRepository(), tools, reporter).Run(runCtx)

		return runErr
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
