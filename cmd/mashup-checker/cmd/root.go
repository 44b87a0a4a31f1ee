package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/logger"
	"github.com/oshokin/mashup-tool/internal/service/checker"
	"github.com/oshokin/mashup-tool/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// strict treats warnings as failures.
	strict bool

	// rootCmd represents the base command verifying the environment.
	rootCmd = &cobra.Command{
		Use:   "mashup-checker",
		Short: "Verify the environment before a mashup run.",
		Long: `Check everything a mashup run depends on and report the results.

Verifies the settings file, the songbook, the audio and output directories,
the ffmpeg and ffprobe binaries with their versions, the rubberband filter
and the segment naming. Any failed check makes the command exit non-zero;
--strict also promotes warnings to failures.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &checker.Options{
				ConfigPath: configPath,
				Strict:     strict,
			}

			return checker.Run(ctx, options)
		},
	}
)

// Execute runs the mashup-checker CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	logger.AttachCobraLevelFlag(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as failures")
}
