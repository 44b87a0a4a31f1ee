package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/logger"
	"github.com/oshokin/mashup-tool/internal/service/classifier"
	"github.com/oshokin/mashup-tool/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// outputDir overrides the configured output directory.
	outputDir string

	// rootCmd represents the base command for grouping songs into mashup candidates.
	rootCmd = &cobra.Command{
		Use:   "mashup-classify [songbook]",
		Short: "Group compatible songs and write the groupbook.",
		Long: `Group compatible songs from the songbook.

Validates the song rows, then pairs each song with the later rows of the
same gender whose key and tempo fall inside the configured ranges. Every
group with at least two songs becomes one sheet of the groupbook written
under the output directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use songbook argument if provided, otherwise rely on config.
			var songbook string
			if len(args) > 0 {
				songbook = args[0]
			}

			options := &classifier.Options{
				ConfigPath: configPath,
				Songbook:   songbook,
				OutputDir:  outputDir,
			}

			return classifier.Run(ctx, options)
		},
	}
)

// Execute runs the mashup-classify CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory receiving the groupbook")
}
