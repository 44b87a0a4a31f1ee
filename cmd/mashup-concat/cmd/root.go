package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/logger"
	"github.com/oshokin/mashup-tool/internal/service/concat"
	"github.com/oshokin/mashup-tool/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// outputDir overrides the configured output directory.
	outputDir string

	// rootCmd represents the base command for joining staged segments into
	// finished tracks.
	rootCmd = &cobra.Command{
		Use:   "mashup-concat [groupbook]",
		Short: "Join aligned chorus segments into mashup tracks.",
		Long: `Join the aligned chorus segments into finished tracks.

Reads the groupbook sheets, pairs the songs two by two in sheet order and
joins each pair's front and back segments with a short gap into one MP3
named after the product column, or after both song names when the column
is empty.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use groupbook argument if provided, otherwise the one written
			// by classification under the output directory.
			var groupbook string
			if len(args) > 0 {
				groupbook = args[0]
			}

			options := &concat.Options{
				ConfigPath: configPath,
				Groupbook:  groupbook,
				OutputDir:  outputDir,
			}

			return concat.Run(ctx, options)
		},
	}
)

// Execute runs the mashup-concat CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory holding the stage and finished tracks")
}
