package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/logger"
	"github.com/oshokin/mashup-tool/internal/service/aligner"
	"github.com/oshokin/mashup-tool/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// audioDir overrides the configured audio directory.
	audioDir string
	// outputDir overrides the configured output directory.
	outputDir string

	// rootCmd represents the base command for rendering group members onto
	// their anchor's key and tempo.
	rootCmd = &cobra.Command{
		Use:   "mashup-align [groupbook]",
		Short: "Align grouped songs to their anchors into the stage directory.",
		Long: `Render every grouped song onto its anchor's key and tempo.

Reads the groupbook sheets, finds each song's source audio in the audio
directory and renders key- and tempo-matched copies into the stage
directory under the output directory. A song that fails to render is
logged and skipped so one broken file does not stop the batch.`,
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

			options := &aligner.Options{
				ConfigPath: configPath,
				Groupbook:  groupbook,
				AudioDir:   audioDir,
				OutputDir:  outputDir,
			}

			return aligner.Run(ctx, options)
		},
	}
)

// Execute runs the mashup-align CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&audioDir, "audio-dir", "a", "", "directory scanned for source audio")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory holding the groupbook and stage")
}
