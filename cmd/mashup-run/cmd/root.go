package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/logger"
	"github.com/oshokin/mashup-tool/internal/service/pipeline"
	"github.com/oshokin/mashup-tool/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// songbook overrides the configured songbook path.
	songbook string
	// audioDir overrides the configured audio directory.
	audioDir string
	// outputDir overrides the configured output directory.
	outputDir string
	// plain disables the interactive progress view.
	plain bool

	// rootCmd represents the base command running the whole mashup pipeline.
	rootCmd = &cobra.Command{
		Use:   "mashup-run",
		Short: "Classify, align and join songs into mashups.",
		Long: `Run the full mashup pipeline in one pass.

Reads the songbook, groups compatible songs by gender, key and tempo,
renders every group member onto its anchor's key and tempo, and joins the
aligned chorus segments into finished tracks under the output directory.

On a terminal the run shows an interactive progress view; q stops the run
after the current tasks finish. Use --plain (or redirect output) to log
progress line by line instead.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &pipeline.Options{
				ConfigPath: configPath,
				Songbook:   songbook,
				AudioDir:   audioDir,
				OutputDir:  outputDir,
				Plain:      plain,
			}

			return pipeline.Run(ctx, options)
		},
	}
)

// Execute runs the mashup-run CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&songbook, "songbook", "s", "", "path to the songbook workbook")
	rootCmd.Flags().StringVarP(&audioDir, "audio-dir", "a", "", "directory scanned for source audio")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory receiving groupbooks and mashups")
	rootCmd.Flags().BoolVar(&plain, "plain", false, "log progress instead of the interactive view")
}
