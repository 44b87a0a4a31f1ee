package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/mashup-tool/internal/config"
	"github.com/oshokin/mashup-tool/internal/logger"
	"github.com/oshokin/mashup-tool/internal/service/provision"
	"github.com/oshokin/mashup-tool/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// manifestPath stores the path to the tools manifest.
	manifestPath string

	// rootCmd represents the base command installing the media tools.
	rootCmd = &cobra.Command{
		Use:   "mashup-provision [tools...]",
		Short: "Download and install the media tools.",
		Long: `Install the external media tools the mashup pipeline runs.

Downloads every tool named in the manifest (or only the tools given as
arguments) into the configured tools directory, verifying each payload
against the manifest checksum. Tools whose installed checksum already
matches are left alone, so the command is safe to re-run.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &provision.Options{
				ConfigPath:   configPath,
				ManifestPath: manifestPath,
				Tools:        args,
			}

			return provision.Run(ctx, options)
		},
	}
)

// Execute runs the mashup-provision CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&manifestPath, "manifest", "m", provision.ManifestFilename, "path to the tools manifest")
}
