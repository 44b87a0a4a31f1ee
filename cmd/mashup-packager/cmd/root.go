package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/mashup-tool/internal/logger"
	"github.com/oshokin/mashup-tool/internal/service/packager"
	"github.com/oshokin/mashup-tool/internal/version"
)

var (
	// noPause skips the pause for acknowledgment after a failure.
	noPause bool

	// rootCmd represents the base command packaging a release build.
	rootCmd = &cobra.Command{
		Use:   "mashup-packager [build-spec]",
		Short: "Package a release build described by the build spec.",
		Long: `Build the release artifact and publish its description.

Runs the packaging executable named in the build spec, verifies the
artifact exists and writes the release description with the artifact
checksums next to it. On failure the command waits for a key press so a
double-clicked console window stays readable; pass --no-pause in
scripts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use the build spec argument if provided, otherwise the
			// default filename in the working directory.
			var buildSpecPath string
			if len(args) > 0 {
				buildSpecPath = args[0]
			}

			options := &packager.Options{
				BuildSpecPath: buildSpecPath,
				NoPause:       noPause,
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the mashup-packager CLI and exits with non-zero status on error.
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
	rootCmd.Flags().BoolVar(&noPause, "no-pause", false, "do not wait for acknowledgment after a failure")
}
