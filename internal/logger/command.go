package logger

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraLevelFlag attaches a persistent `--log-level` flag to the
// provided root command. The level is applied before any subcommand runs.
func AttachCobraLevelFlag(root *cobra.Command) {
	var level string

	root.PersistentFlags().StringVar(&level, "log-level", "", "log level: debug, info, warn, error or fatal")

	previous := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if level != "" {
			parsed, ok := ParseLogLevel(level)
			if !ok {
				return fmt.Errorf("unknown log level %q", level)
			}

			SetLevel(parsed)
		}

		if previous != nil {
			return previous(cmd, args)
		}

		return nil
	}
}
