package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand attaches a `version` subcommand to the provided root command.
// It prints detailed build info.
func AttachCobraVersionCommand(root *cobra.Command) {
	// Subcommand: `version`.
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Long:  "Print the semantic version together with the commit hash and build timestamp embedded by the release build.",
		Run: func(cmd *cobra.Command, _ []string) {
			// Prefix with the binary name, the toolchain ships seven of them.
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cmd.Root().Name()+" "+Full())
		},
	})
}
