// Package commands implements the boot CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// BuildInfo is set by main from ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand builds the command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:   "boot",
		Short: "Boot and run frame-rendered applications",
		Long: `boot drives an application from load through asset preloading to its
frame loop. The CLI runs the bundled demo application on the headless host
and manages asset manifests.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCommand(),
		newManifestCommand(),
		newInitCommand(),
		newVersionCommand(info),
	)
	return root
}

func newVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "boot %s\n", info.Version)
			fmt.Fprintf(out, "commit: %s\n", info.Commit)
			fmt.Fprintf(out, "built: %s\n", info.Date)
		},
	}
}
