package main

import (
	"os"

	"github.com/agiangrant/boot/cmd/boot/commands"
)

// Build information set via ldflags
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	root := commands.NewRootCommand(commands.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    buildDate,
	})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
