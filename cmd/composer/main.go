package main

import (
	"fmt"
	"os"

	"github.com/viant/composer/internal/cli"
)

// Build-time version information, set via ldflags.
var (
	commit = "none"
	date   = "unknown"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{Commit: commit, Date: date})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
