package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/viant/composer"
)

// VersionInfo holds build-time version information.
type VersionInfo struct {
	Commit string
	Date   string
}

func newVersionCommand(info VersionInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "composer\n")
			fmt.Fprintf(w, "  Version:    %s\n", composer.Version)
			fmt.Fprintf(w, "  Commit:     %s\n", info.Commit)
			fmt.Fprintf(w, "  Built:      %s\n", info.Date)
			fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
