package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at release-build time via -ldflags; left as "dev" for
// local builds, matching teranos-QNTX's internal/version pattern.
var Version = "dev"

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show rtsyn version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rtsyn %s\n", Version)
	},
}
