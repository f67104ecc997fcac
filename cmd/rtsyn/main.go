package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtsyn-dev/rtsyn/cmd/rtsyn/commands"
	"github.com/rtsyn-dev/rtsyn/logger"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:   "rtsyn",
	Short: "RTSyn - real-time plugin-graph simulation host",
	Long: `RTSyn runs a user-defined graph of plugins on a fixed, deterministic
period, exposing live state to external viewers without blocking the
tick loop.

Available commands:
  daemon     - Start the engine's tick loop and viewer server
  workspace  - Manage saved workspace files
  plugin     - Manage the plugin catalog and workspace membership
  runtime    - Inspect and control live plugin instances
  connection - Edit port-to-port connections
  settings   - Edit tick-rate and core-pinning settings
  view       - Tail a plugin's published frames from a running daemon

Examples:
  rtsyn daemon run --workspace bench        # start the tick loop
  rtsyn workspace list                      # list saved workspaces
  rtsyn plugin add performance_monitor      # add a plugin instance
  rtsyn connection add 1 period_us 2 x shared_memory`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if cmd.Name() == "daemon" || (cmd.Parent() != nil && cmd.Parent().Name() == "daemon" && cmd.Name() == "run") {
			if err := logger.InitializeForSupervised(); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		}
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit structured JSON logs instead of human-readable console output")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv, -vvvv)")

	rootCmd.AddCommand(commands.DaemonCmd)
	rootCmd.AddCommand(commands.WorkspaceCmd)
	rootCmd.AddCommand(commands.PluginCmd)
	rootCmd.AddCommand(commands.RuntimeCmd)
	rootCmd.AddCommand(commands.ConnectionCmd)
	rootCmd.AddCommand(commands.SettingsCmd)
	rootCmd.AddCommand(commands.ViewCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
