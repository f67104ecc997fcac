package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rtsyn-dev/rtsyn/control"
	"github.com/rtsyn-dev/rtsyn/logger"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

// DaemonCmd groups the long-running process lifecycle: "daemon run" is
// the only subcommand that keeps the engine's tick loop and the
// viewer/control surfaces alive past a single request, matching
// spec.md §4.D's engine-thread ownership model.
var DaemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the RTSyn runtime daemon, or show how to stop it",
}

var daemonRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the tick loop, viewer server, and workspace directory watcher",
	Long: `Loads the named workspace (or the unsaved default if none is given or
found), starts the fixed-period engine over it, serves viewer
websocket connections per spec.md §6's RTSYN_DAEMON_SOCKET contract,
and watches the workspace directory for externally written files
until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()

		watcher, err := workspace.NewDirWatcher(dc.Manager)
		if err != nil {
			logger.Warnw("workspace directory watcher unavailable", "error", err)
		} else {
			watcher.OnReload(func(entries []workspace.Entry) {
				if dc.Manager.Path == "" {
					return
				}
				for _, e := range entries {
					if e.Path == dc.Manager.Path {
						dc.Dispatcher.Dispatch(control.Request{Kind: control.DaemonReload})
						return
					}
				}
			})
			watcher.Start()
			defer watcher.Stop()
		}

		viewer := control.NewViewerServer(dc.Dispatcher, 0)
		go func() {
			if err := viewer.ListenAndServe(dc.Config.ViewerListenAddr); err != nil {
				logger.Errorw("viewer server stopped", "error", err)
			}
		}()

		pterm.Success.Printf("rtsyn daemon running: workspace=%q period=%g%s viewer=%s\n",
			dc.Manager.Workspace.Name, dc.Manager.Workspace.Settings.PeriodValue,
			dc.Manager.Workspace.Settings.PeriodUnit, dc.Config.ViewerListenAddr)

		if verbosity, _ := cmd.Flags().GetCount("verbose"); logger.ShouldShowStartupDetail(verbosity) {
			pterm.Info.Printf("plugins=%d connections=%d cores=%v max_integration_steps=%d\n",
				len(dc.Manager.Workspace.Plugins), len(dc.Manager.Workspace.Connections),
				dc.Manager.Workspace.Settings.SelectedCores, dc.Manager.Workspace.Settings.MaxIntegrationSteps)
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		pterm.Info.Println("rtsyn daemon shutting down")
		return nil
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Print how to stop a running daemon",
	Long:  "Without a wire transport (spec.md §6's IPC boundary is out of scope), this command sends nothing to a running daemon; it prints a reminder that \"daemon run\" stops on SIGINT or SIGTERM.",
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.Info.Println("send SIGINT or SIGTERM to the running daemon process to stop it")
		return nil
	},
}

func init() {
	addWorkspaceFlag(daemonRunCmd)
	DaemonCmd.AddCommand(daemonRunCmd)
	DaemonCmd.AddCommand(daemonStopCmd)
}
