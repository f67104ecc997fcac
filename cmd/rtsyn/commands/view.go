package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rtsyn-dev/rtsyn/control"
	"github.com/rtsyn-dev/rtsyn/errors"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

// ViewCmd is the viewer-subprocess boundary spec.md §6 describes: a
// standalone process that reads RTSYN_DAEMON_SOCKET and
// RTSYN_DAEMON_VIEW_PLUGIN_ID to connect back to a running daemon's
// ViewerServer and tail one plugin's published frames. The actual plot
// rendering is an out-of-scope GUI concern (spec.md §1); this prints
// each frame as a JSON line, the natural stand-in for a headless
// viewer or a GUI's data-feed subprocess.
var ViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Tail a live_plotter or csv_recorder plugin's published frames",
	Long: `Connects to a running "rtsyn daemon run" process's viewer server and
prints each RuntimePluginView frame as a JSON line until interrupted.
The socket address and plugin id are read from RTSYN_DAEMON_SOCKET and
RTSYN_DAEMON_VIEW_PLUGIN_ID unless overridden by flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		socket, _ := cmd.Flags().GetString("socket")
		if socket == "" {
			socket = os.Getenv("RTSYN_DAEMON_SOCKET")
		}
		if socket == "" {
			return errors.New("no viewer socket given: set --socket or RTSYN_DAEMON_SOCKET")
		}

		rawID, _ := cmd.Flags().GetString("plugin-id")
		if rawID == "" {
			rawID = os.Getenv("RTSYN_DAEMON_VIEW_PLUGIN_ID")
		}
		if rawID == "" {
			return errors.New("no plugin id given: set --plugin-id or RTSYN_DAEMON_VIEW_PLUGIN_ID")
		}
		id, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil {
			return errors.Wrap(err, "parse plugin id")
		}

		frames, closeConn, err := control.DialViewer(socket, workspace.PluginID(id))
		if err != nil {
			return errors.Wrap(err, "dial viewer server")
		}
		defer closeConn()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

		enc := json.NewEncoder(cmd.OutOrStdout())
		for {
			select {
			case frame, ok := <-frames:
				if !ok {
					return nil
				}
				if err := enc.Encode(frame); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			case <-sig:
				return nil
			}
		}
	},
}

func init() {
	ViewCmd.Flags().String("socket", "", "Viewer server address (overrides RTSYN_DAEMON_SOCKET)")
	ViewCmd.Flags().String("plugin-id", "", "Plugin id to view (overrides RTSYN_DAEMON_VIEW_PLUGIN_ID)")
}
