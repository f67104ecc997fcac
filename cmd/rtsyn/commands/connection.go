package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rtsyn-dev/rtsyn/control"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

// ConnectionCmd groups spec.md §6's connection-editing requests.
var ConnectionCmd = &cobra.Command{
	Use:   "connection",
	Short: "List and edit port-to-port connections in a workspace",
}

var connectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every connection in the workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.ConnectionList}))
		return nil
	},
}

var connectionShowCmd = &cobra.Command{
	Use:   "show <plugin-id>",
	Short: "List every connection touching a plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, perr := parsePluginID(args[0])
		if perr != nil {
			return perr
		}
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.ConnectionShow, PluginID: id}))
		return nil
	},
}

var connectionAddCmd = &cobra.Command{
	Use:   "add <from-plugin> <from-port> <to-plugin> <to-port> <kind>",
	Short: "Connect an output port to an input port",
	Long:  "kind is one of shared_memory, pipe, in_process; carried as a transport hint only (spec.md §3).",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, perr := parsePluginID(args[0])
		if perr != nil {
			return perr
		}
		to, perr := parsePluginID(args[2])
		if perr != nil {
			return perr
		}
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		resp := dc.Dispatcher.Dispatch(control.Request{
			Kind:       control.ConnectionAdd,
			FromPlugin: from,
			FromPort:   args[1],
			ToPlugin:   to,
			ToPort:     args[3],
			ConnKind:   workspace.ConnectionKind(args[4]),
		})
		if resp.Status == control.StatusOK && dc.Manager.Path != "" {
			_ = dc.Manager.SaveOverwriteCurrent()
		}
		printResponse(cmd, resp)
		return nil
	},
}

var connectionRemoveCmd = &cobra.Command{
	Use:   "remove <from-plugin> <from-port> <to-plugin> <to-port>",
	Short: "Remove the connection exactly matching the given endpoints",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, perr := parsePluginID(args[0])
		if perr != nil {
			return perr
		}
		to, perr := parsePluginID(args[2])
		if perr != nil {
			return perr
		}
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		resp := dc.Dispatcher.Dispatch(control.Request{
			Kind:       control.ConnectionRemove,
			FromPlugin: from,
			FromPort:   args[1],
			ToPlugin:   to,
			ToPort:     args[3],
		})
		if resp.Status == control.StatusOK && dc.Manager.Path != "" {
			_ = dc.Manager.SaveOverwriteCurrent()
		}
		printResponse(cmd, resp)
		return nil
	},
}

var connectionRemoveIndexCmd = &cobra.Command{
	Use:   "remove-index <index>",
	Short: "Remove the connection at the given position in the connection list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, perr := strconv.Atoi(args[0])
		if perr != nil {
			return perr
		}
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		resp := dc.Dispatcher.Dispatch(control.Request{Kind: control.ConnectionRemoveIndex, Index: idx})
		if resp.Status == control.StatusOK && dc.Manager.Path != "" {
			_ = dc.Manager.SaveOverwriteCurrent()
		}
		printResponse(cmd, resp)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{connectionListCmd, connectionShowCmd, connectionAddCmd, connectionRemoveCmd, connectionRemoveIndexCmd} {
		addJSONFlag(c)
		addWorkspaceFlag(c)
		ConnectionCmd.AddCommand(c)
	}
}
