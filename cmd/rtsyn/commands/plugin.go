package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rtsyn-dev/rtsyn/control"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

// PluginCmd groups spec.md §6's plugin-catalog and workspace-membership
// requests.
var PluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Manage the plugin catalog and a workspace's plugin membership",
}

var pluginListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every built-in kind and installed external library",
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.PluginList}))
		return nil
	},
}

var pluginInstallCmd = &cobra.Command{
	Use:   "install <source>",
	Short: "Fetch an external plugin library into the plugin directory",
	Long:  "source is a go-getter address: a local path, file://, git::, or http(s):// URL.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.PluginInstall, AbsolutePath: args[0]}))
		return nil
	},
}

var pluginUninstallCmd = &cobra.Command{
	Use:   "uninstall <kind>",
	Short: "Remove an installed library and drop its instances from the workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.PluginUninstall, Name: args[0]}))
		return nil
	},
}

var pluginAddCmd = &cobra.Command{
	Use:   "add <kind>",
	Short: "Add a plugin instance of kind to the current workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := workspaceFlag(cmd)
		dc, err := newContext(ws)
		if err != nil {
			return err
		}
		defer dc.Close()
		resp := dc.Dispatcher.Dispatch(control.Request{Kind: control.PluginAdd, Name: args[0]})
		if resp.Status == control.StatusPayload && dc.Manager.Path != "" {
			if err := dc.Manager.SaveOverwriteCurrent(); err != nil {
				return err
			}
		}
		printResponse(cmd, resp)
		return nil
	},
}

var pluginRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a plugin instance from the current workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, perr := strconv.ParseUint(args[0], 10, 64)
		if perr != nil {
			return perr
		}
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		resp := dc.Dispatcher.Dispatch(control.Request{Kind: control.PluginRemove, PluginID: workspace.PluginID(id)})
		if resp.Status == control.StatusOK && dc.Manager.Path != "" {
			_ = dc.Manager.SaveOverwriteCurrent()
		}
		printResponse(cmd, resp)
		return nil
	},
}

func workspaceFlag(cmd *cobra.Command) string {
	ws, _ := cmd.Flags().GetString("workspace")
	return ws
}

func addWorkspaceFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("workspace", "w", "", "Workspace name to operate on (defaults to the unsaved in-memory default)")
}

func init() {
	for _, c := range []*cobra.Command{pluginListCmd, pluginInstallCmd, pluginUninstallCmd, pluginAddCmd, pluginRemoveCmd} {
		addJSONFlag(c)
		addWorkspaceFlag(c)
		PluginCmd.AddCommand(c)
	}
}
