package commands

import (
	"github.com/spf13/cobra"

	"github.com/rtsyn-dev/rtsyn/control"
)

// WorkspaceCmd groups spec.md §6's workspace-lifecycle requests.
var WorkspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage saved workspaces",
	Long:  "List, load, create, save, rename, and delete RTSyn workspace files.",
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every workspace file in the configured workspace directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext("")
		if err != nil {
			return err
		}
		defer dc.Close()
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.WorkspaceList}))
		return nil
	},
}

var workspaceLoadCmd = &cobra.Command{
	Use:   "load <name>",
	Short: "Load a workspace and push it to a fresh engine for inspection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext("")
		if err != nil {
			return err
		}
		defer dc.Close()
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.WorkspaceLoad, Name: args[0]}))
		return nil
	},
}

var workspaceNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a brand-new empty workspace seeded from the runtime defaults",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		dc, err := newContext("")
		if err != nil {
			return err
		}
		defer dc.Close()
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.WorkspaceNew, Name: args[0], Description: description}))
		return nil
	},
}

var workspaceSaveCmd = &cobra.Command{
	Use:   "save [name]",
	Short: "Save the current workspace, optionally saving-as a new name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		current, _ := cmd.Flags().GetString("workspace")
		dc, err := newContext(current)
		if err != nil {
			return err
		}
		defer dc.Close()
		req := control.Request{Kind: control.WorkspaceSave}
		if len(args) == 1 {
			req.Name = args[0]
		}
		printResponse(cmd, dc.Dispatcher.Dispatch(req))
		return nil
	},
}

var workspaceEditCmd = &cobra.Command{
	Use:   "rename <current> <new-name>",
	Short: "Rename a workspace in place",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext(args[0])
		if err != nil {
			return err
		}
		defer dc.Close()
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.WorkspaceEdit, Name: args[1]}))
		return nil
	},
}

var workspaceDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a workspace file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext("")
		if err != nil {
			return err
		}
		defer dc.Close()
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.WorkspaceDelete, Name: args[0]}))
		return nil
	},
}

func init() {
	workspaceNewCmd.Flags().String("description", "", "Workspace description")
	workspaceSaveCmd.Flags().String("workspace", "", "Workspace to load before saving (defaults to the unsaved in-memory default)")

	for _, c := range []*cobra.Command{workspaceListCmd, workspaceLoadCmd, workspaceNewCmd, workspaceSaveCmd, workspaceEditCmd, workspaceDeleteCmd} {
		addJSONFlag(c)
		WorkspaceCmd.AddCommand(c)
	}
}
