package commands

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rtsyn-dev/rtsyn/control"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

// RuntimeCmd groups spec.md §6's runtime-inspection and
// runtime-mutation requests. Because these read a running engine's
// latest published snapshot, a one-shot CLI invocation only ever sees
// the frame captured in the brief window between the command's engine
// construction and its Dispatch call; attach "rtsyn daemon run" for a
// continuously-updated view instead.
var RuntimeCmd = &cobra.Command{
	Use:   "runtime",
	Short: "Inspect and control live plugin instances",
}

func parsePluginID(raw string) (workspace.PluginID, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return workspace.PluginID(id), nil
}

var runtimeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every live plugin instance's id, kind, and running flag",
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.RuntimeList}))
		return nil
	},
}

var runtimeShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a plugin's full state: outputs and internal variables",
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
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.RuntimeShow, PluginID: id}))
		return nil
	},
}

var runtimeSetVarCmd = &cobra.Command{
	Use:   "set-variable <id> <key> <json-value>",
	Short: "Apply a config patch to a live plugin immediately",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, perr := parsePluginID(args[0])
		if perr != nil {
			return perr
		}
		var value interface{}
		if err := json.Unmarshal([]byte(args[2]), &value); err != nil {
			value = args[2]
		}
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		resp := dc.Dispatcher.Dispatch(control.Request{
			Kind:     control.RuntimeSetVariable,
			PluginID: id,
			JSON:     map[string]interface{}{args[1]: value},
		})
		if resp.Status == control.StatusOK && dc.Manager.Path != "" {
			_ = dc.Manager.SaveOverwriteCurrent()
		}
		printResponse(cmd, resp)
		return nil
	},
}

func runtimeToggleCmd(use, short string, kind control.RequestKind) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
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
			resp := dc.Dispatcher.Dispatch(control.Request{Kind: kind, PluginID: id})
			if resp.Status == control.StatusOK && dc.Manager.Path != "" {
				_ = dc.Manager.SaveOverwriteCurrent()
			}
			printResponse(cmd, resp)
			return nil
		},
	}
}

func init() {
	startCmd := runtimeToggleCmd("start <id>", "Start a plugin ticking", control.RuntimeStart)
	stopCmd := runtimeToggleCmd("stop <id>", "Stop a plugin ticking", control.RuntimeStop)
	restartCmd := runtimeToggleCmd("restart <id>", "Destroy and recreate a plugin instance in place", control.RuntimeRestart)

	for _, c := range []*cobra.Command{runtimeListCmd, runtimeShowCmd, runtimeSetVarCmd, startCmd, stopCmd, restartCmd} {
		addJSONFlag(c)
		addWorkspaceFlag(c)
		RuntimeCmd.AddCommand(c)
	}
}
