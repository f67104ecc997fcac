package commands

import (
	"github.com/spf13/cobra"

	"github.com/rtsyn-dev/rtsyn/control"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

// SettingsCmd groups spec.md §6's runtime-settings requests: the tick
// frequency/period pair, core pinning, and the factory/defaults file
// pair described in spec.md §6.
var SettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and edit the workspace's tick-rate and core-pinning settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current workspace's runtime settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.RuntimeSettingsShow}))
		return nil
	},
}

var settingsOptionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Show the legal unit/value ranges a settings patch may use",
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.RuntimeSettingsOptions}))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Patch the workspace's frequency/period and core-pinning settings",
	Long:  "Provide either --frequency-value/--frequency-unit or --period-value/--period-unit, not both.",
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := workspace.Patch{}
		if cmd.Flags().Changed("frequency-value") {
			v, _ := cmd.Flags().GetFloat64("frequency-value")
			patch.FrequencyValue = &v
		}
		if cmd.Flags().Changed("frequency-unit") {
			v, _ := cmd.Flags().GetString("frequency-unit")
			patch.FrequencyUnit = &v
		}
		if cmd.Flags().Changed("period-value") {
			v, _ := cmd.Flags().GetFloat64("period-value")
			patch.PeriodValue = &v
		}
		if cmd.Flags().Changed("period-unit") {
			v, _ := cmd.Flags().GetString("period-unit")
			patch.PeriodUnit = &v
		}
		if cores, _ := cmd.Flags().GetIntSlice("cores"); len(cores) > 0 {
			patch.SelectedCores = cores
		}

		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		resp := dc.Dispatcher.Dispatch(control.Request{Kind: control.RuntimeSettingsSet, SettingsPatch: patch})
		if resp.Status == control.StatusPayload && dc.Manager.Path != "" {
			_ = dc.Manager.SaveOverwriteCurrent()
		}
		printResponse(cmd, resp)
		return nil
	},
}

var settingsSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Persist the current settings to the defaults or workspace file",
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.RuntimeSettingsSave}))
		return nil
	},
}

var settingsRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Reset the shared defaults to the factory baseline",
	RunE: func(cmd *cobra.Command, args []string) error {
		dc, err := newContext(workspaceFlag(cmd))
		if err != nil {
			return err
		}
		defer dc.Close()
		printResponse(cmd, dc.Dispatcher.Dispatch(control.Request{Kind: control.RuntimeSettingsRestore}))
		return nil
	},
}

func init() {
	settingsSetCmd.Flags().Float64("frequency-value", 0, "Tick frequency value")
	settingsSetCmd.Flags().String("frequency-unit", "", "hz, khz, or mhz")
	settingsSetCmd.Flags().Float64("period-value", 0, "Tick period value")
	settingsSetCmd.Flags().String("period-unit", "", "ns, us, ms, or s")
	settingsSetCmd.Flags().IntSlice("cores", nil, "CPU core indices to pin the tick thread to")

	for _, c := range []*cobra.Command{settingsShowCmd, settingsOptionsCmd, settingsSetCmd, settingsSaveCmd, settingsRestoreCmd} {
		addJSONFlag(c)
		addWorkspaceFlag(c)
		SettingsCmd.AddCommand(c)
	}
}
