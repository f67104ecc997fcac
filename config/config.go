// Package config loads the daemon-wide configuration layer: where
// workspaces and plugin libraries live, the CLI's color theme, the
// default core-pinning set for a brand-new workspace, and the viewer
// subprocess listen address. Grounded on teranos-QNTX's am/am.go
// mapstructure-tagged Config shape, adapted from QNTX's database/auth/
// pulse domain sections to RTSyn's daemon-scoped settings.
package config

// DaemonConfig is the root configuration object, loaded once per
// process via Load.
type DaemonConfig struct {
	WorkspaceDir         string `mapstructure:"workspace_dir"`
	PluginDir            string `mapstructure:"plugin_dir"`
	LogTheme             string `mapstructure:"log_theme"`
	DefaultSelectedCores []int  `mapstructure:"default_selected_cores"`
	ViewerListenAddr     string `mapstructure:"viewer_listen_addr"`
	RuntimeSettingsDir   string `mapstructure:"runtime_settings_dir"`
}

// DefaultDirPermissions mirrors am.go's directory creation mode for the
// user config/data directories this package creates on demand.
const DefaultDirPermissions = 0o755
