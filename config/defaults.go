package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

// SetDefaults installs RTSyn's factory defaults onto v, mirroring
// am.go's SetDefaults: every field gets a value even if no config file
// or environment variable overrides it.
func SetDefaults(v *viper.Viper, homeDir string) {
	rtsynDir := filepath.Join(homeDir, ".rtsyn")

	v.SetDefault("workspace_dir", filepath.Join(rtsynDir, "workspaces"))
	v.SetDefault("plugin_dir", filepath.Join(rtsynDir, "plugins"))
	v.SetDefault("runtime_settings_dir", rtsynDir)
	v.SetDefault("log_theme", "everforest")
	v.SetDefault("default_selected_cores", []int{0})
	v.SetDefault("viewer_listen_addr", "127.0.0.1:8977")
}
