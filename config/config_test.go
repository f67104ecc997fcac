package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v, "/home/tester")

	var cfg DaemonConfig
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, filepath.Join("/home/tester", ".rtsyn", "workspaces"), cfg.WorkspaceDir)
	assert.Equal(t, filepath.Join("/home/tester", ".rtsyn", "plugins"), cfg.PluginDir)
	assert.Equal(t, "everforest", cfg.LogTheme)
	assert.Equal(t, []int{0}, cfg.DefaultSelectedCores)
	assert.Equal(t, "127.0.0.1:8977", cfg.ViewerListenAddr)
}

func TestLoad_CachesGlobalConfig(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	first, err := Load()
	require.NoError(t, err)

	second, err := Load()
	require.NoError(t, err)

	assert.Same(t, first, second)
}
