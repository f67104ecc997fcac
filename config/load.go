package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/rtsyn-dev/rtsyn/errors"
)

var (
	globalConfig  *DaemonConfig
	viperInstance *viper.Viper
)

// Load reads RTSyn's daemon configuration using Viper, caching the
// result for the process lifetime. Mirrors am.Load()'s
// load-once-globally pattern.
func Load() (*DaemonConfig, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var cfg DaemonConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal rtsyn config")
	}

	globalConfig = &cfg
	return globalConfig, nil
}

// Reset clears the cached configuration; used by tests that need a
// clean slate between runs with differing environments.
func Reset() {
	globalConfig = nil
	viperInstance = nil
}

// GetViper returns the shared Viper instance for callers that need
// advanced access (e.g. re-reading a single key).
func GetViper() *viper.Viper {
	return initViper()
}

func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()
	v.SetConfigType("json")

	v.SetEnvPrefix("RTSYN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	homeDir, _ := os.UserHomeDir()
	SetDefaults(v, homeDir)

	mergeConfigFiles(v, homeDir)

	viperInstance = v
	return v
}

// findProjectConfig walks up from the working directory looking for
// rtsyn.json, mirroring am.go's findProjectConfig upward search.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, "rtsyn.json")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// mergeConfigFiles layers config files in precedence order (lowest
// first): system < user < project < environment variables (applied
// automatically by viper.AutomaticEnv, already set up by the caller).
// Mirrors am.go's mergeConfigFiles, adapted to JSON.
func mergeConfigFiles(v *viper.Viper, homeDir string) {
	rtsynDir := filepath.Join(homeDir, ".rtsyn")
	os.MkdirAll(rtsynDir, DefaultDirPermissions)

	paths := []string{
		"/etc/rtsyn/config.json",
		filepath.Join(rtsynDir, "config.json"),
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, project)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			continue
		}
	}
}
