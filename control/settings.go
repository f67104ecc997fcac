package control

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rtsyn-dev/rtsyn/errors"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

const (
	runtimeDefaultsFile = "runtime_settings.defaults.json"
	runtimeFactoryFile  = "runtime_settings.factory.json"
)

// SettingsStore persists the two runtime-settings files spec.md §6
// names outside any single workspace: a factory baseline seeded once
// from workspace.DefaultSettings, and a user-editable defaults file
// applied to every newly created unsaved workspace. Grounded on
// original_source/rtsyn-core/src/workspace/manager.rs's
// load_or_create_runtime_settings/persist_runtime_settings_current_context/
// restore_runtime_settings_current_context trio.
type SettingsStore struct {
	dir          string
	defaultsPath string
	factoryPath  string
	defaults     workspace.Settings
	factory      workspace.Settings
}

// NewSettingsStore loads (or, on first run, creates) the factory and
// defaults files under dir.
func NewSettingsStore(dir string) (*SettingsStore, error) {
	s := &SettingsStore{
		dir:          dir,
		defaultsPath: filepath.Join(dir, runtimeDefaultsFile),
		factoryPath:  filepath.Join(dir, runtimeFactoryFile),
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create runtime settings directory")
	}

	builtin := workspace.DefaultSettings()
	factory, err := readSettingsFile(s.factoryPath)
	if err != nil {
		factory = builtin
		if werr := writeSettingsFile(s.factoryPath, factory); werr != nil {
			return nil, werr
		}
	}
	s.factory = factory

	defaults, err := readSettingsFile(s.defaultsPath)
	if err != nil {
		defaults = factory
		if werr := writeSettingsFile(s.defaultsPath, defaults); werr != nil {
			return nil, werr
		}
	}
	s.defaults = defaults

	return s, nil
}

func readSettingsFile(path string) (workspace.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return workspace.Settings{}, err
	}
	var s workspace.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return workspace.Settings{}, errors.Wrap(err, "parse runtime settings file")
	}
	return s, nil
}

func writeSettingsFile(path string, s workspace.Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode runtime settings")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write runtime settings file")
	}
	return nil
}

// Defaults returns the current defaults-file settings.
func (s *SettingsStore) Defaults() workspace.Settings {
	return s.defaults
}

// Factory returns the factory-file settings.
func (s *SettingsStore) Factory() workspace.Settings {
	return s.factory
}

// UpdateDefaults validates and persists settings as the new defaults
// file, adopting them in memory.
func (s *SettingsStore) UpdateDefaults(settings workspace.Settings) error {
	if _, err := settings.Resolve(); err != nil {
		return err
	}
	if err := writeSettingsFile(s.defaultsPath, settings); err != nil {
		return err
	}
	s.defaults = settings
	return nil
}

// ResetDefaultsToFactory overwrites the defaults file with the factory
// settings, adopting them in memory, and returns the restored value.
func (s *SettingsStore) ResetDefaultsToFactory() (workspace.Settings, error) {
	if err := writeSettingsFile(s.defaultsPath, s.factory); err != nil {
		return workspace.Settings{}, err
	}
	s.defaults = s.factory
	return s.factory, nil
}

// settingsOptions returns the legal unit/value ranges a RuntimeSettingsSet
// patch may use.
func settingsOptions() SettingsOptions {
	return SettingsOptions{
		FrequencyUnits: []string{"hz", "khz", "mhz"},
		PeriodUnits:    []string{"ns", "us", "ms", "s"},
		MinValue:       1.0,
	}
}
