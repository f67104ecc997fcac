package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rtsyn-dev/rtsyn/errors"
)

// Entry summarizes one workspace file for listing purposes, without
// holding the full definition in memory.
type Entry struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PluginCount int      `json:"plugins"`
	PluginKinds []string `json:"plugin_kinds"`
	Path        string   `json:"path"`
}

// Manager owns the on-disk workspace directory: the currently loaded
// Definition, its file path, a dirty flag, and the cached directory
// listing. Grounded on original_source/rtsyn-core/src/workspace.rs's
// WorkspaceManager; single-goroutine owned by the control package, same
// as the engine owns the Cache, so it carries no internal locking.
type Manager struct {
	Workspace Definition
	Path      string
	Dirty     bool

	entries []Entry
	dir     string
}

// NewManager constructs a Manager rooted at dir with an empty, unsaved
// "default" workspace loaded. Does not touch the filesystem.
func NewManager(dir string) *Manager {
	return &Manager{
		Workspace: EmptyWorkspace("default"),
		Dirty:     true,
		dir:       dir,
	}
}

// Dir returns the workspace directory root.
func (m *Manager) Dir() string {
	return m.dir
}

// EmptyWorkspace builds the factory-default workspace definition: no
// plugins or connections, target_hz at the nominal 1000 (Settings.Resolve
// does not read it; the engine's period comes from Settings), default
// Settings.
func EmptyWorkspace(name string) Definition {
	return Definition{
		Name:     name,
		TargetHz: 1000,
		Settings: DefaultSettings(),
	}
}

// filePathFor returns the on-disk path a workspace named name would be
// saved to: spaces replaced with underscores, trimmed, ".json"
// appended. Mirrors workspace.rs's workspace_file_path_for.
func (m *Manager) filePathFor(name string) string {
	safe := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	return filepath.Join(m.dir, safe+".json")
}

// Scan rebuilds the cached directory listing by reading every *.json
// file under dir and parsing just enough to summarize it. Files that
// fail to parse are silently skipped (mirrors workspace.rs's
// scan_workspace_entries, which uses Result::ok() the same way).
func (m *Manager) Scan() error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return errors.Wrap(err, "create workspace directory")
	}
	dirEntries, err := os.ReadDir(m.dir)
	if err != nil {
		return errors.Wrap(err, "read workspace directory")
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		path := filepath.Join(m.dir, de.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var def Definition
		if err := json.Unmarshal(data, &def); err != nil {
			continue
		}
		kinds := make([]string, len(def.Plugins))
		for i, p := range def.Plugins {
			kinds[i] = p.Kind
		}
		entries = append(entries, Entry{
			Name:        def.Name,
			Description: def.Description,
			PluginCount: len(def.Plugins),
			PluginKinds: kinds,
			Path:        path,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	m.entries = entries
	return nil
}

// Entries returns the listing built by the most recent Scan.
func (m *Manager) Entries() []Entry {
	return m.entries
}

// Load reads and parses the workspace file at path, replacing the
// currently held Definition and clearing Dirty.
func (m *Manager) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "load workspace")
	}
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return errors.Wrap(err, "parse workspace file")
	}
	m.Workspace = def
	m.Path = path
	m.Dirty = false
	return nil
}

func (m *Manager) writeFile(def Definition, path string) error {
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode workspace")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write workspace file")
	}
	return nil
}

// SaveOverwriteCurrent writes Workspace back to Path. Fails if no
// workspace is currently loaded from a path (the unsaved default).
func (m *Manager) SaveOverwriteCurrent() error {
	if m.Path == "" {
		return errors.New("no workspace path set")
	}
	if err := m.writeFile(m.Workspace, m.Path); err != nil {
		return err
	}
	m.Dirty = false
	return nil
}

// SaveAs renames Workspace to name/description and writes it to the
// corresponding file, adopting that file as the current Path.
func (m *Manager) SaveAs(name, description string) error {
	m.Workspace.Name = name
	m.Workspace.Description = description

	path := m.filePathFor(name)
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return errors.Wrap(err, "create workspace directory")
	}
	if err := m.writeFile(m.Workspace, path); err != nil {
		return err
	}
	m.Path = path
	m.Dirty = false
	return nil
}

// Create starts a brand-new empty workspace named name and saves it
// immediately, failing if a workspace with that name already exists.
func (m *Manager) Create(name, description string) error {
	path := m.filePathFor(name)
	if _, err := os.Stat(path); err == nil {
		return errors.New("workspace already exists")
	}

	def := EmptyWorkspace(name)
	def.Description = description

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return errors.Wrap(err, "create workspace directory")
	}
	if err := m.writeFile(def, path); err != nil {
		return err
	}
	m.Workspace = def
	m.Path = path
	m.Dirty = false
	return nil
}

// Import copies the workspace file at source into the managed
// directory under its own recorded name, failing on a name collision.
// Does not load it as the current workspace.
func (m *Manager) Import(source string) error {
	data, err := os.ReadFile(source)
	if err != nil {
		return errors.Wrap(err, "read import source")
	}
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return errors.Wrap(err, "parse import source")
	}

	destPath := m.filePathFor(def.Name)
	if _, err := os.Stat(destPath); err == nil {
		return errors.New("workspace with this name already exists")
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return errors.Wrap(err, "create workspace directory")
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return errors.Wrap(err, "write imported workspace")
	}
	return nil
}

// Rename renames the currently loaded workspace to name, saving under
// the new path and removing the old file. Fails if no workspace is
// currently loaded from a path.
func (m *Manager) Rename(name string) error {
	if m.Path == "" {
		return errors.New("no workspace loaded to edit")
	}
	currentPath := m.Path
	newPath := m.filePathFor(name)

	renamed := m.Workspace
	renamed.Name = name
	if err := m.writeFile(renamed, newPath); err != nil {
		return err
	}
	if currentPath != newPath {
		if err := os.Remove(currentPath); err != nil {
			return errors.Wrap(err, "remove old workspace file")
		}
	}
	m.Workspace = renamed
	m.Path = newPath
	m.Dirty = false
	return nil
}

// Delete removes the on-disk workspace file named name. If it was the
// currently loaded workspace, resets to an unsaved "default" in memory.
func (m *Manager) Delete(name string) error {
	path := m.filePathFor(name)
	if _, err := os.Stat(path); err != nil {
		return errors.New("workspace not found")
	}
	if err := os.Remove(path); err != nil {
		return errors.Wrap(err, "delete workspace")
	}
	if m.Path == path {
		m.Workspace = EmptyWorkspace("default")
		m.Path = ""
		m.Dirty = true
	}
	return nil
}

// MarkDirty flags the in-memory Workspace as having unsaved changes.
func (m *Manager) MarkDirty() {
	m.Dirty = true
}

// FilePathFor exposes filePathFor for callers (e.g. the control
// dispatcher) that need to predict a workspace's path before it's
// created.
func (m *Manager) FilePathFor(name string) string {
	return m.filePathFor(name)
}
