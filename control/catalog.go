package control

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-getter"

	"github.com/rtsyn-dev/rtsyn/engine"
	"github.com/rtsyn-dev/rtsyn/errors"
	"github.com/rtsyn-dev/rtsyn/plugin/builtin"
)

// builtInKinds enumerates the kind strings builtin.New recognizes;
// comedi_daq only actually instantiates when the binary was built with
// the "comedi" tag (registry_comedi.go / registry_no_comedi.go), so a
// probing New call is the only reliable membership test.
var builtInKinds = []string{"csv_recorder", "live_plotter", "performance_monitor", "comedi_daq"}

// Catalog tracks which plugin kinds are available to add to a
// workspace: the always-present built-ins plus every externally
// compiled library under dir. Grounded on
// original_source/rtsyn/src/handlers.rs's PluginCommands::Available
// listing and rtsyn-cli's local-path PluginInstall flow, supplemented
// per SPEC_FULL.md with a go-getter fetch step.
type Catalog struct {
	mu  sync.Mutex
	dir string
	eng *engine.Engine
}

// NewCatalog returns a catalog rooted at dir (the configured plugin
// directory); dir is created on first Install if it doesn't exist.
// eng is used to transiently load a library for metadata enumeration
// via QueryPluginMetadata without touching the live workspace.
func NewCatalog(dir string, eng *engine.Engine) *Catalog {
	return &Catalog{dir: dir, eng: eng}
}

// List enumerates every built-in kind plus every library file found in
// the plugin directory.
func (c *Catalog) List() []PluginCatalogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var entries []PluginCatalogEntry
	for _, kind := range builtInKinds {
		inst, ok := builtin.New(kind)
		if !ok {
			continue
		}
		entries = append(entries, PluginCatalogEntry{
			Kind:    kind,
			BuiltIn: true,
			Inputs:  inst.InputPorts(),
			Outputs: inst.OutputPorts(),
		})
		inst.Destroy()
	}

	libs, _ := c.libraryFiles()
	for _, path := range libs {
		entry := PluginCatalogEntry{
			Kind:        strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			LibraryPath: path,
		}
		if meta, err := c.eng.QueryMetadata(path); err == nil {
			entry.Inputs = meta.Inputs
			entry.Outputs = meta.Outputs
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Kind < entries[j].Kind })
	return entries
}

func (c *Catalog) libraryFiles() ([]string, error) {
	des, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, de := range des {
		if de.IsDir() {
			continue
		}
		ext := filepath.Ext(de.Name())
		if ext == ".so" || ext == ".dylib" || ext == ".dll" {
			out = append(out, filepath.Join(c.dir, de.Name()))
		}
	}
	return out, nil
}

// Install fetches source (a go-getter address: a bare local path,
// file://, git::, http(s)://, ...) into the plugin directory, keeping
// its base filename. Supplements the original's local-path-only
// canonicalize flow (SUPPLEMENTED FEATURES §4 of SPEC_FULL.md).
func (c *Catalog) Install(source string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create plugin directory")
	}
	dest := filepath.Join(c.dir, filepath.Base(source))
	if err := getter.GetFile(dest, source); err != nil {
		return "", errors.Wrapf(err, "fetch plugin library from %q", source)
	}
	return dest, nil
}

// Uninstall removes the library file backing nameOrKind.
func (c *Catalog) Uninstall(nameOrKind string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	libs, err := c.libraryFiles()
	if err != nil {
		return err
	}
	for _, path := range libs {
		kind := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if kind == nameOrKind || filepath.Base(path) == nameOrKind {
			return os.Remove(path)
		}
	}
	return errors.Newf("plugin %q not found in catalog", nameOrKind)
}

// PathFor returns the library path that would back kind, if any is
// currently installed.
func (c *Catalog) PathFor(kind string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	libs, _ := c.libraryFiles()
	for _, path := range libs {
		if strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) == kind {
			return path, true
		}
	}
	return "", false
}
