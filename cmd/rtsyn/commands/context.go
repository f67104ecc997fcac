// Package commands implements the rtsyn CLI's cobra subcommands. Each
// subcommand builds a short-lived control.Dispatcher over the
// configured workspace directory, issues exactly one control.Request,
// prints the control.Response, and exits — the same request/response
// boundary spec.md §4.E/§6 describes, with this package standing in
// for the unspecified transport (see DESIGN.md's cmd/rtsyn/ entry). "rtsyn daemon run" is the one subcommand that keeps its
// Dispatcher (and the engine's tick loop) alive past a single request,
// per spec.md §4.D.
package commands

import (
	"os"

	"github.com/rtsyn-dev/rtsyn/config"
	"github.com/rtsyn-dev/rtsyn/control"
	"github.com/rtsyn-dev/rtsyn/engine"
	"github.com/rtsyn-dev/rtsyn/errors"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

// daemonContext bundles everything one CLI invocation (or the long-
// running daemon) needs: the workspace manager, a ticking engine built
// over its current definition, the plugin catalog, the id allocator,
// the runtime settings store, and the dispatcher tying them together.
type daemonContext struct {
	Config     *config.DaemonConfig
	Manager    *workspace.Manager
	Engine     *engine.Engine
	Dispatcher *control.Dispatcher
	IDs        *workspace.IDAllocator
}

// newContext loads cfg.WorkspaceDir's directory listing, loads
// workspaceName from it if present (falling back to an unsaved
// "default" workspace otherwise), and starts an engine + dispatcher
// over the result. Every plugin id already present is observed by the
// id allocator so a subsequent PluginAdd never collides.
func newContext(workspaceName string) (*daemonContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load rtsyn configuration")
	}

	mgr := workspace.NewManager(cfg.WorkspaceDir)
	if err := mgr.Scan(); err != nil {
		return nil, errors.Wrap(err, "scan workspace directory")
	}
	if workspaceName != "" {
		path := mgr.FilePathFor(workspaceName)
		if _, statErr := os.Stat(path); statErr == nil {
			if err := mgr.Load(path); err != nil {
				return nil, err
			}
		}
	}

	ids := workspace.NewIDAllocator()
	for _, p := range mgr.Workspace.Plugins {
		ids.Observe(p.ID)
	}

	eng, err := engine.New(mgr.Workspace)
	if err != nil {
		return nil, errors.Wrap(err, "start engine over workspace")
	}
	eng.Start()

	settings, err := control.NewSettingsStore(cfg.RuntimeSettingsDir)
	if err != nil {
		eng.Close()
		return nil, err
	}
	catalog := control.NewCatalog(cfg.PluginDir, eng)
	dispatcher := control.New(mgr, eng, catalog, ids, settings)

	return &daemonContext{
		Config:     cfg,
		Manager:    mgr,
		Engine:     eng,
		Dispatcher: dispatcher,
		IDs:        ids,
	}, nil
}

// Close shuts the engine's tick loop and dispatcher snapshot cache
// down cleanly. Safe to call exactly once.
func (dc *daemonContext) Close() {
	dc.Dispatcher.Close()
	dc.Engine.Close()
}
