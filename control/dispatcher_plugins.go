package control

import "github.com/rtsyn-dev/rtsyn/workspace"

// pluginInstall fetches a plugin library into the catalog directory.
// req.AbsolutePath carries the go-getter source address (a plain local
// path in the original's "must be absolute" flow; SPEC_FULL.md's
// supplemented install step also accepts file://, git::, http(s)://).
func (d *Dispatcher) pluginInstall(req Request) Response {
	if _, err := d.Catalog.Install(req.AbsolutePath); err != nil {
		return errResp(err.Error())
	}
	return ok("Plugin installed")
}

// pluginUninstall removes a library from the catalog and drops every
// workspace plugin of that kind, refreshing the engine if any were
// removed. Grounded on daemon.rs's PluginUninstall arm
// (uninstall_plugin_by_kind + remove_plugins_by_kind_from_workspace).
func (d *Dispatcher) pluginUninstall(req Request) Response {
	if err := d.Catalog.Uninstall(req.Name); err != nil {
		return errResp(err.Error())
	}

	removed := false
	kept := d.Manager.Workspace.Plugins[:0]
	for _, p := range d.Manager.Workspace.Plugins {
		if p.Kind == req.Name {
			d.IDs.Free(p.ID)
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	d.Manager.Workspace.Plugins = kept

	if removed {
		d.Manager.MarkDirty()
		if err := d.Engine.ApplyWorkspace(d.Manager.Workspace); err != nil {
			return errResp(err.Error())
		}
	}
	return ok("Plugin uninstalled")
}

// pluginReinstall re-fetches a library over its existing file,
// narrower than the original's install-db-tracked reinstall (this port
// keeps no separate install-source record): the
// caller must resupply the source address in req.AbsolutePath.
func (d *Dispatcher) pluginReinstall(req Request) Response {
	if req.AbsolutePath == "" {
		return errResp("reinstall requires the original install source path")
	}
	if err := d.Catalog.Uninstall(req.Name); err != nil {
		return errResp(err.Error())
	}
	if _, err := d.Catalog.Install(req.AbsolutePath); err != nil {
		return errResp(err.Error())
	}
	return ok("Plugin reinstalled")
}

// pluginAdd resolves req.Name against the built-in set and the
// installed-library catalog, allocates a fresh plugin id, appends it
// to the live workspace, and pushes the result to the engine. On
// engine failure the allocation and append are rolled back so a failed
// add never leaks an id. Grounded on daemon.rs's PluginAdd arm.
func (d *Dispatcher) pluginAdd(req Request) Response {
	libraryPath := ""
	if _, _, ok := builtinPorts(req.Name); !ok {
		path, found := d.Catalog.PathFor(req.Name)
		if !found {
			return errResp("plugin kind not found in catalog")
		}
		libraryPath = path
	}

	id := d.IDs.Allocate()
	def := workspace.PluginDefinition{
		ID:     id,
		Kind:   req.Name,
		Config: map[string]interface{}{},
	}
	if libraryPath != "" {
		def.Config["library_path"] = libraryPath
	}

	d.Manager.Workspace.Plugins = append(d.Manager.Workspace.Plugins, def)
	d.Manager.MarkDirty()

	if err := d.Engine.ApplyWorkspace(d.Manager.Workspace); err != nil {
		d.Manager.Workspace.RemovePlugin(id)
		d.IDs.Free(id)
		return errResp(err.Error())
	}

	if behavior, ok := d.Engine.QueryBehavior(id); ok {
		if p, _ := d.Manager.Workspace.PluginByID(id); p != nil {
			p.Running = behavior.LoadsStarted
		}
	}

	return payload(PluginAdded{ID: id})
}

// pluginRemove drops a plugin from the live workspace and frees its
// id for reuse.
func (d *Dispatcher) pluginRemove(req Request) Response {
	if p, _ := d.Manager.Workspace.PluginByID(req.PluginID); p == nil {
		return errResp("plugin not found")
	}
	d.Manager.Workspace.RemovePlugin(req.PluginID)
	d.IDs.Free(req.PluginID)
	d.Manager.MarkDirty()

	if err := d.Engine.ApplyWorkspace(d.Manager.Workspace); err != nil {
		return errResp(err.Error())
	}
	return ok("Plugin removed")
}
