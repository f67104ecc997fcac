package control

import "github.com/rtsyn-dev/rtsyn/logger"

// workspaceList rescans the workspace directory and returns its
// current listing.
func (d *Dispatcher) workspaceList() Response {
	if err := d.Manager.Scan(); err != nil {
		return errResp(err.Error())
	}
	return payload(d.Manager.Entries())
}

// workspaceLoad reads a workspace file from disk, adopts it as the
// Manager's current definition, and pushes it (and its settings) to
// the engine. Every loaded plugin id is observed by the id allocator
// so subsequently added plugins never collide with ids already present
// on disk. Grounded on daemon.rs's WorkspaceLoad arm.
func (d *Dispatcher) workspaceLoad(req Request) Response {
	path := d.Manager.FilePathFor(req.Name)
	if err := d.Manager.Load(path); err != nil {
		return errResp(err.Error())
	}
	for _, p := range d.Manager.Workspace.Plugins {
		d.IDs.Observe(p.ID)
	}
	if err := d.Engine.ApplyWorkspace(d.Manager.Workspace); err != nil {
		return errResp(err.Error())
	}
	if err := d.Engine.ApplySettings(d.Manager.Workspace.Settings); err != nil {
		return errResp(err.Error())
	}
	logger.WorkspaceInfow("workspace loaded", "name", req.Name, "plugins", len(d.Manager.Workspace.Plugins))
	return ok("workspace loaded")
}

// workspaceNew creates a brand-new empty workspace named req.Name,
// seeded with the runtime defaults store's current settings, and
// adopts it as current. Fails if a workspace with that name already
// exists. Grounded on daemon.rs's WorkspaceNew arm.
func (d *Dispatcher) workspaceNew(req Request) Response {
	if err := d.Manager.Create(req.Name, req.Description); err != nil {
		return errResp(err.Error())
	}
	d.Manager.Workspace.Settings = d.Settings.Defaults()
	if err := d.Manager.SaveOverwriteCurrent(); err != nil {
		return errResp(err.Error())
	}
	if err := d.Engine.ApplyWorkspace(d.Manager.Workspace); err != nil {
		return errResp(err.Error())
	}
	if err := d.Engine.ApplySettings(d.Manager.Workspace.Settings); err != nil {
		return errResp(err.Error())
	}
	return ok("workspace created")
}

// workspaceSave writes the current workspace to disk: to req.Name's
// file if given (adopting it as the new name/path, akin to a
// save-as), otherwise to the already-loaded path. Grounded on
// daemon.rs's WorkspaceSave arm.
func (d *Dispatcher) workspaceSave(req Request) Response {
	if req.Name != "" {
		if err := d.Manager.SaveAs(req.Name, req.Description); err != nil {
			return errResp(err.Error())
		}
		logger.WorkspaceInfow("workspace saved", "name", req.Name)
		return ok("workspace saved")
	}
	if err := d.Manager.SaveOverwriteCurrent(); err != nil {
		return errResp(err.Error())
	}
	logger.WorkspaceInfow("workspace saved", "name", d.Manager.Workspace.Name)
	return ok("workspace saved")
}

// workspaceEdit renames the currently loaded workspace in place.
// workspace.Manager.Rename already implements exactly this semantics
// (write under the new name's path, remove the old file, error if no
// workspace is loaded from a path), mirroring daemon.rs's WorkspaceEdit
// arm.
func (d *Dispatcher) workspaceEdit(req Request) Response {
	if err := d.Manager.Rename(req.Name); err != nil {
		return errResp(err.Error())
	}
	return ok("workspace updated")
}

// workspaceDelete removes the named workspace's file. If it was the
// currently loaded workspace, the Manager falls back to an unsaved
// default and the engine is reset to match.
func (d *Dispatcher) workspaceDelete(req Request) Response {
	wasCurrent := d.Manager.Path == d.Manager.FilePathFor(req.Name)
	if err := d.Manager.Delete(req.Name); err != nil {
		return errResp(err.Error())
	}
	if wasCurrent {
		if err := d.Engine.ApplyWorkspace(d.Manager.Workspace); err != nil {
			return errResp(err.Error())
		}
	}
	logger.WorkspaceInfow("workspace deleted", "name", req.Name)
	return ok("workspace deleted")
}
