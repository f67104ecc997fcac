package control

// settingsSet applies req.SettingsPatch to the live workspace's
// settings and pushes the result to the engine, marking the workspace
// dirty. Grounded on workspace/manager.rs's apply_runtime_settings_patch,
// expressed here via the already-validated workspace.Settings.Apply.
func (d *Dispatcher) settingsSet(req Request) Response {
	updated, err := d.Manager.Workspace.Settings.Apply(req.SettingsPatch)
	if err != nil {
		return errResp(err.Error())
	}
	d.Manager.Workspace.Settings = updated
	d.Manager.MarkDirty()
	if err := d.Engine.ApplySettings(updated); err != nil {
		return errResp(err.Error())
	}
	return payload(updated)
}

// settingsSave persists the live workspace's settings to whichever
// file is authoritative for the current context: the shared defaults
// file when no workspace is loaded from disk, otherwise the workspace
// file itself. Grounded on
// persist_runtime_settings_current_context.
func (d *Dispatcher) settingsSave() Response {
	if d.Manager.Path == "" {
		if err := d.Settings.UpdateDefaults(d.Manager.Workspace.Settings); err != nil {
			return errResp(err.Error())
		}
		d.Manager.Dirty = false
		return payload(SettingsTargetDefaults)
	}
	if err := d.Manager.SaveOverwriteCurrent(); err != nil {
		return errResp(err.Error())
	}
	return payload(SettingsTargetWorkspace)
}

// settingsRestore resets the shared defaults file to the factory
// baseline, and — if a workspace is currently loaded from disk —
// applies the restored settings to it (marking it dirty, since the
// workspace file itself is left untouched until an explicit save).
// Grounded on restore_runtime_settings_current_context.
func (d *Dispatcher) settingsRestore() Response {
	restored, err := d.Settings.ResetDefaultsToFactory()
	if err != nil {
		return errResp(err.Error())
	}
	if d.Manager.Path == "" {
		d.Manager.Workspace.Settings = restored
		d.Manager.Dirty = false
	} else {
		d.Manager.Workspace.Settings = restored
		d.Manager.Dirty = true
	}
	if err := d.Engine.ApplySettings(restored); err != nil {
		return errResp(err.Error())
	}
	return payload(restored)
}
