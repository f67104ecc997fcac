package control

import "github.com/rtsyn-dev/rtsyn/workspace"

func (d *Dispatcher) summaryFor(id workspace.PluginID) (RuntimeSummary, bool) {
	p, _ := d.Manager.Workspace.PluginByID(id)
	if p == nil {
		return RuntimeSummary{}, false
	}
	return RuntimeSummary{ID: p.ID, Kind: p.Kind, Running: p.Running}, true
}

// runtimeList reports every live plugin's id, kind, and running flag.
func (d *Dispatcher) runtimeList() Response {
	summaries := make([]RuntimeSummary, 0, len(d.Manager.Workspace.Plugins))
	for _, p := range d.Manager.Workspace.Plugins {
		summaries = append(summaries, RuntimeSummary{ID: p.ID, Kind: p.Kind, Running: p.Running})
	}
	return payload(summaries)
}

// runtimeShow reports one plugin's full state: its summary plus the
// outputs and internal variables it most recently published.
func (d *Dispatcher) runtimeShow(req Request) Response {
	summary, ok := d.summaryFor(req.PluginID)
	if !ok {
		return errResp("plugin not found")
	}

	detail := RuntimeDetail{
		RuntimeSummary: summary,
		Outputs:        map[string]float64{},
		Variables:      map[string]interface{}{},
	}
	if snap := d.latestSnapshot(); snap != nil {
		for ref, v := range snap.Outputs {
			if ref.Plugin == req.PluginID {
				detail.Outputs[ref.Port] = v
			}
		}
		for ref, v := range snap.Variables {
			if ref.Plugin == req.PluginID {
				detail.Variables[ref.Port] = v
			}
		}
	}
	return payload(detail)
}

// runtimePluginView reports a plugin's state plus the live_plotter
// sample history and time-axis metadata an external viewer subprocess
// needs (spec.md §6's RuntimePluginView).
func (d *Dispatcher) runtimePluginView(req Request) Response {
	summary, ok := d.summaryFor(req.PluginID)
	if !ok {
		return errResp("plugin not found")
	}

	view := PluginViewPayload{
		RuntimeSummary: summary,
		Outputs:        map[string]float64{},
		Variables:      map[string]interface{}{},
	}
	if snap := d.latestSnapshot(); snap != nil {
		view.Period = snap.Period
		for ref, v := range snap.Outputs {
			if ref.Plugin == req.PluginID {
				view.Outputs[ref.Port] = v
			}
		}
		for ref, v := range snap.Variables {
			if ref.Plugin == req.PluginID {
				view.Variables[ref.Port] = v
			}
		}
		view.Samples = snap.PlotterSamples[uint64(req.PluginID)]
	}
	return payload(view)
}

// runtimeSetVariable applies a JSON config patch to a live plugin,
// one key at a time, mirroring each key into the workspace definition
// so it survives a later no-op reconciliation (spec.md §8's round-trip
// property). Grounded on handlers.rs's RuntimeSetVariables request.
func (d *Dispatcher) runtimeSetVariable(req Request) Response {
	p, _ := d.Manager.Workspace.PluginByID(req.PluginID)
	if p == nil {
		return errResp("plugin not found")
	}
	if p.Config == nil {
		p.Config = map[string]interface{}{}
	}
	for key, value := range req.JSON {
		if err := d.Engine.SetVariable(req.PluginID, key, value); err != nil {
			return errResp(err.Error())
		}
		p.Config[key] = value
	}
	d.Manager.MarkDirty()
	return ok("variables updated")
}

// setRunning starts or stops a plugin in place.
func (d *Dispatcher) setRunning(req Request, running bool) Response {
	if err := d.Engine.SetRunning(req.PluginID, running); err != nil {
		return errResp(err.Error())
	}
	if p, _ := d.Manager.Workspace.PluginByID(req.PluginID); p != nil {
		p.Running = running
		d.Manager.MarkDirty()
	}
	return ok("ok")
}

// restart destroys and recreates a plugin's instance in place.
func (d *Dispatcher) restart(req Request) Response {
	if err := d.Engine.Restart(req.PluginID); err != nil {
		return errResp(err.Error())
	}
	return ok("plugin restarted")
}
