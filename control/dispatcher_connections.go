package control

import (
	"strings"

	"github.com/rtsyn-dev/rtsyn/connections"
	"github.com/rtsyn-dev/rtsyn/logger"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

// portsFor resolves a plugin kind's declared input/output port names,
// whether it's a built-in or a dynamic library already referenced by
// config["library_path"].
func (d *Dispatcher) portsFor(p *workspace.PluginDefinition) (inputs, outputs []string, ok bool) {
	if in, out, found := builtinPorts(p.Kind); found {
		return in, out, true
	}
	path, _ := p.Config["library_path"].(string)
	if path == "" {
		return nil, nil, false
	}
	meta, err := d.Engine.QueryMetadata(path)
	if err != nil {
		return nil, nil, false
	}
	return meta.Inputs, meta.Outputs, true
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// sourcePortValid allows performance_monitor's legacy max_period_us
// alias alongside its spec-authoritative outputs (period_us,
// latency_us, jitter_us, realtime_violation — see DESIGN.md's
// performance_monitor Open Question). This is a CLI-side wiring
// leniency only: max_period_us is never added as an actual declared
// output. Grounded on connection_handler.rs's source_port_is_valid.
func sourcePortValid(kind, requestedPort string, outputs []string) bool {
	if contains(outputs, requestedPort) {
		return true
	}
	if kind != "performance_monitor" {
		return false
	}
	switch requestedPort {
	case "period_us", "latency_us", "jitter_us", "max_period_us":
		return true
	default:
		return false
	}
}

func connIndexOf(conns []workspace.ConnectionDefinition, fromPlugin workspace.PluginID, fromPort string, toPlugin workspace.PluginID, toPort string) int {
	for i, c := range conns {
		if c.FromPlugin == fromPlugin && c.FromPort == fromPort && c.ToPlugin == toPlugin && c.ToPort == toPort {
			return i
		}
	}
	return -1
}

func (d *Dispatcher) toSummary(conn workspace.ConnectionDefinition, index int) ConnectionSummary {
	return ConnectionSummary{
		Index:      index,
		FromPlugin: conn.FromPlugin,
		FromPort:   conn.FromPort,
		ToPlugin:   conn.ToPlugin,
		ToPort:     conn.ToPort,
		Kind:       conn.Kind,
	}
}

// connectionList reports every connection in the live workspace along
// with its position (consulted by ConnectionRemoveIndex).
func (d *Dispatcher) connectionList() Response {
	out := make([]ConnectionSummary, len(d.Manager.Workspace.Connections))
	for i, c := range d.Manager.Workspace.Connections {
		out[i] = d.toSummary(c, i)
	}
	return payload(out)
}

// connectionShow reports every connection touching req.PluginID on
// either side.
func (d *Dispatcher) connectionShow(req Request) Response {
	var out []ConnectionSummary
	for i, c := range d.Manager.Workspace.Connections {
		if c.FromPlugin == req.PluginID || c.ToPlugin == req.PluginID {
			out = append(out, d.toSummary(c, i))
		}
	}
	return payload(out)
}

// connectionAdd validates a prospective connection against both
// endpoints' declared ports before delegating to connections.AddConnection
// for the invariant checks (self-loop, duplicate, input-limit,
// extendable-port renumbering). Grounded on connection_handler.rs's
// connection_add.
func (d *Dispatcher) connectionAdd(req Request) Response {
	from, _ := d.Manager.Workspace.PluginByID(req.FromPlugin)
	if from == nil {
		return errResp("Source plugin not found in workspace")
	}
	to, _ := d.Manager.Workspace.PluginByID(req.ToPlugin)
	if to == nil {
		return errResp("Target plugin not found in workspace")
	}
	if strings.TrimSpace(req.FromPort) == "" || strings.TrimSpace(req.ToPort) == "" || strings.TrimSpace(string(req.ConnKind)) == "" {
		return errResp("Connection fields cannot be empty")
	}

	_, fromOutputs, ok := d.portsFor(from)
	if !ok || len(fromOutputs) == 0 {
		return errResp("Source plugin outputs not available")
	}
	if !sourcePortValid(from.Kind, req.FromPort, fromOutputs) {
		return errResp("Source port not found")
	}

	if connections.IsExtendableInputs(to.Kind) {
		if req.ToPort == "in" {
			return errResp("Target port must be the next in_<number> or an existing input")
		}
		nextIdx := connections.NextAvailableExtendableInputIndex(&d.Manager.Workspace, req.ToPlugin)
		toIdx, hasIdx := connections.ExtendableInputIndex(req.ToPort)
		hasExisting := false
		for _, c := range d.Manager.Workspace.Connections {
			if c.ToPlugin == req.ToPlugin && c.ToPort == req.ToPort {
				hasExisting = true
				break
			}
		}
		valid := hasIdx && (toIdx == nextIdx || (toIdx < nextIdx && hasExisting))
		if !valid {
			return errResp("Target port must be the next in_<number> or an existing input")
		}
	} else {
		toInputs, _, ok := d.portsFor(to)
		if !ok || len(toInputs) == 0 {
			return errResp("Target plugin inputs not available")
		}
		if !contains(toInputs, req.ToPort) {
			return errResp("Target port not found")
		}
	}

	if err := connections.AddConnection(&d.Manager.Workspace, nil, req.FromPlugin, req.FromPort, req.ToPlugin, req.ToPort, req.ConnKind); err != nil {
		return errResp(err.Error())
	}
	d.Manager.MarkDirty()
	if err := d.Engine.ApplyWorkspace(d.Manager.Workspace); err != nil {
		return errResp(err.Error())
	}
	logger.ConnInfow("connection added", "from_plugin", req.FromPlugin, "from_port", req.FromPort, "to_plugin", req.ToPlugin, "to_port", req.ToPort)
	return ok("Connection added")
}

// connectionRemove removes the single connection exactly matching the
// given endpoint tuple. Grounded on connection_handler.rs's
// connection_remove (a plain positional removal; it does not renumber
// any extendable-input ports left behind, matching the original).
func (d *Dispatcher) connectionRemove(req Request) Response {
	idx := connIndexOf(d.Manager.Workspace.Connections, req.FromPlugin, req.FromPort, req.ToPlugin, req.ToPort)
	if idx < 0 {
		return errResp("Connection not found")
	}
	return d.removeConnectionAt(idx)
}

// connectionRemoveIndex removes the connection at req.Index.
func (d *Dispatcher) connectionRemoveIndex(req Request) Response {
	if req.Index < 0 || req.Index >= len(d.Manager.Workspace.Connections) {
		return errResp("Invalid connection index")
	}
	return d.removeConnectionAt(req.Index)
}

func (d *Dispatcher) removeConnectionAt(idx int) Response {
	removed := d.Manager.Workspace.Connections[idx]
	conns := d.Manager.Workspace.Connections
	d.Manager.Workspace.Connections = append(conns[:idx], conns[idx+1:]...)
	d.Manager.MarkDirty()
	if err := d.Engine.ApplyWorkspace(d.Manager.Workspace); err != nil {
		return errResp(err.Error())
	}
	logger.ConnInfow("connection removed", "from_plugin", removed.FromPlugin, "from_port", removed.FromPort, "to_plugin", removed.ToPlugin, "to_port", removed.ToPort)
	return ok("Connection removed")
}
