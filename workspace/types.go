// Package workspace defines the data model for a saved RTSyn workspace
// (plugins, connections, runtime settings) and its JSON persistence.
package workspace

// PluginID is an opaque, monotonically allocated identifier, unique
// within a workspace.
type PluginID uint64

// ConnectionKind is a transport hint carried with a connection for the
// user's benefit; the engine treats all kinds equivalently and moves
// only scalar float64 values regardless of kind.
type ConnectionKind string

const (
	KindSharedMemory ConnectionKind = "shared_memory"
	KindPipe         ConnectionKind = "pipe"
	KindInProcess    ConnectionKind = "in_process"
)

// ConnectionDefinition is a directed edge from one plugin's output port
// to another plugin's input port.
type ConnectionDefinition struct {
	FromPlugin PluginID       `json:"from_plugin"`
	FromPort   string         `json:"from_port"`
	ToPlugin   PluginID       `json:"to_plugin"`
	ToPort     string         `json:"to_port"`
	Kind       ConnectionKind `json:"kind"`
}

// PluginDefinition is one instance in the workspace graph.
type PluginDefinition struct {
	ID       PluginID               `json:"id"`
	Kind     string                 `json:"kind"`
	Config   map[string]interface{} `json:"config"`
	Priority int                    `json:"priority"` // [0,99], stored but not consulted by the scheduler
	Running  bool                   `json:"running"`
}

// Definition is the full, persisted shape of a workspace.
type Definition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	TargetHz    float64                `json:"target_hz"`
	Plugins     []PluginDefinition     `json:"plugins"`
	Connections []ConnectionDefinition `json:"connections"`
	Settings    Settings               `json:"settings"`
}

// PluginByID returns the plugin definition with the given id, if present,
// and its index within Plugins (insertion order, which is the
// authoritative per-tick processing order; see DESIGN.md Open Question 1).
func (d *Definition) PluginByID(id PluginID) (*PluginDefinition, int) {
	for i := range d.Plugins {
		if d.Plugins[i].ID == id {
			return &d.Plugins[i], i
		}
	}
	return nil, -1
}

// RemovePlugin removes the plugin with the given id, if present, and any
// connection referencing it on either side.
func (d *Definition) RemovePlugin(id PluginID) {
	plugins := d.Plugins[:0]
	for _, p := range d.Plugins {
		if p.ID != id {
			plugins = append(plugins, p)
		}
	}
	d.Plugins = plugins

	conns := d.Connections[:0]
	for _, c := range d.Connections {
		if c.FromPlugin != id && c.ToPlugin != id {
			conns = append(conns, c)
		}
	}
	d.Connections = conns
}

// SortedPluginIDs returns all plugin ids in insertion (tick) order.
func (d *Definition) SortedPluginIDs() []PluginID {
	ids := make([]PluginID, len(d.Plugins))
	for i, p := range d.Plugins {
		ids[i] = p.ID
	}
	return ids
}

// ExistingIDSet returns the set of plugin ids currently present, useful
// for UpdateWorkspace reconciliation diffs (see engine/commands.go).
func (d *Definition) ExistingIDSet() map[PluginID]struct{} {
	set := make(map[PluginID]struct{}, len(d.Plugins))
	for _, p := range d.Plugins {
		set[p.ID] = struct{}{}
	}
	return set
}
