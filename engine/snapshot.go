// Package engine hosts the per-tick scheduler: a single goroutine that
// owns the workspace instance map and connection cache, advances every
// running plugin once a period, and publishes a value snapshot for
// observers to read without ever blocking the tick loop. Grounded on
// teranos-QNTX's pulse/schedule/ticker.go Start/Stop/run shape.
package engine

import (
	"github.com/rtsyn-dev/rtsyn/connections"
	"github.com/rtsyn-dev/rtsyn/plugin/builtin"
)

// VariableValue is the opaque per-tick value of one internal variable;
// most are plain floats, but built-ins occasionally report richer JSON
// (e.g. csv_recorder's boolean "running"), so the snapshot carries
// interface{} and callers type-switch when they care.
type VariableValue = interface{}

// Snapshot is the value-owned tick publication every observer receives
// independently; mutating a received Snapshot never affects the engine
// or other observers. Grounded on spec.md §4.D's LogicState.
type Snapshot struct {
	Tick   uint64
	Period PeriodInfo

	Outputs        map[connections.PortRef]float64
	InputValues    map[connections.PortRef]float64
	Variables      map[connections.PortRef]VariableValue
	PlotterSamples map[uint64][]builtin.Sample

	Failures []PluginFailure
}

// PeriodInfo echoes the settings in force when the snapshot was
// produced, so a slow-polling consumer always sees a self-consistent
// time axis alongside the sample values it decodes.
type PeriodInfo struct {
	PeriodSeconds float64
	TimeScale     float64
	TimeLabel     string
}

// PluginFailure records a panic caught while driving one plugin's
// Process call this tick; the plugin's running flag is cleared as part
// of handling it (spec.md §5 Failure isolation).
type PluginFailure struct {
	PluginID uint64
	Reason   string
}
