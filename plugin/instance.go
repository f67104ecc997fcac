// Package plugin defines the capability set every runtime plugin
// satisfies — externally compiled C-ABI dynamic libraries and built-in
// Go implementations alike — and the engine-facing host operations for
// loading, configuring, and driving them one tick at a time.
// Grounded on teranos-QNTX's plugin/interface.go DomainPlugin shape.
package plugin

// Behavior describes traits the engine consults when bringing a plugin
// into a workspace. loads_started controls whether a freshly created
// plugin begins ticking immediately or waits for an explicit
// SetPluginRunning(true).
type Behavior struct {
	LoadsStarted bool `json:"loads_started"`
}

// DisplaySchema names the internal variables a plugin exposes for
// observation, and (optionally) which of its own inputs/outputs are
// presentation-relevant to a GUI.
type DisplaySchema struct {
	Variables []string `json:"variables"`
	Inputs    []string `json:"inputs,omitempty"`
	Outputs   []string `json:"outputs,omitempty"`
}

// Instance is the uniform capability set the engine drives every tick.
// Dynamic (C-ABI) and builtin plugins both satisfy it; the engine never
// branches on which kind it's holding.
type Instance interface {
	// InputPorts and OutputPorts enumerate the plugin's port names, in
	// the order the plugin declared them.
	InputPorts() []string
	OutputPorts() []string

	// DisplaySchema reports the plugin's observable internal variables,
	// if any.
	DisplaySchema() *DisplaySchema

	// Behavior reports lifecycle traits consulted at creation time.
	Behavior() Behavior

	// SetConfig hands the plugin a configuration tree. The engine calls
	// it when it creates the instance and when SetPluginVariable changes
	// a key; for Dynamic, ConfigureDirty also resends the tree, augmented
	// with period_seconds and max_integration_steps, whenever its dirty
	// check finds a change.
	SetConfig(config map[string]interface{}) error

	// SetInput writes a single input port's value. Implementations may
	// use an index-based fast path transparently; the port name is
	// always the contract the caller sees.
	SetInput(port string, value float64)

	// GetOutput reads a single output port's current value.
	GetOutput(port string) float64

	// GetVariable reads a named internal variable for observation,
	// returning (nil, false) if unknown to the plugin. Most variables
	// are plain f64, but a built-in may report richer JSON — a bool for
	// a flag like csv_recorder's "running" — per spec.md §4.D.
	GetVariable(name string) (interface{}, bool)

	// Process advances the plugin state by one tick.
	Process(tick uint64, periodSeconds float64)

	// Destroy releases any resources (native handle, open device, file
	// handle) the instance holds. Called exactly once, when the
	// instance is removed from the workspace or the engine shuts down.
	Destroy()
}

// RunAware is an optional capability: built-in plugins whose own
// tick behavior depends on the workspace's running flag (distinct from
// whether the engine calls Process at all) implement it so the engine
// can report it back as the "running" internal variable without every
// plugin needing a dedicated field in Instance.
type RunAware interface {
	SetRunning(running bool)
}

// TimeAxisAware is an optional capability: built-ins that render a
// time-scaled x-axis (csv_recorder's time column, live_plotter's plot
// x-axis) implement it to receive the workspace's resolved time scale
// and label without threading it through every Instance's SetConfig.
type TimeAxisAware interface {
	SetTimeAxis(scale float64, label string)
}

// ActivePortsAware is an optional capability: built-ins that lazily
// open a hardware resource based on which of their ports the current
// workspace actually wires (comedi_daq) implement it so the engine can
// report the connection cache's per-plugin incoming/outgoing port sets
// without a dedicated field in Instance.
type ActivePortsAware interface {
	SetActivePorts(inputs, outputs map[string]struct{})
}

// LatencyAware is an optional capability: performance_monitor reads the
// engine's own tick timing rather than anything fed through its input
// ports, so the engine reports the workspace period and the previous
// tick's measured latency once per tick, instead of threading both
// through SetInput/SetConfig.
type LatencyAware interface {
	SetWorkspacePeriod(periodSeconds float64)
	RecordLatency(latencySeconds float64)
}

// LoadError is returned by loaders (Load, builtin.New) when a plugin
// cannot be instantiated; the caller logs it once and omits the plugin
// from the workspace instance map without modifying the workspace
// definition itself (spec.md §4.C/§7 PluginLoadError).
type LoadError struct {
	Path   string
	Reason string
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return e.Path + ": " + e.Reason
}
