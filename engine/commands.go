package engine

import (
	"github.com/rtsyn-dev/rtsyn/plugin"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

// Command is anything the engine goroutine can receive on its intake
// channel. Implementations are simple value types; apply runs
// exclusively on the engine goroutine, so it never needs its own
// locking. Grounded on spec.md §4.D's command enumeration and
// original_source/rtsyn-runtime/src/message_processor.rs's
// MessageAction dispatch — expressed as a Go interface instead of a
// Rust enum + match, the same generalization connections.AddConnection
// makes for the workspace-rule layer.
type Command interface {
	apply(e *Engine)
}

// sendReply delivers a command's result to its caller without blocking
// the engine loop; callers are expected to give the reply channel
// buffer room for exactly one value and to either receive it or
// abandon it (e.g. after a context timeout).
func sendReply[T any](ch chan<- T, v T) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
	}
}

// UpdateSettings replaces the workspace's runtime settings, re-pinning
// CPU affinity if the selected core set changed.
type UpdateSettings struct {
	Settings workspace.Settings
	Done     chan<- error
}

func (c *UpdateSettings) apply(e *Engine) {
	resolved, err := c.Settings.Resolve()
	if err != nil {
		sendReply(c.Done, err)
		return
	}
	prevCores := e.resolved.SelectedCores
	e.workspace.Settings = c.Settings
	e.resolved = resolved
	if !sameCores(prevCores, resolved.SelectedCores) {
		pinAffinity(resolved.SelectedCores)
	}
	sendReply(c.Done, nil)
}

func sameCores(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// UpdateWorkspace reconciles the engine's instance map against a new
// workspace definition: creates instances for previously unseen plugin
// ids, destroys instances for ids no longer present, leaves existing
// instances untouched, and rebuilds the connection cache. Grounded on
// message_processor.rs's UpdateWorkspace handling (new_ids/removed_ids
// HashSet diff).
type UpdateWorkspace struct {
	Workspace workspace.Definition
	Done      chan<- error
}

func (c *UpdateWorkspace) apply(e *Engine) {
	newIDs := c.Workspace.ExistingIDSet()
	oldIDs := e.workspace.ExistingIDSet()

	for id := range oldIDs {
		if _, stillPresent := newIDs[id]; !stillPresent {
			e.destroyInstance(id)
		}
	}

	e.workspace = c.Workspace
	for _, p := range e.workspace.Plugins {
		if _, exists := e.instances[p.ID]; exists {
			continue
		}
		e.createInstance(p, true)
	}

	resolved, err := e.workspace.Settings.Resolve()
	if err == nil {
		e.resolved = resolved
	}
	e.rebuildCache()
	sendReply(c.Done, nil)
}

// SetPluginRunning flips a plugin's running flag in the live workspace
// definition and passes the new flag to the instance if it implements
// plugin.RunAware; the instance is not otherwise touched.
type SetPluginRunning struct {
	PluginID workspace.PluginID
	Running  bool
	Done     chan<- error
}

func (c *SetPluginRunning) apply(e *Engine) {
	p, _ := e.workspace.PluginByID(c.PluginID)
	if p == nil {
		sendReply(c.Done, errNotFound(c.PluginID))
		return
	}
	p.Running = c.Running
	if ra, ok := e.instances[c.PluginID].(runAware); ok {
		ra.SetRunning(c.Running)
	}
	sendReply(c.Done, nil)
}

// RestartPlugin destroys and recreates a plugin's instance in place,
// preserving the workspace definition (so its config and running flag
// survive the restart unchanged).
type RestartPlugin struct {
	PluginID workspace.PluginID
	Done     chan<- error
}

func (c *RestartPlugin) apply(e *Engine) {
	p, _ := e.workspace.PluginByID(c.PluginID)
	if p == nil {
		sendReply(c.Done, errNotFound(c.PluginID))
		return
	}
	e.destroyInstance(c.PluginID)
	e.createInstance(*p, false)
	sendReply(c.Done, nil)
}

// SetPluginVariable sets one key of a plugin's config: it merges the
// value into the stored definition, so it survives a later no-op
// UpdateWorkspace (spec.md §8's round-trip property), and pushes it to
// the live instance at once. A dynamic plugin receives the single-key
// patch; a built-in, whose SetConfig replaces its whole configuration,
// receives the merged tree.
type SetPluginVariable struct {
	PluginID workspace.PluginID
	Key      string
	Value    interface{}
	Done     chan<- error
}

func (c *SetPluginVariable) apply(e *Engine) {
	p, _ := e.workspace.PluginByID(c.PluginID)
	if p == nil {
		sendReply(c.Done, errNotFound(c.PluginID))
		return
	}
	if p.Config == nil {
		p.Config = map[string]interface{}{}
	}
	p.Config[c.Key] = c.Value
	if inst, ok := e.instances[c.PluginID]; ok {
		patch := p.Config
		if _, isDynamic := inst.(dirtyCheckable); isDynamic {
			patch = map[string]interface{}{c.Key: c.Value}
		}
		if err := inst.SetConfig(patch); err != nil {
			sendReply(c.Done, err)
			return
		}
	}
	sendReply(c.Done, nil)
}

// QueryPluginBehavior answers with the instance's Behavior, or
// ok=false if the plugin id is unknown.
type QueryPluginBehavior struct {
	PluginID workspace.PluginID
	Result   chan<- BehaviorResult
}

type BehaviorResult struct {
	Behavior plugin.Behavior
	OK       bool
}

func (c *QueryPluginBehavior) apply(e *Engine) {
	inst, ok := e.instances[c.PluginID]
	if !ok {
		sendReply(c.Result, BehaviorResult{OK: false})
		return
	}
	sendReply(c.Result, BehaviorResult{Behavior: inst.Behavior(), OK: true})
}

// QueryPluginMetadata answers with the declared input/output port
// names and display schema of a dynamic plugin library, loading it
// transiently (a throwaway instance with id 0) and destroying it
// before replying. Used by the control surface to validate a
// ConnectionAdd/PluginAdd request against a library the workspace
// does not yet reference. Grounded on spec.md §4.D's "the engine may
// load a library transiently to inspect it and then discard the
// handle" out-of-band probe.
type QueryPluginMetadata struct {
	LibraryPath string
	Result      chan<- MetadataResult
}

type MetadataResult struct {
	Inputs  []string
	Outputs []string
	Display *plugin.DisplaySchema
	Err     error
}

func (c *QueryPluginMetadata) apply(e *Engine) {
	inst, err := plugin.Load(c.LibraryPath, 0)
	if err != nil {
		sendReply(c.Result, MetadataResult{Err: err})
		return
	}
	defer inst.Destroy()
	sendReply(c.Result, MetadataResult{
		Inputs:  inst.InputPorts(),
		Outputs: inst.OutputPorts(),
		Display: inst.DisplaySchema(),
	})
}

// GetPluginVariable answers with the most recent value the engine
// recorded for a named internal variable, read from the latest
// snapshot rather than querying the instance directly (so it reflects
// exactly what observers already saw).
type GetPluginVariable struct {
	PluginID workspace.PluginID
	Name     string
	Result   chan<- VariableResult
}

type VariableResult struct {
	Value interface{}
	OK    bool
}

func (c *GetPluginVariable) apply(e *Engine) {
	if e.lastSnapshot == nil {
		sendReply(c.Result, VariableResult{OK: false})
		return
	}
	v, ok := e.lastSnapshot.Variables[portKeyFor(c.PluginID, c.Name)]
	sendReply(c.Result, VariableResult{Value: v, OK: ok})
}

// Shutdown stops the tick loop after destroying every instance.
type Shutdown struct {
	Done chan<- struct{}
}

func (c *Shutdown) apply(e *Engine) {
	for id := range e.instances {
		e.destroyInstance(id)
	}
	sendReply(c.Done, struct{}{})
	e.stopRequested = true
}
