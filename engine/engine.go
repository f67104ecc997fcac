// Package engine runs the fixed-period tick loop that drives a
// workspace's plugin graph: a single goroutine owns the instance map
// and connection cache exclusively (spec.md §5), applies commands
// drained from an intake channel at the top of each period, and
// publishes a value-owned snapshot on a capacity-1 overwrite channel.
// Grounded on teranos-QNTX's pulse/schedule/ticker.go Start/Stop/run
// shape, generalized from polling-interval job execution to a
// deterministic real-time plugin sweep.
package engine

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rtsyn-dev/rtsyn/connections"
	"github.com/rtsyn-dev/rtsyn/errors"
	"github.com/rtsyn-dev/rtsyn/logger"
	"github.com/rtsyn-dev/rtsyn/plugin"
	"github.com/rtsyn-dev/rtsyn/plugin/builtin"
	"github.com/rtsyn-dev/rtsyn/signal"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

type runAware = plugin.RunAware

// dirtyCheckable is satisfied only by *plugin.Dynamic; its outputs are
// also the only ones sanitized on read-back, matching spec.md §4.D
// step 3's "dynamic plugin outputs are passed through sanitize".
type dirtyCheckable interface {
	ConfigureDirty(baseConfig map[string]interface{}, periodSeconds float64, maxIntegrationSteps int) error
}

// Engine owns the live workspace and drives it one tick at a time.
// Every field below is touched only by the goroutine running loop();
// all external access goes through Submit or the snapshot channel.
type Engine struct {
	commands chan Command

	workspace workspace.Definition
	resolved  workspace.Resolved
	cache     *connections.Cache
	instances map[workspace.PluginID]plugin.Instance
	outputs   map[connections.PortRef]float64

	lastLatencySeconds float64
	stopRequested      bool
	lastSnapshot       *Snapshot
	tickNum            uint64

	snapshotCh chan *Snapshot

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds an Engine over the given starting workspace; instances
// are created for every plugin it already contains, matching how
// UpdateWorkspace treats a previously-empty instance map.
func New(ws workspace.Definition) (*Engine, error) {
	resolved, err := ws.Settings.Resolve()
	if err != nil {
		return nil, errors.Wrap(err, "resolve initial workspace settings")
	}

	e := &Engine{
		commands:   make(chan Command, 256),
		workspace:  ws,
		resolved:   resolved,
		instances:  make(map[workspace.PluginID]plugin.Instance),
		outputs:    make(map[connections.PortRef]float64),
		snapshotCh: make(chan *Snapshot, 1),
	}
	for _, p := range ws.Plugins {
		e.createInstance(p, true)
	}
	e.rebuildCache()
	return e, nil
}

// Submit enqueues a command for the engine to apply at the top of its
// next tick; it blocks only if 256 commands are already queued, which
// in practice means a caller is issuing commands far faster than the
// tick period allows.
func (e *Engine) Submit(cmd Command) {
	e.commands <- cmd
}

// Snapshots returns the channel observers receive published snapshots
// on. Receives are non-blocking from the engine's perspective: a slow
// consumer sees only the most recent snapshot, never a backlog.
func (e *Engine) Snapshots() <-chan *Snapshot {
	return e.snapshotCh
}

// Start begins the tick loop on a dedicated goroutine.
func (e *Engine) Start() {
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.wg.Add(1)
	go e.run()
}

// Stop requests the tick loop exit and waits for it to do so.
func (e *Engine) Stop() {
	e.cancel()
	e.wg.Wait()
}

func (e *Engine) run() {
	defer e.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	pinAffinity(e.resolved.SelectedCores)

	for {
		select {
		case <-e.ctx.Done():
			return
		default:
		}

		tBegin := time.Now()

		e.drainCommands()
		if e.stopRequested {
			return
		}

		tick := e.nextTick()
		snap := e.tickOnce(tick, tBegin)
		e.publish(snap)

		elapsed := time.Since(tBegin)
		e.lastLatencySeconds = elapsed.Seconds()

		period := time.Duration(e.resolved.PeriodSeconds * float64(time.Second))
		remaining := period - elapsed
		if remaining <= 0 {
			logger.TickWarnw("tick overran period, running next tick immediately",
				"tick", tick, "period_us", period.Microseconds(), "elapsed_us", elapsed.Microseconds())
		} else {
			select {
			case <-e.ctx.Done():
				return
			case <-time.After(remaining):
			}
		}
	}
}

// drainCommands applies every command currently queued, non-blocking,
// per spec.md §4.D's "drain the channel non-blockingly" step. A closed
// command channel (all senders gone) is itself a shutdown signal, per
// spec.md §7's cancellation policy.
func (e *Engine) drainCommands() {
	for {
		select {
		case cmd, ok := <-e.commands:
			if !ok {
				e.stopRequested = true
				return
			}
			cmd.apply(e)
		default:
			return
		}
	}
}

func (e *Engine) nextTick() uint64 {
	e.tickNum++
	return e.tickNum
}

// tickOnce drives every plugin in insertion order exactly once and
// returns the resulting snapshot. Grounded on spec.md §4.D steps 3-5.
func (e *Engine) tickOnce(tick uint64, tBegin time.Time) *Snapshot {
	snap := &Snapshot{
		Tick: tick,
		Period: PeriodInfo{
			PeriodSeconds: e.resolved.PeriodSeconds,
			TimeScale:     e.resolved.TimeScale,
			TimeLabel:     e.resolved.TimeLabel,
		},
		InputValues:    make(map[connections.PortRef]float64),
		Variables:      make(map[connections.PortRef]VariableValue),
		PlotterSamples: make(map[uint64][]builtin.Sample),
	}

	for _, p := range e.workspace.Plugins {
		inst, ok := e.instances[p.ID]
		if !ok {
			continue
		}
		e.tickPlugin(snap, p, inst)
	}

	for _, p := range e.workspace.Plugins {
		if p.Kind != "live_plotter" {
			continue
		}
		if lp, ok := e.instances[p.ID].(*builtin.LivePlotter); ok {
			if samples := lp.DrainSamples(); len(samples) > 0 {
				snap.PlotterSamples[uint64(p.ID)] = samples
			}
		}
	}

	outputsCopy := make(map[connections.PortRef]float64, len(e.outputs))
	for k, v := range e.outputs {
		outputsCopy[k] = v
	}
	snap.Outputs = outputsCopy

	// The engine keeps its own copy of the variables GetPluginVariable
	// reads, so the published snapshot belongs to its receiver alone.
	vars := make(map[connections.PortRef]VariableValue, len(snap.Variables))
	for k, v := range snap.Variables {
		vars[k] = v
	}
	e.lastSnapshot = &Snapshot{Tick: snap.Tick, Period: snap.Period, Variables: vars}
	return snap
}

// tickPlugin implements §4.D step 3's per-plugin sub-steps: build the
// input vector per the plugin's port-routing rule, invoke Process if
// running, read outputs back (sanitized, or forced to 0.0 when not
// running), and record internal variables.
func (e *Engine) tickPlugin(snap *Snapshot, p workspace.PluginDefinition, inst plugin.Instance) {
	if lm, ok := inst.(plugin.LatencyAware); ok {
		lm.SetWorkspacePeriod(e.resolved.PeriodSeconds)
		lm.RecordLatency(e.lastLatencySeconds)
	}
	if ap, ok := inst.(plugin.ActivePortsAware); ok {
		ap.SetActivePorts(e.cache.IncomingPorts(p.ID), e.cache.OutgoingPorts(p.ID))
	}
	if dc, ok := inst.(dirtyCheckable); ok {
		if err := dc.ConfigureDirty(p.Config, e.resolved.PeriodSeconds, e.workspace.Settings.MaxIntegrationSteps); err != nil {
			logger.PluginErrorw("dynamic plugin rejected reconfiguration", "plugin_id", p.ID, "error", err)
		}
	}

	e.feedInputs(snap, p, inst)

	if p.Running {
		func() {
			defer e.recoverPlugin(snap, p.ID)
			inst.Process(snap.Tick, e.resolved.PeriodSeconds)
		}()
	}

	e.readOutputs(p, inst)
	e.readVariables(snap, p, inst)
}

// feedInputs builds and writes this plugin's input vector, following
// spec.md §4.D step 3's three routing rules (extendable, dynamic,
// DAQ), and records each fed value into the snapshot.
func (e *Engine) feedInputs(snap *Snapshot, p workspace.PluginDefinition, inst plugin.Instance) {
	switch {
	case connections.IsExtendableInputs(p.Kind):
		for _, port := range inst.InputPorts() {
			idx, ok := connections.ExtendableInputIndex(port)
			var value float64
			if ok && idx == 0 {
				value = e.cache.InputSumAny(e.outputs, p.ID, "in_0", "in")
			} else {
				value = e.cache.InputSum(e.outputs, p.ID, port)
			}
			inst.SetInput(port, value)
			snap.InputValues[connections.PortRef{Plugin: p.ID, Port: port}] = value
		}

	case p.Kind == "comedi_daq":
		for port := range e.cache.IncomingPorts(p.ID) {
			value := e.cache.InputSum(e.outputs, p.ID, port)
			inst.SetInput(port, value)
			snap.InputValues[connections.PortRef{Plugin: p.ID, Port: port}] = value
		}

	default:
		connected := e.cache.IncomingPorts(p.ID)
		for _, port := range inst.InputPorts() {
			var value float64
			if _, ok := connected[port]; ok {
				value = e.cache.InputSum(e.outputs, p.ID, port)
			}
			inst.SetInput(port, value)
			snap.InputValues[connections.PortRef{Plugin: p.ID, Port: port}] = value
		}
	}
}

func (e *Engine) readOutputs(p workspace.PluginDefinition, inst plugin.Instance) {
	_, isDynamic := inst.(dirtyCheckable)
	for _, port := range inst.OutputPorts() {
		ref := connections.PortRef{Plugin: p.ID, Port: port}
		if !p.Running {
			e.outputs[ref] = 0.0
			continue
		}
		value := inst.GetOutput(port)
		if isDynamic {
			value = signal.Sanitize(value)
		}
		e.outputs[ref] = value
	}
}

func (e *Engine) readVariables(snap *Snapshot, p workspace.PluginDefinition, inst plugin.Instance) {
	schema := inst.DisplaySchema()
	if schema == nil {
		return
	}
	for _, name := range schema.Variables {
		if v, ok := inst.GetVariable(name); ok {
			snap.Variables[connections.PortRef{Plugin: p.ID, Port: name}] = v
		}
	}
}

func (e *Engine) recoverPlugin(snap *Snapshot, id workspace.PluginID) {
	if r := recover(); r != nil {
		logger.PluginErrorw("plugin process panicked, disabling", "plugin_id", id, "panic", r)
		if def, _ := e.workspace.PluginByID(id); def != nil {
			def.Running = false
		}
		snap.Failures = append(snap.Failures, PluginFailure{PluginID: uint64(id), Reason: errors.Newf("%v", r).Error()})
	}
}

func (e *Engine) publish(s *Snapshot) {
	for {
		select {
		case e.snapshotCh <- s:
			return
		default:
			select {
			case <-e.snapshotCh:
			default:
			}
		}
	}
}

func (e *Engine) rebuildCache() {
	e.cache = connections.Build(&e.workspace)
}

// createInstance loads and configures a plugin instance. resetRunning
// mirrors message_processor.rs's Vacant-entry check on its
// plugin_running map: true for a genuinely new id (initial engine
// construction, or a new id arriving via UpdateWorkspace), which
// derives the running flag from the instance's loads_started
// behavior; false for RestartPlugin, which replaces the instance but
// leaves the existing running flag untouched.
func (e *Engine) createInstance(p workspace.PluginDefinition, resetRunning bool) {
	inst, path, err := e.instantiate(p)
	if err != nil {
		logger.PluginErrorw("failed to load plugin, omitting from workspace", "plugin_id", p.ID, "kind", p.Kind, "path", path, "error", err)
		return
	}

	if err := inst.SetConfig(p.Config); err != nil {
		logger.PluginErrorw("plugin rejected initial config", "plugin_id", p.ID, "kind", p.Kind, "error", err)
	}
	if ta, ok := inst.(plugin.TimeAxisAware); ok {
		ta.SetTimeAxis(e.resolved.TimeScale, e.resolved.TimeLabel)
	}

	running := p.Running
	def, _ := e.workspace.PluginByID(p.ID)
	if resetRunning {
		running = inst.Behavior().LoadsStarted
		if def != nil {
			def.Running = running
		}
	}
	if ra, ok := inst.(plugin.RunAware); ok {
		ra.SetRunning(running)
	}

	logger.PluginInfow("plugin instance created", "plugin_id", p.ID, "kind", p.Kind, "running", running)
	e.instances[p.ID] = inst
}

// instantiate dispatches on kind the same way message_processor.rs's
// process_message does: recognized built-in kinds construct directly;
// anything else is treated as an externally loaded library whose path
// lives at config["library_path"].
func (e *Engine) instantiate(p workspace.PluginDefinition) (plugin.Instance, string, error) {
	if inst, ok := builtin.New(p.Kind); ok {
		return inst, "", nil
	}

	path, _ := p.Config["library_path"].(string)
	if path == "" {
		return nil, "", errors.Newf("plugin kind %q is not a built-in and has no library_path", p.Kind)
	}
	inst, err := plugin.Load(path, uint64(p.ID))
	if err != nil {
		return nil, path, err
	}
	return inst, path, nil
}

func (e *Engine) destroyInstance(id workspace.PluginID) {
	if inst, ok := e.instances[id]; ok {
		inst.Destroy()
		delete(e.instances, id)
		logger.PluginInfow("plugin instance destroyed", "plugin_id", id)
	}
	for ref := range e.outputs {
		if ref.Plugin == id {
			delete(e.outputs, ref)
		}
	}
}

func errNotFound(id workspace.PluginID) error {
	return errors.Newf("plugin %d not found in workspace", id)
}

func portKeyFor(id workspace.PluginID, name string) connections.PortRef {
	return connections.PortRef{Plugin: id, Port: name}
}
