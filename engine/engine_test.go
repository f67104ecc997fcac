package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/connections"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

func testWorkspace(plugins []workspace.PluginDefinition, conns []workspace.ConnectionDefinition) workspace.Definition {
	return workspace.Definition{
		Name:        "test",
		Plugins:     plugins,
		Connections: conns,
		Settings:    workspace.DefaultSettings(),
	}
}

// A single edge from performance_monitor's period_us output into a
// csv_recorder's in_0 extendable input must show up both in the
// engine's global outputs map and in the recorder's fed input vector,
// per spec.md §8's single-edge propagation property.
func TestTickOnce_SingleEdgePropagation(t *testing.T) {
	ws := testWorkspace(
		[]workspace.PluginDefinition{
			{ID: 1, Kind: "performance_monitor", Config: map[string]interface{}{}},
			{ID: 2, Kind: "csv_recorder", Config: map[string]interface{}{"input_count": 1.0}},
		},
		[]workspace.ConnectionDefinition{
			{FromPlugin: 1, FromPort: "period_us", ToPlugin: 2, ToPort: "in_0", Kind: workspace.KindInProcess},
		},
	)

	e, err := New(ws)
	require.NoError(t, err)

	// performance_monitor loads started; csv_recorder does not, so the
	// engine skips its Process call, but it still feeds the recorder's
	// inputs and records them in the snapshot's InputValues.
	snap := e.tickOnce(e.nextTick(), time.Now())

	period := e.outputs[connections.PortRef{Plugin: 1, Port: "period_us"}]
	assert.Greater(t, period, 0.0)

	fed := snap.InputValues[connections.PortRef{Plugin: 2, Port: "in_0"}]
	assert.Equal(t, period, fed)
}

// A plugin whose workspace Running flag is false must have every
// output forced to 0.0 regardless of what Process would otherwise
// compute, and Process itself must not be invoked.
func TestTickOnce_RunningFlagIsolation(t *testing.T) {
	ws := testWorkspace([]workspace.PluginDefinition{
		{ID: 1, Kind: "performance_monitor", Config: map[string]interface{}{}, Running: true},
	}, nil)

	e, err := New(ws)
	require.NoError(t, err)

	// New() derives the running flag from Behavior().LoadsStarted for a
	// freshly created instance, so force it off to exercise the isolation
	// path explicitly.
	p, _ := e.workspace.PluginByID(1)
	p.Running = false

	e.tickOnce(e.nextTick(), time.Now())

	assert.Equal(t, 0.0, e.outputs[connections.PortRef{Plugin: 1, Port: "period_us"}])
	assert.Equal(t, 0.0, e.outputs[connections.PortRef{Plugin: 1, Port: "latency_us"}])
}

// UpdateWorkspace must create instances only for plugin ids the engine
// has never seen, destroy instances for ids no longer present, and
// leave everything else untouched.
func TestUpdateWorkspace_Reconciliation(t *testing.T) {
	ws := testWorkspace([]workspace.PluginDefinition{
		{ID: 1, Kind: "performance_monitor", Config: map[string]interface{}{}},
		{ID: 2, Kind: "csv_recorder", Config: map[string]interface{}{}},
	}, nil)

	e, err := New(ws)
	require.NoError(t, err)
	require.Len(t, e.instances, 2)

	original := e.instances[1]

	next := testWorkspace([]workspace.PluginDefinition{
		{ID: 1, Kind: "performance_monitor", Config: map[string]interface{}{}},
		{ID: 3, Kind: "csv_recorder", Config: map[string]interface{}{}},
	}, nil)

	cmd := &UpdateWorkspace{Workspace: next}
	cmd.apply(e)

	assert.Len(t, e.instances, 2)
	assert.Same(t, original, e.instances[1])
	_, stillHasTwo := e.instances[2]
	assert.False(t, stillHasTwo)
	_, hasThree := e.instances[3]
	assert.True(t, hasThree)
}

// SetPluginRunning must flip both the stored definition's flag and, for
// instances implementing RunAware, the instance's own running gate —
// without touching the instance itself.
func TestSetPluginRunning(t *testing.T) {
	ws := testWorkspace([]workspace.PluginDefinition{
		{ID: 1, Kind: "csv_recorder", Config: map[string]interface{}{"input_count": 1.0}},
	}, nil)

	e, err := New(ws)
	require.NoError(t, err)

	done := make(chan error, 1)
	cmd := &SetPluginRunning{PluginID: 1, Running: true, Done: done}
	cmd.apply(e)
	require.NoError(t, <-done)

	p, _ := e.workspace.PluginByID(1)
	assert.True(t, p.Running)
}

// A restarted plugin gets a brand new instance, but its workspace
// definition (config, running flag) survives unchanged.
func TestRestartPlugin(t *testing.T) {
	ws := testWorkspace([]workspace.PluginDefinition{
		{ID: 1, Kind: "performance_monitor", Config: map[string]interface{}{}, Running: true},
	}, nil)

	e, err := New(ws)
	require.NoError(t, err)
	before := e.instances[1]

	done := make(chan error, 1)
	cmd := &RestartPlugin{PluginID: 1, Done: done}
	cmd.apply(e)
	require.NoError(t, <-done)

	assert.NotSame(t, before, e.instances[1])
	p, _ := e.workspace.PluginByID(1)
	assert.True(t, p.Running)
}

// An unknown plugin kind with no library_path is rejected and simply
// omitted from the instance map rather than aborting engine
// construction, matching the ABI-rejection edge case in spec.md §8.
func TestCreateInstance_UnknownKindOmitted(t *testing.T) {
	ws := testWorkspace([]workspace.PluginDefinition{
		{ID: 1, Kind: "not_a_real_plugin", Config: map[string]interface{}{}},
	}, nil)

	e, err := New(ws)
	require.NoError(t, err)
	assert.Empty(t, e.instances)
}

// Tick numbers are monotonically increasing across successive ticks.
func TestNextTick_Monotonic(t *testing.T) {
	e, err := New(testWorkspace(nil, nil))
	require.NoError(t, err)

	a := e.nextTick()
	b := e.nextTick()
	c := e.nextTick()
	assert.Equal(t, a+1, b)
	assert.Equal(t, b+1, c)
}
