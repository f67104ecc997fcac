package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/engine"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	mgr := workspace.NewManager(t.TempDir())
	require.NoError(t, mgr.Scan())

	eng, err := engine.New(mgr.Workspace)
	require.NoError(t, err)
	eng.Start()
	t.Cleanup(eng.Close)

	catalog := NewCatalog(t.TempDir(), eng)
	ids := workspace.NewIDAllocator()
	settings, err := NewSettingsStore(t.TempDir())
	require.NoError(t, err)

	d := New(mgr, eng, catalog, ids, settings)
	t.Cleanup(d.Close)
	return d
}

func TestDispatch_PluginAddAppearsInRuntimeList(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Dispatch(Request{Kind: PluginAdd, Name: "performance_monitor"})
	require.Equal(t, StatusPayload, resp.Status)
	added, ok := resp.Payload.(PluginAdded)
	require.True(t, ok)
	assert.NotZero(t, added.ID)

	resp = d.Dispatch(Request{Kind: RuntimeList})
	require.Equal(t, StatusPayload, resp.Status)
	summaries, ok := resp.Payload.([]RuntimeSummary)
	require.True(t, ok)
	require.Len(t, summaries, 1)
	assert.Equal(t, "performance_monitor", summaries[0].Kind)
	assert.Equal(t, added.ID, summaries[0].ID)
}

func TestDispatch_PluginAddUnknownKindFails(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Dispatch(Request{Kind: PluginAdd, Name: "not_a_real_plugin"})
	assert.Equal(t, StatusError, resp.Status)
}

func TestDispatch_PluginRemove(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Dispatch(Request{Kind: PluginAdd, Name: "csv_recorder"})
	require.Equal(t, StatusPayload, resp.Status)
	id := resp.Payload.(PluginAdded).ID

	resp = d.Dispatch(Request{Kind: PluginRemove, PluginID: id})
	assert.Equal(t, StatusOK, resp.Status)

	resp = d.Dispatch(Request{Kind: RuntimeList})
	summaries := resp.Payload.([]RuntimeSummary)
	assert.Empty(t, summaries)
}

func TestDispatch_ConnectionAddAndList(t *testing.T) {
	d := newTestDispatcher(t)

	from := d.Dispatch(Request{Kind: PluginAdd, Name: "performance_monitor"}).Payload.(PluginAdded).ID
	to := d.Dispatch(Request{Kind: PluginAdd, Name: "csv_recorder"}).Payload.(PluginAdded).ID

	resp := d.Dispatch(Request{
		Kind:       ConnectionAdd,
		FromPlugin: from,
		FromPort:   "period_us",
		ToPlugin:   to,
		ToPort:     "in_0",
		ConnKind:   workspace.KindInProcess,
	})
	require.Equal(t, StatusOK, resp.Status)

	resp = d.Dispatch(Request{Kind: ConnectionList})
	require.Equal(t, StatusPayload, resp.Status)
	conns := resp.Payload.([]ConnectionSummary)
	require.Len(t, conns, 1)
	assert.Equal(t, from, conns[0].FromPlugin)
	assert.Equal(t, "in_0", conns[0].ToPort)
}

func TestDispatch_ConnectionAddRejectsUnknownSourcePort(t *testing.T) {
	d := newTestDispatcher(t)

	from := d.Dispatch(Request{Kind: PluginAdd, Name: "performance_monitor"}).Payload.(PluginAdded).ID
	to := d.Dispatch(Request{Kind: PluginAdd, Name: "csv_recorder"}).Payload.(PluginAdded).ID

	resp := d.Dispatch(Request{
		Kind:       ConnectionAdd,
		FromPlugin: from,
		FromPort:   "not_a_real_port",
		ToPlugin:   to,
		ToPort:     "in_0",
		ConnKind:   workspace.KindInProcess,
	})
	assert.Equal(t, StatusError, resp.Status)
}

func TestDispatch_ConnectionRemoveIndexOutOfRange(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Dispatch(Request{Kind: ConnectionRemoveIndex, Index: 5})
	assert.Equal(t, StatusError, resp.Status)
}

func TestDispatch_RuntimeStartStop(t *testing.T) {
	d := newTestDispatcher(t)

	id := d.Dispatch(Request{Kind: PluginAdd, Name: "csv_recorder"}).Payload.(PluginAdded).ID

	resp := d.Dispatch(Request{Kind: RuntimeStart, PluginID: id})
	require.Equal(t, StatusOK, resp.Status)

	resp = d.Dispatch(Request{Kind: RuntimeList})
	summaries := resp.Payload.([]RuntimeSummary)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Running)

	resp = d.Dispatch(Request{Kind: RuntimeStop, PluginID: id})
	require.Equal(t, StatusOK, resp.Status)

	resp = d.Dispatch(Request{Kind: RuntimeList})
	summaries = resp.Payload.([]RuntimeSummary)
	assert.False(t, summaries[0].Running)
}

func TestDispatch_RuntimeShowUnknownPlugin(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Dispatch(Request{Kind: RuntimeShow, PluginID: 999})
	assert.Equal(t, StatusError, resp.Status)
}

func TestDispatch_SettingsSetMutualExclusivity(t *testing.T) {
	d := newTestDispatcher(t)

	freq := 5.0
	period := 2.0
	resp := d.Dispatch(Request{Kind: RuntimeSettingsSet, SettingsPatch: workspace.Patch{
		FrequencyValue: &freq,
		PeriodValue:    &period,
	}})
	assert.Equal(t, StatusError, resp.Status)
}

func TestDispatch_SettingsSetAppliesAndResolves(t *testing.T) {
	d := newTestDispatcher(t)

	freq := 2.0
	unit := "khz"
	resp := d.Dispatch(Request{Kind: RuntimeSettingsSet, SettingsPatch: workspace.Patch{
		FrequencyValue: &freq,
		FrequencyUnit:  &unit,
	}})
	require.Equal(t, StatusPayload, resp.Status)
	settings := resp.Payload.(workspace.Settings)
	assert.Equal(t, 2.0, settings.FrequencyValue)
	assert.Equal(t, "khz", settings.FrequencyUnit)
}

func TestDispatch_WorkspaceListIncludesSavedWorkspace(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Dispatch(Request{Kind: WorkspaceNew, Name: "bench a", Description: "desc"})
	require.Equal(t, StatusOK, resp.Status)

	resp = d.Dispatch(Request{Kind: WorkspaceList})
	require.Equal(t, StatusPayload, resp.Status)
	entries := resp.Payload.([]workspace.Entry)
	require.Len(t, entries, 1)
	assert.Equal(t, "bench a", entries[0].Name)
}

func TestDispatch_RateLimitExceeded(t *testing.T) {
	d := newTestDispatcher(t)

	var last Response
	for i := 0; i < 50; i++ {
		last = d.Dispatch(Request{Kind: RuntimeList, Caller: "flood"})
	}
	assert.Equal(t, StatusError, last.Status)
	assert.Contains(t, last.Message, "rate limit")
}

func TestDispatch_UnknownRequestKind(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Dispatch(Request{Kind: RequestKind("NotARealKind")})
	assert.Equal(t, StatusError, resp.Status)
}

// RuntimeList/RuntimeShow reflect the engine's own published state,
// not just the workspace definition, once at least one tick has run.
func TestDispatch_RuntimeShowReflectsPublishedOutputs(t *testing.T) {
	d := newTestDispatcher(t)

	id := d.Dispatch(Request{Kind: PluginAdd, Name: "performance_monitor"}).Payload.(PluginAdded).ID

	require.Eventually(t, func() bool {
		resp := d.Dispatch(Request{Kind: RuntimeShow, PluginID: id})
		if resp.Status != StatusPayload {
			return false
		}
		detail := resp.Payload.(RuntimeDetail)
		_, ok := detail.Outputs["period_us"]
		return ok
	}, time.Second, 5*time.Millisecond)
}
