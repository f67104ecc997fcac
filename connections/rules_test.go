package connections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/workspace"
)

func liveplotterWorkspace() *workspace.Definition {
	return &workspace.Definition{
		Plugins: []workspace.PluginDefinition{
			{ID: 10, Kind: "some_source"},
			{ID: 11, Kind: "some_source"},
			{ID: 12, Kind: "some_source"},
			{ID: 7, Kind: "live_plotter", Config: map[string]interface{}{}},
		},
	}
}

func TestAddConnectionSelfLoopRejected(t *testing.T) {
	ws := liveplotterWorkspace()
	err := AddConnection(ws, nil, 10, "y", 10, "x", workspace.KindInProcess)
	assert.ErrorIs(t, err, ErrSelfConnection)
}

func TestAddConnectionDuplicateRejected(t *testing.T) {
	ws := &workspace.Definition{
		Plugins: []workspace.PluginDefinition{{ID: 1}, {ID: 2}},
	}
	require.NoError(t, AddConnection(ws, nil, 1, "y", 2, "x", workspace.KindInProcess))
	err := AddConnection(ws, nil, 1, "y", 2, "x", workspace.KindInProcess)
	assert.ErrorIs(t, err, ErrDuplicateConnection)
}

func TestAddConnectionInputLimitExceeded(t *testing.T) {
	ws := &workspace.Definition{
		Plugins: []workspace.PluginDefinition{{ID: 1}, {ID: 2}, {ID: 3}},
	}
	require.NoError(t, AddConnection(ws, nil, 1, "y", 3, "x", workspace.KindInProcess))
	err := AddConnection(ws, nil, 2, "y", 3, "x", workspace.KindInProcess)
	assert.ErrorIs(t, err, ErrInputLimitExceeded)
}

// TestExtendableInputCompaction mirrors spec.md's scenario 2: three
// sources wired to a live_plotter's legacy "in" alias each land on the
// next free in_i index, then removing the middle input renumbers what
// remains and shrinks input_count to match.
func TestExtendableInputCompaction(t *testing.T) {
	ws := liveplotterWorkspace()

	require.NoError(t, AddConnection(ws, nil, 10, "y", 7, "in", workspace.KindInProcess))
	require.NoError(t, AddConnection(ws, nil, 11, "y", 7, "in", workspace.KindInProcess))
	require.NoError(t, AddConnection(ws, nil, 12, "y", 7, "in", workspace.KindInProcess))

	ports := make(map[string]workspace.PluginID)
	for _, conn := range ws.Connections {
		ports[conn.ToPort] = conn.FromPlugin
	}
	assert.Equal(t, workspace.PluginID(10), ports["in_0"])
	assert.Equal(t, workspace.PluginID(11), ports["in_1"])
	assert.Equal(t, workspace.PluginID(12), ports["in_2"])

	plotter, _ := ws.PluginByID(7)
	count, _ := configInt(plotter.Config, "input_count")
	assert.Equal(t, 3, count)

	RemoveExtendableInput(ws, 7, 1)

	ports = make(map[string]workspace.PluginID)
	for _, conn := range ws.Connections {
		ports[conn.ToPort] = conn.FromPlugin
	}
	assert.Len(t, ports, 2)
	assert.Equal(t, workspace.PluginID(10), ports["in_0"])
	assert.Equal(t, workspace.PluginID(12), ports["in_1"])
	_, stillPresent := ports["in_2"]
	assert.False(t, stillPresent)

	count, _ = configInt(plotter.Config, "input_count")
	assert.Equal(t, 2, count)
}

func TestAddConnectionDefaultCSVColumn(t *testing.T) {
	ws := &workspace.Definition{
		Plugins: []workspace.PluginDefinition{
			{ID: 1, Kind: "some_source"},
			{ID: 2, Kind: "csv_recorder", Config: map[string]interface{}{}},
		},
	}
	namer := func(ws *workspace.Definition, id workspace.PluginID) string {
		if id == 1 {
			return "Temperature Sensor"
		}
		return "recorder"
	}
	require.NoError(t, AddConnection(ws, namer, 1, "y", 2, "in", workspace.KindInProcess))

	recorder, _ := ws.PluginByID(2)
	columns, ok := configStrings(recorder.Config, "columns")
	require.True(t, ok)
	require.Len(t, columns, 1)
	assert.Equal(t, "temperature_sensor_1_y", columns[0])
}

func TestAddConnectionNonExtendableSinkRejectsSecondInput(t *testing.T) {
	ws := &workspace.Definition{
		Plugins: []workspace.PluginDefinition{{ID: 1}, {ID: 2}, {ID: 3, Kind: "performance_monitor"}},
	}
	require.NoError(t, AddConnection(ws, nil, 1, "y", 3, "threshold", workspace.KindInProcess))
	err := AddConnection(ws, nil, 2, "y", 3, "threshold", workspace.KindInProcess)
	assert.ErrorIs(t, err, ErrInputLimitExceeded)
}
