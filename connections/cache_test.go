package connections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/workspace"
)

func twoPluginWorkspace() *workspace.Definition {
	return &workspace.Definition{
		Plugins: []workspace.PluginDefinition{
			{ID: 1, Kind: "performance_monitor"},
			{ID: 2, Kind: "some_dynamic_sink"},
		},
	}
}

func TestInputSumMissingSourceIsZero(t *testing.T) {
	ws := twoPluginWorkspace()
	ws.Connections = []workspace.ConnectionDefinition{
		{FromPlugin: 1, FromPort: "period_us", ToPlugin: 2, ToPort: "x", Kind: workspace.KindSharedMemory},
	}
	cache := Build(ws)
	outputs := map[PortRef]float64{}
	assert.Equal(t, 0.0, cache.InputSum(outputs, 2, "x"))
}

func TestInputSumStableSummationOrder(t *testing.T) {
	ws := &workspace.Definition{
		Plugins: []workspace.PluginDefinition{{ID: 1}, {ID: 2}, {ID: 3, Kind: "live_plotter"}},
		Connections: []workspace.ConnectionDefinition{
			{FromPlugin: 1, FromPort: "y", ToPlugin: 3, ToPort: "in_0"},
			{FromPlugin: 2, FromPort: "y", ToPlugin: 3, ToPort: "in_0"},
		},
	}
	cache := Build(ws)
	outputs := map[PortRef]float64{
		{Plugin: 1, Port: "y"}: 1.0,
		{Plugin: 2, Port: "y"}: 2.0,
	}
	assert.Equal(t, 3.0, cache.InputSum(outputs, 3, "in_0"))
}

func TestInputSumAnyLegacyAlias(t *testing.T) {
	ws := &workspace.Definition{
		Plugins: []workspace.PluginDefinition{{ID: 1}, {ID: 2, Kind: "csv_recorder"}},
		Connections: []workspace.ConnectionDefinition{
			{FromPlugin: 1, FromPort: "y", ToPlugin: 2, ToPort: "in_0"},
		},
	}
	cache := Build(ws)
	outputs := map[PortRef]float64{{Plugin: 1, Port: "y"}: 5.0}
	assert.Equal(t, 5.0, cache.InputSumAny(outputs, 2, "in_0", "in"))
}

func TestExtendableInputIndex(t *testing.T) {
	idx, ok := ExtendableInputIndex("in")
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = ExtendableInputIndex("in_3")
	require.True(t, ok)
	assert.Equal(t, 3, idx)

	_, ok = ExtendableInputIndex("x")
	assert.False(t, ok)
}

func TestNextAvailableExtendableInputIndex(t *testing.T) {
	ws := &workspace.Definition{
		Plugins: []workspace.PluginDefinition{{ID: 7, Kind: "live_plotter"}},
		Connections: []workspace.ConnectionDefinition{
			{ToPlugin: 7, ToPort: "in_0"},
			{ToPlugin: 7, ToPort: "in_2"},
		},
	}
	assert.Equal(t, 1, NextAvailableExtendableInputIndex(ws, 7))
}
