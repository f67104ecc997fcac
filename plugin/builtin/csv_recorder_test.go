package builtin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRecorderWritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	r := NewCSVRecorder()
	require.NoError(t, r.SetConfig(map[string]interface{}{
		"input_count": float64(2),
		"columns":     []interface{}{"a", ""},
		"path":        path,
		"include_time": true,
	}))
	r.SetRunning(true)
	r.SetTimeAxis(1000, "time_ms")

	r.SetInput("in_0", 1.5)
	r.SetInput("in_1", 2.5)
	r.Process(0, 0.001)
	r.SetInput("in_0", 1.6)
	r.SetInput("in_1", 2.6)
	r.Process(1, 0.001)
	r.Destroy()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "time_ms,a,empty")
	assert.Contains(t, content, "1.5,2.5")
	assert.Contains(t, content, "1.6,2.6")
}

func TestCSVRecorderInputPortsTracksCount(t *testing.T) {
	r := NewCSVRecorder()
	require.NoError(t, r.SetConfig(map[string]interface{}{"input_count": float64(3)}))
	assert.Equal(t, []string{"in_0", "in_1", "in_2"}, r.InputPorts())
}

func TestCSVRecorderVariables(t *testing.T) {
	r := NewCSVRecorder()
	require.NoError(t, r.SetConfig(map[string]interface{}{"input_count": float64(1)}))
	r.SetRunning(true)

	count, ok := r.GetVariable("input_count")
	require.True(t, ok)
	assert.Equal(t, 1.0, count)

	running, ok := r.GetVariable("running")
	require.True(t, ok)
	assert.Equal(t, true, running)

	_, ok = r.GetVariable("nonexistent")
	assert.False(t, ok)
}
