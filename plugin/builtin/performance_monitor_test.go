package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformanceMonitorConfigFromLatencyUnit(t *testing.T) {
	m := NewPerformanceMonitor()
	require.NoError(t, m.SetConfig(map[string]interface{}{
		"latency": float64(2),
		"units":   "ms",
	}))
	v, ok := m.GetVariable("max_latency_us")
	require.True(t, ok)
	assert.Equal(t, 2000.0, v)
}

func TestPerformanceMonitorConfigFallsBackToMaxLatencyUs(t *testing.T) {
	m := NewPerformanceMonitor()
	require.NoError(t, m.SetConfig(map[string]interface{}{"max_latency_us": float64(500)}))
	v, ok := m.GetVariable("max_latency_us")
	require.True(t, ok)
	assert.Equal(t, 500.0, v)
}

func TestPerformanceMonitorRealtimeViolation(t *testing.T) {
	m := NewPerformanceMonitor()
	require.NoError(t, m.SetConfig(map[string]interface{}{"max_latency_us": float64(100)}))
	m.SetWorkspacePeriod(0.001)

	m.RecordLatency(0.00005) // 50us, under threshold
	m.Process(0, 0.001)
	assert.Equal(t, 0.0, m.GetOutput("realtime_violation"))

	m.RecordLatency(0.0005) // 500us, over threshold
	m.Process(1, 0.001)
	assert.Equal(t, 1.0, m.GetOutput("realtime_violation"))
}

func TestPerformanceMonitorOutputPorts(t *testing.T) {
	m := NewPerformanceMonitor()
	assert.ElementsMatch(t, []string{"period_us", "latency_us", "jitter_us", "realtime_violation"}, m.OutputPorts())
}
