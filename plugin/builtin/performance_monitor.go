package builtin

import (
	"math"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/rtsyn-dev/rtsyn/logger"
	"github.com/rtsyn-dev/rtsyn/plugin"
)

func latencyUsFromUnit(value float64, unit string) float64 {
	switch unit {
	case "ns":
		return value / 1000.0
	case "ms":
		return value * 1000.0
	case "s":
		return value * 1_000_000.0
	default: // "us"
		return value
	}
}

// PerformanceMonitor surfaces the engine's real-time health on four
// outputs: period_us (observed wall-clock tick interval), latency_us
// (wall time the previous tick spent computing, fed by the engine via
// RecordLatency), jitter_us (deviation from the nominal workspace
// period), and realtime_violation (1.0 once latency exceeds the
// configured threshold, else 0.0). Grounded on
// plugin_processors.rs's process_performance_monitor; the host CPU
// sample is an enrichment beyond the original (see SPEC_FULL.md).
type PerformanceMonitor struct {
	maxLatencyUs      float64
	workspacePeriodUs float64

	lastLatencyUs float64
	lastTickTime  time.Time
	havePrevTick  bool

	periodUs   float64
	jitterUs   float64
	violation  bool
	hostCPUPct float64
}

func NewPerformanceMonitor() *PerformanceMonitor {
	return &PerformanceMonitor{maxLatencyUs: 1000.0}
}

func (m *PerformanceMonitor) InputPorts() []string { return nil }

func (m *PerformanceMonitor) OutputPorts() []string {
	return []string{"period_us", "latency_us", "jitter_us", "realtime_violation"}
}

func (m *PerformanceMonitor) DisplaySchema() *plugin.DisplaySchema {
	return &plugin.DisplaySchema{Variables: []string{"max_latency_us", "host_cpu_percent"}}
}

func (m *PerformanceMonitor) Behavior() plugin.Behavior { return plugin.Behavior{LoadsStarted: true} }

// SetConfig resolves max_latency_us from either the original "latency"
// + "units"/"period_unit" pair or a precomputed "max_latency_us",
// mirroring process_performance_monitor's fallback chain.
func (m *PerformanceMonitor) SetConfig(cfg map[string]interface{}) error {
	unit := configString(cfg, "units", configString(cfg, "period_unit", "us"))

	if raw, ok := cfg["latency"]; ok {
		if v, ok := raw.(float64); ok {
			m.maxLatencyUs = latencyUsFromUnit(v, unit)
			return nil
		}
	}
	m.maxLatencyUs = configFloat(cfg, "max_latency_us", 1000.0)
	return nil
}

// SetWorkspacePeriod is called by the engine every tick (its value
// tracks settings.Resolve(), not the plugin's own config) ahead of
// Process, mirroring settings.period_seconds * 1e6 in the original.
func (m *PerformanceMonitor) SetWorkspacePeriod(periodSeconds float64) {
	m.workspacePeriodUs = periodSeconds * 1_000_000.0
}

// RecordLatency is called by the engine immediately before Process
// with the wall-clock time the previous tick's full plugin sweep took,
// implementing spec.md §4.D step 6's "thread-local that
// performance_monitor reads during its own process call".
func (m *PerformanceMonitor) RecordLatency(latencySeconds float64) {
	m.lastLatencyUs = latencySeconds * 1_000_000.0
}

func (m *PerformanceMonitor) SetInput(port string, value float64) {}

func (m *PerformanceMonitor) GetOutput(port string) float64 {
	switch port {
	case "period_us":
		return m.periodUs
	case "latency_us":
		return m.lastLatencyUs
	case "jitter_us":
		return m.jitterUs
	case "realtime_violation":
		if m.violation {
			return 1.0
		}
		return 0.0
	default:
		return 0
	}
}

func (m *PerformanceMonitor) GetVariable(name string) (interface{}, bool) {
	switch name {
	case "max_latency_us":
		return m.maxLatencyUs, true
	case "host_cpu_percent":
		return m.hostCPUPct, true
	default:
		return nil, false
	}
}

func (m *PerformanceMonitor) Process(tick uint64, periodSeconds float64) {
	now := time.Now()
	if m.havePrevTick {
		m.periodUs = now.Sub(m.lastTickTime).Seconds() * 1_000_000.0
	} else {
		m.periodUs = m.workspacePeriodUs
	}
	m.lastTickTime = now
	m.havePrevTick = true

	m.jitterUs = math.Abs(m.periodUs - m.workspacePeriodUs)
	m.violation = m.lastLatencyUs > m.maxLatencyUs

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		m.hostCPUPct = percents[0]
	} else if err != nil {
		logger.Debugw("performance_monitor host CPU sample failed", "error", err)
	}
}

func (m *PerformanceMonitor) Destroy() {}
