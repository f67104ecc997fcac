package builtin

import (
	"fmt"
	"sync"

	"github.com/rtsyn-dev/rtsyn/plugin"
)

// Sample is one captured row from a running live_plotter: the tick it
// was taken on and the input vector at that instant.
type Sample struct {
	Tick   uint64
	Inputs []float64
}

// LivePlotter captures extendable-input samples while running for a
// downstream plot viewer; it exposes no outputs to the graph (spec.md
// §4.C: "live_plotter does not expose outputs consumed by the graph").
// Grounded on plugin_processors.rs's process_live_plotter.
type LivePlotter struct {
	inputCount int
	running    bool
	inputs     []float64

	mu      sync.Mutex
	samples []Sample
}

func NewLivePlotter() *LivePlotter {
	return &LivePlotter{}
}

func (p *LivePlotter) InputPorts() []string {
	ports := make([]string, p.inputCount)
	for i := range ports {
		ports[i] = fmt.Sprintf("in_%d", i)
	}
	return ports
}

func (p *LivePlotter) OutputPorts() []string { return nil }

func (p *LivePlotter) DisplaySchema() *plugin.DisplaySchema {
	return &plugin.DisplaySchema{Variables: []string{"input_count", "running"}}
}

func (p *LivePlotter) Behavior() plugin.Behavior { return plugin.Behavior{LoadsStarted: false} }

func (p *LivePlotter) SetConfig(cfg map[string]interface{}) error {
	p.inputCount = configIntOr(cfg, "input_count", 0)
	p.inputs = make([]float64, p.inputCount)
	return nil
}

// SetRunning implements plugin.RunAware.
func (p *LivePlotter) SetRunning(running bool) { p.running = running }

func (p *LivePlotter) SetInput(port string, value float64) {
	idx, ok := portIndex(port)
	if !ok || idx < 0 || idx >= len(p.inputs) {
		return
	}
	p.inputs[idx] = value
}

func (p *LivePlotter) GetOutput(port string) float64 { return 0 }

func (p *LivePlotter) GetVariable(name string) (interface{}, bool) {
	switch name {
	case "input_count":
		return float64(p.inputCount), true
	case "running":
		return p.running, true
	default:
		return nil, false
	}
}

// Process appends the current input vector to the sample queue when
// running. The engine only calls Process for running plugins, but
// live_plotter tracks its own running flag too since the GUI viewer
// reads Samples independently of the tick loop's gating.
func (p *LivePlotter) Process(tick uint64, periodSeconds float64) {
	if !p.running {
		return
	}
	row := make([]float64, len(p.inputs))
	copy(row, p.inputs)

	p.mu.Lock()
	p.samples = append(p.samples, Sample{Tick: tick, Inputs: row})
	p.mu.Unlock()
}

// DrainSamples returns and clears all samples captured since the last
// drain, for publication alongside the engine's snapshot (spec.md §4.D
// step 4, §4.A's plotter_samples map).
func (p *LivePlotter) DrainSamples() []Sample {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.samples
	p.samples = nil
	return out
}

func (p *LivePlotter) Destroy() {}
