// Package builtin adapts the host's native plugin kinds — the ones
// that ship with RTSyn itself rather than arriving as external C-ABI
// libraries — to the plugin.Instance capability set. Grounded on
// original_source/rtsyn-runtime/src/plugin_processors.rs's per-kind
// tick logic.
package builtin

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rtsyn-dev/rtsyn/errors"
	"github.com/rtsyn-dev/rtsyn/plugin"
)

// CSVRecorder appends one row per tick to a CSV file, one column per
// extendable input plus an optional leading time column. Grounded on
// plugin_processors.rs's process_csv_recorder.
type CSVRecorder struct {
	inputCount  int
	separator   string
	path        string
	includeTime bool
	columns     []string
	running     bool
	timeScale   float64
	timeLabel   string

	file        *os.File
	writer      *bufio.Writer
	headerWrote bool
	inputs      []float64
}

// NewCSVRecorder returns an unconfigured recorder; SetConfig must be
// called before the first Process.
func NewCSVRecorder() *CSVRecorder {
	return &CSVRecorder{separator: ",", timeScale: 1, timeLabel: "time_s"}
}

func (c *CSVRecorder) InputPorts() []string {
	ports := make([]string, c.inputCount)
	for i := range ports {
		ports[i] = fmt.Sprintf("in_%d", i)
	}
	return ports
}

func (c *CSVRecorder) OutputPorts() []string { return nil }

func (c *CSVRecorder) DisplaySchema() *plugin.DisplaySchema {
	return &plugin.DisplaySchema{Variables: []string{"input_count", "running"}}
}

func (c *CSVRecorder) Behavior() plugin.Behavior { return plugin.Behavior{LoadsStarted: false} }

func configString(cfg map[string]interface{}, key, fallback string) string {
	if v, ok := cfg[key].(string); ok {
		return v
	}
	return fallback
}

func configBool(cfg map[string]interface{}, key string, fallback bool) bool {
	if v, ok := cfg[key].(bool); ok {
		return v
	}
	return fallback
}

func configFloat(cfg map[string]interface{}, key string, fallback float64) float64 {
	switch v := cfg[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

func configIntOr(cfg map[string]interface{}, key string, fallback int) int {
	switch v := cfg[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func configColumns(cfg map[string]interface{}) []string {
	raw, ok := cfg["columns"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, len(raw))
	for i, v := range raw {
		if s, ok := v.(string); ok {
			out[i] = s
		}
	}
	return out
}

// SetConfig applies the recorder's own config tree; the engine-owned
// time axis arrives separately through SetTimeAxis. The engine calls
// SetConfig when it creates the instance and when SetPluginVariable
// changes a key; built-ins get no per-tick dirty-check resend (that is
// Dynamic.ConfigureDirty's alone).
func (c *CSVRecorder) SetConfig(cfg map[string]interface{}) error {
	configInputCount := configIntOr(cfg, "input_count", 0)
	columns := configColumns(cfg)

	inputCount := len(columns)
	if inputCount < configInputCount {
		for len(columns) < configInputCount {
			columns = append(columns, "")
		}
		inputCount = configInputCount
	}
	for i := range columns {
		if columns[i] == "" {
			columns[i] = "empty"
		}
	}

	c.inputCount = inputCount
	c.separator = configString(cfg, "separator", ",")
	c.path = configString(cfg, "path", "")
	c.includeTime = configBool(cfg, "include_time", true)
	c.columns = columns
	c.inputs = make([]float64, c.inputCount)
	return nil
}

// SetRunning implements plugin.RunAware.
func (c *CSVRecorder) SetRunning(running bool) { c.running = running }

// SetTimeAxis implements plugin.TimeAxisAware.
func (c *CSVRecorder) SetTimeAxis(scale float64, label string) {
	c.timeScale = scale
	c.timeLabel = label
}

func (c *CSVRecorder) SetInput(port string, value float64) {
	idx, ok := portIndex(port)
	if !ok || idx < 0 || idx >= len(c.inputs) {
		return
	}
	c.inputs[idx] = value
}

func (c *CSVRecorder) GetOutput(port string) float64 { return 0 }

func (c *CSVRecorder) GetVariable(name string) (interface{}, bool) {
	switch name {
	case "input_count":
		return float64(c.inputCount), true
	case "running":
		return c.running, true
	default:
		return nil, false
	}
}

func (c *CSVRecorder) openIfNeeded() error {
	if c.file != nil || c.path == "" || !c.running {
		return nil
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create csv_recorder output directory")
		}
	}
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "open csv_recorder output file")
	}
	info, statErr := f.Stat()
	c.file = f
	c.writer = bufio.NewWriter(f)
	c.headerWrote = statErr == nil && info.Size() > 0
	return nil
}

func (c *CSVRecorder) writeHeaderIfNeeded() {
	if c.headerWrote || c.writer == nil {
		return
	}
	fields := make([]string, 0, len(c.columns)+1)
	if c.includeTime {
		fields = append(fields, c.timeLabel)
	}
	fields = append(fields, c.columns...)
	fmt.Fprintln(c.writer, strings.Join(fields, c.separator))
	c.headerWrote = true
}

func (c *CSVRecorder) Process(tick uint64, periodSeconds float64) {
	if !c.running {
		return
	}
	if err := c.openIfNeeded(); err != nil {
		return
	}
	c.writeHeaderIfNeeded()
	if c.writer == nil {
		return
	}

	fields := make([]string, 0, len(c.inputs)+1)
	if c.includeTime {
		t := float64(tick) * periodSeconds * c.timeScale
		fields = append(fields, strconv.FormatFloat(t, 'g', -1, 64))
	}
	for _, v := range c.inputs {
		fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
	}
	fmt.Fprintln(c.writer, strings.Join(fields, c.separator))
	c.writer.Flush()
}

func (c *CSVRecorder) Destroy() {
	if c.writer != nil {
		c.writer.Flush()
	}
	if c.file != nil {
		c.file.Close()
	}
}

func portIndex(port string) (int, bool) {
	rest, ok := strings.CutPrefix(port, "in_")
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return idx, true
}
