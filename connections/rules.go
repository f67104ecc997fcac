package connections

import (
	"fmt"
	"strings"

	"github.com/rtsyn-dev/rtsyn/workspace"
)

// DisplayNamer resolves a human-readable name for a plugin instance,
// used only to build default CSV column names. The engine supplies one
// backed by its plugin catalog; AddConnection falls back to the
// plugin's kind string when none is given.
type DisplayNamer func(ws *workspace.Definition, id workspace.PluginID) string

func defaultDisplayNamer(ws *workspace.Definition, id workspace.PluginID) string {
	if p, _ := ws.PluginByID(id); p != nil {
		return p.Kind
	}
	return fmt.Sprintf("plugin_%d", id)
}

func normalizeNameComponent(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", "_"))
}

// defaultCSVColumn mirrors connections.rs's default_csv_column: derive
// a default column name from the source plugin's display name and
// port, or from the recorder's own name if the port has no source yet.
func defaultCSVColumn(ws *workspace.Definition, namer DisplayNamer, recorderID workspace.PluginID, inputIdx int) string {
	port := fmt.Sprintf("in_%d", inputIdx)
	for _, conn := range ws.Connections {
		if conn.ToPlugin == recorderID && conn.ToPort == port {
			sourceName := normalizeNameComponent(namer(ws, conn.FromPlugin))
			return fmt.Sprintf("%s_%d_%s", sourceName, conn.FromPlugin, strings.ToLower(conn.FromPort))
		}
	}
	recorderName := normalizeNameComponent(namer(ws, recorderID))
	return fmt.Sprintf("%s_%d_%s", recorderName, recorderID, strings.ToLower(port))
}

func configInt(cfg map[string]interface{}, key string) (int, bool) {
	switch v := cfg[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func configStrings(cfg map[string]interface{}, key string) ([]string, bool) {
	raw, ok := cfg[key].([]interface{})
	if !ok {
		if already, ok2 := cfg[key].([]string); ok2 {
			return append([]string(nil), already...), true
		}
		return nil, false
	}
	out := make([]string, len(raw))
	for i, v := range raw {
		if s, ok := v.(string); ok {
			out[i] = s
		}
	}
	return out, true
}

func resizeColumns(columns []string, n int) []string {
	if len(columns) == n {
		return columns
	}
	if len(columns) > n {
		return columns[:n]
	}
	for len(columns) < n {
		columns = append(columns, "")
	}
	return columns
}

// ensureExtendableInputCount raises plugin's stored input_count to at
// least requiredCount (never shrinks it) and pads csv_recorder's
// columns array to match. Grounded on connections.rs's
// ensure_extendable_input_count. No-op for non-extendable kinds or
// unknown plugin ids.
func ensureExtendableInputCount(ws *workspace.Definition, plugin workspace.PluginID, requiredCount int) {
	p, _ := ws.PluginByID(plugin)
	if p == nil || !IsExtendableInputs(p.Kind) {
		return
	}
	if p.Config == nil {
		p.Config = map[string]interface{}{}
	}
	count, _ := configInt(p.Config, "input_count")
	if count < requiredCount {
		count = requiredCount
		p.Config["input_count"] = count
	}
	if p.Kind == "csv_recorder" {
		columns, _ := configStrings(p.Config, "columns")
		if len(columns) < count {
			columns = resizeColumns(columns, count)
			p.Config["columns"] = columns
		}
	}
}

// syncExtendableInputCount recomputes plugin's input_count (and, for
// csv_recorder, its columns array) to exactly match the highest in_i
// index actually present among its connections, truncating or padding
// as needed. Grounded on connections.rs's sync_extendable_input_count.
func syncExtendableInputCount(ws *workspace.Definition, plugin workspace.PluginID) {
	p, _ := ws.PluginByID(plugin)
	if p == nil || !IsExtendableInputs(p.Kind) {
		return
	}
	maxIdx := -1
	for _, conn := range ws.Connections {
		if conn.ToPlugin != plugin {
			continue
		}
		if rest, ok := strings.CutPrefix(conn.ToPort, "in_"); ok {
			var idx int
			if _, err := fmt.Sscanf(rest, "%d", &idx); err == nil && idx > maxIdx {
				maxIdx = idx
			}
		}
	}
	required := 0
	if maxIdx >= 0 {
		required = maxIdx + 1
	}
	if p.Config == nil {
		p.Config = map[string]interface{}{}
	}
	p.Config["input_count"] = required
	if p.Kind == "csv_recorder" {
		columns, _ := configStrings(p.Config, "columns")
		p.Config["columns"] = resizeColumns(columns, required)
	}
}

// AddConnection validates and appends a new connection, rewriting the
// legacy "in" alias to the next free extendable index, enforcing the
// invariants of spec.md §3 (no self-loop, no duplicate tuple, at most
// one connection per non-extendable input), and — for a csv_recorder
// sink — filling in a default column name when the targeted column is
// still blank. namer may be nil to use the plugin kind as its own
// display name.
func AddConnection(ws *workspace.Definition, namer DisplayNamer, fromPlugin workspace.PluginID, fromPort string, toPlugin workspace.PluginID, toPort string, kind workspace.ConnectionKind) error {
	if namer == nil {
		namer = defaultDisplayNamer
	}
	if fromPlugin == toPlugin {
		return ErrSelfConnection
	}

	resolvedToPort := toPort
	if target, _ := ws.PluginByID(toPlugin); target != nil && IsExtendableInputs(target.Kind) && toPort == "in" {
		resolvedToPort = fmt.Sprintf("in_%d", NextAvailableExtendableInputIndex(ws, toPlugin))
	}

	for _, existing := range ws.Connections {
		if existing.FromPlugin == fromPlugin && existing.FromPort == fromPort &&
			existing.ToPlugin == toPlugin && existing.ToPort == resolvedToPort && existing.Kind == kind {
			return ErrDuplicateConnection
		}
		if existing.ToPlugin == toPlugin && existing.ToPort == resolvedToPort {
			return ErrInputLimitExceeded
		}
	}

	inputIdx, isExtendablePort := ExtendableInputIndex(resolvedToPort)

	ws.Connections = append(ws.Connections, workspace.ConnectionDefinition{
		FromPlugin: fromPlugin,
		FromPort:   fromPort,
		ToPlugin:   toPlugin,
		ToPort:     resolvedToPort,
		Kind:       kind,
	})

	if !isExtendablePort {
		return nil
	}
	target, _ := ws.PluginByID(toPlugin)
	if target == nil || !IsExtendableInputs(target.Kind) {
		return nil
	}
	ensureExtendableInputCount(ws, toPlugin, inputIdx+1)

	if target.Kind == "csv_recorder" {
		columns, _ := configStrings(target.Config, "columns")
		if inputIdx < len(columns) && columns[inputIdx] == "" {
			columns[inputIdx] = defaultCSVColumn(ws, namer, toPlugin, inputIdx)
			target.Config["columns"] = columns
		}
	}
	return nil
}

// RemoveExtendableInput removes every connection targeting in_<index>
// on plugin, then renumbers all in_<j> with j > index down by one —
// both on the remaining connections and (for csv_recorder) the
// parallel columns array — preserving the [0, N) contiguity invariant.
// No-op if plugin doesn't advertise extendable inputs.
func RemoveExtendableInput(ws *workspace.Definition, plugin workspace.PluginID, index int) {
	p, _ := ws.PluginByID(plugin)
	if p == nil || !IsExtendableInputs(p.Kind) {
		return
	}

	isCSV := p.Kind == "csv_recorder"

	kept := ws.Connections[:0]
	for _, conn := range ws.Connections {
		if conn.ToPlugin == plugin {
			if idx, ok := ExtendableInputIndex(conn.ToPort); ok {
				if idx == index {
					continue // drop: targets the removed slot
				}
				if idx > index {
					conn.ToPort = fmt.Sprintf("in_%d", idx-1)
				}
			}
		}
		kept = append(kept, conn)
	}
	ws.Connections = kept

	if isCSV {
		if p.Config == nil {
			p.Config = map[string]interface{}{}
		}
		columns, _ := configStrings(p.Config, "columns")
		if index < len(columns) {
			columns = append(columns[:index], columns[index+1:]...)
		}
		p.Config["columns"] = columns
	}

	// syncExtendableInputCount recomputes input_count from the
	// renumbered connections and resizes columns to match exactly.
	syncExtendableInputCount(ws, plugin)
}
