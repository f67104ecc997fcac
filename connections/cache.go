// Package connections compiles a workspace's edges into the O(1)
// per-port input-aggregation structures the engine reads on every tick,
// and implements the dynamic extendable-inputs model for sink plugins.
// Grounded on original_source/rtsyn-core/src/connections.rs.
package connections

import (
	"strconv"
	"strings"

	"github.com/rtsyn-dev/rtsyn/signal"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

// portKey identifies a single input port on a single plugin.
type portKey struct {
	plugin workspace.PluginID
	port   string
}

// source identifies a single output port on a single plugin.
type source struct {
	plugin workspace.PluginID
	port   string
}

// Cache is the compiled form of a workspace's connections: for each
// sink port, the ordered list of sources to sum; for each plugin, the
// set of incoming and outgoing port names. Rebuilt wholesale on every
// workspace mutation (O(E)); owned exclusively by the engine goroutine,
// so it carries no internal locking (spec.md §5).
type Cache struct {
	incomingByPort   map[portKey][]source
	incomingByPlugin map[workspace.PluginID]map[string]struct{}
	outgoingByPlugin map[workspace.PluginID]map[string]struct{}
}

// Build walks every connection once and bucketizes it by sink port,
// preserving insertion order within each bucket (input_sum's summation
// order must stay stable across ticks; see spec.md §4.B).
func Build(ws *workspace.Definition) *Cache {
	c := &Cache{
		incomingByPort:   make(map[portKey][]source, len(ws.Connections)),
		incomingByPlugin: make(map[workspace.PluginID]map[string]struct{}),
		outgoingByPlugin: make(map[workspace.PluginID]map[string]struct{}),
	}
	for _, conn := range ws.Connections {
		key := portKey{plugin: conn.ToPlugin, port: conn.ToPort}
		c.incomingByPort[key] = append(c.incomingByPort[key], source{plugin: conn.FromPlugin, port: conn.FromPort})

		in := c.incomingByPlugin[conn.ToPlugin]
		if in == nil {
			in = make(map[string]struct{})
			c.incomingByPlugin[conn.ToPlugin] = in
		}
		in[conn.ToPort] = struct{}{}

		out := c.outgoingByPlugin[conn.FromPlugin]
		if out == nil {
			out = make(map[string]struct{})
			c.outgoingByPlugin[conn.FromPlugin] = out
		}
		out[conn.FromPort] = struct{}{}
	}
	return c
}

// InputSum sums the sanitized value each source feeding (toPlugin,
// toPort) currently holds in outputs; missing sources contribute 0.
// Summation order is the bucket's insertion order — stable across
// ticks, not necessarily commutative under floating point rounding,
// deliberately (spec.md §4.B).
func (c *Cache) InputSum(outputs map[PortRef]float64, toPlugin workspace.PluginID, toPort string) float64 {
	var sum float64
	for _, src := range c.incomingByPort[portKey{plugin: toPlugin, port: toPort}] {
		sum += signal.Sanitize(outputs[PortRef{Plugin: src.plugin, Port: src.port}])
	}
	return sum
}

// InputSumAny sums InputSum over several port names on the same sink
// plugin. Used exactly once in the spec: extendable input index 0 also
// accepts the legacy "in" alias, so in_0's value is input_sum("in_0") +
// input_sum("in") (spec.md §4.B).
func (c *Cache) InputSumAny(outputs map[PortRef]float64, toPlugin workspace.PluginID, ports ...string) float64 {
	var sum float64
	for _, port := range ports {
		sum += c.InputSum(outputs, toPlugin, port)
	}
	return sum
}

// IncomingPorts returns the set of input port names on plugin that have
// at least one inbound connection. Used by the dynamic-plugin and DAQ
// fast paths to know which inputs to read (spec.md §4.D step 3a/3c).
func (c *Cache) IncomingPorts(plugin workspace.PluginID) map[string]struct{} {
	return c.incomingByPlugin[plugin]
}

// OutgoingPorts returns the set of output port names plugin has at
// least one outbound connection from.
func (c *Cache) OutgoingPorts(plugin workspace.PluginID) map[string]struct{} {
	return c.outgoingByPlugin[plugin]
}

// PortRef identifies a plugin's port in the engine's global outputs
// map; shared with the engine package so snapshots and the cache agree
// on key shape.
type PortRef struct {
	Plugin workspace.PluginID
	Port   string
}

// ExtendableInputIndex returns the index i such that port names the
// extendable input in_i, treating the legacy alias "in" as in_0.
// Returns (0, false) for any port that doesn't match the pattern.
func ExtendableInputIndex(port string) (int, bool) {
	if port == "in" {
		return 0, true
	}
	rest, ok := strings.CutPrefix(port, "in_")
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// NextAvailableExtendableInputIndex returns the smallest i >= 0 such
// that no existing connection on the workspace targets in_i on plugin.
func NextAvailableExtendableInputIndex(ws *workspace.Definition, plugin workspace.PluginID) int {
	used := make(map[int]struct{})
	for _, conn := range ws.Connections {
		if conn.ToPlugin != plugin {
			continue
		}
		if idx, ok := ExtendableInputIndex(conn.ToPort); ok {
			used[idx] = struct{}{}
		}
	}
	idx := 0
	for {
		if _, taken := used[idx]; !taken {
			return idx
		}
		idx++
	}
}
