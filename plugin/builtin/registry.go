package builtin

import "github.com/rtsyn-dev/rtsyn/plugin"

// New constructs a fresh built-in instance for kind, or (nil, false) if
// kind does not name a recognized built-in (the caller then tries the
// dynamic C-ABI loader instead).
func New(kind string) (plugin.Instance, bool) {
	switch kind {
	case "csv_recorder":
		return NewCSVRecorder(), true
	case "live_plotter":
		return NewLivePlotter(), true
	case "performance_monitor":
		return NewPerformanceMonitor(), true
	default:
		return newConditional(kind)
	}
}
