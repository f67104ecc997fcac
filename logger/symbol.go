package logger

// Domain symbols used to tag structured log lines. These are logged as a
// field rather than embedded in the message so logs stay queryable by
// subsystem without string-matching messages.
const (
	SymbolTick       = "tick"      // engine tick-loop lifecycle
	SymbolPlugin     = "plugin"    // plugin load/create/destroy
	SymbolConnection = "conn"      // connection cache mutations
	SymbolWorkspace  = "workspace" // workspace load/save/import
)

// TickWarnw logs a warning message tagged with the tick symbol.
func TickWarnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolTick}, keysAndValues...)
		Logger.Warnw(msg, fields...)
	}
}

// PluginInfow logs an info message tagged with the plugin symbol.
func PluginInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolPlugin}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// PluginErrorw logs an error message tagged with the plugin symbol.
func PluginErrorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolPlugin}, keysAndValues...)
		Logger.Errorw(msg, fields...)
	}
}

// ConnInfow logs an info message tagged with the connection symbol.
func ConnInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolConnection}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}

// WorkspaceInfow logs an info message tagged with the workspace symbol.
func WorkspaceInfow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		fields := append([]interface{}{FieldSymbol, SymbolWorkspace}, keysAndValues...)
		Logger.Infow(msg, fields...)
	}
}
