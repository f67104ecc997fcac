package connections

// extendableInputKinds names the plugin kinds that advertise the
// extendable-inputs attribute: their input ports follow the pattern
// in_<i> for i in [0, input_count) and grow/shrink as connections are
// added or removed, per spec.md §4.C.
var extendableInputKinds = map[string]bool{
	"live_plotter":  true,
	"csv_recorder":  true,
}

// IsExtendableInputs reports whether a plugin kind advertises the
// extendable-inputs attribute.
func IsExtendableInputs(kind string) bool {
	return extendableInputKinds[kind]
}
