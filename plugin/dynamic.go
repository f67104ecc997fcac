//go:build linux || darwin

package plugin

/*
#cgo linux LDFLAGS: -ldl
#include <stdlib.h>
#include <string.h>
#include <dlfcn.h>
#include <stdint.h>

// rtsyn_str is the ABI's (ptr, len) string return convention: the
// plugin owns the backing memory until the next call to the same
// function on the same handle (spec.md §6's Plugin C-ABI contract).
typedef struct {
    const char *ptr;
    uint64_t    len;
} rtsyn_str;

typedef void *handle_t;

typedef handle_t (*create_fn)(uint64_t id);
typedef void (*destroy_fn)(handle_t);
typedef rtsyn_str (*strfn_fn)(handle_t);
typedef void (*set_config_json_fn)(handle_t, const char *, uint64_t);
typedef void (*set_input_fn)(handle_t, const char *, uint64_t, double);
typedef double (*get_output_fn)(handle_t, const char *, uint64_t);
typedef int32_t (*resolve_index_fn)(handle_t, const char *, uint64_t);
typedef void (*set_input_by_index_fn)(handle_t, int32_t, double);
typedef double (*get_output_by_index_fn)(handle_t, int32_t);
typedef void (*process_fn)(handle_t, uint64_t, double);
typedef uint32_t (*abi_version_fn)(void);

// vtable mirrors spec.md §6's fixed field order exactly; optional
// fields may be null and are checked before use.
typedef struct {
    create_fn              create;
    destroy_fn              destroy;
    strfn_fn                inputs_json;
    strfn_fn                outputs_json;
    strfn_fn                display_schema_json;
    strfn_fn                behavior_json;
    set_config_json_fn      set_config_json;
    set_input_fn            set_input;
    get_output_fn           get_output;
    resolve_index_fn        resolve_input_index;
    set_input_by_index_fn   set_input_by_index;
    resolve_index_fn        resolve_output_index;
    get_output_by_index_fn  get_output_by_index;
    process_fn              process;
} rtsyn_vtable;

static void *rtsyn_dlopen(const char *path) {
    return dlopen(path, RTLD_NOW | RTLD_LOCAL);
}

static void *rtsyn_dlsym(void *lib, const char *name) {
    return dlsym(lib, name);
}

static uint32_t rtsyn_call_abi_version(void *fn) {
    return ((abi_version_fn)fn)();
}

static rtsyn_vtable *rtsyn_call_vtable_fn(void *fn) {
    typedef rtsyn_vtable *(*vtable_fn)(void);
    return ((vtable_fn)fn)();
}

static handle_t rtsyn_create(rtsyn_vtable *vt, uint64_t id) {
    return vt->create(id);
}

static void rtsyn_destroy(rtsyn_vtable *vt, handle_t h) {
    vt->destroy(h);
}

static rtsyn_str rtsyn_inputs_json(rtsyn_vtable *vt, handle_t h) {
    return vt->inputs_json(h);
}

static rtsyn_str rtsyn_outputs_json(rtsyn_vtable *vt, handle_t h) {
    return vt->outputs_json(h);
}

static rtsyn_str rtsyn_display_schema_json(rtsyn_vtable *vt, handle_t h) {
    if (!vt->display_schema_json) {
        rtsyn_str empty = {0, 0};
        return empty;
    }
    return vt->display_schema_json(h);
}

static rtsyn_str rtsyn_behavior_json(rtsyn_vtable *vt, handle_t h) {
    if (!vt->behavior_json) {
        rtsyn_str empty = {0, 0};
        return empty;
    }
    return vt->behavior_json(h);
}

static void rtsyn_set_config_json(rtsyn_vtable *vt, handle_t h, const char *p, uint64_t n) {
    vt->set_config_json(h, p, n);
}

static void rtsyn_set_input(rtsyn_vtable *vt, handle_t h, const char *p, uint64_t n, double v) {
    vt->set_input(h, p, n, v);
}

static double rtsyn_get_output(rtsyn_vtable *vt, handle_t h, const char *p, uint64_t n) {
    return vt->get_output(h, p, n);
}

static int rtsyn_has_index_fastpath_input(rtsyn_vtable *vt) {
    return vt->resolve_input_index != NULL && vt->set_input_by_index != NULL;
}

static int rtsyn_has_index_fastpath_output(rtsyn_vtable *vt) {
    return vt->resolve_output_index != NULL && vt->get_output_by_index != NULL;
}

static int32_t rtsyn_resolve_input_index(rtsyn_vtable *vt, handle_t h, const char *p, uint64_t n) {
    return vt->resolve_input_index(h, p, n);
}

static int32_t rtsyn_resolve_output_index(rtsyn_vtable *vt, handle_t h, const char *p, uint64_t n) {
    return vt->resolve_output_index(h, p, n);
}

static void rtsyn_set_input_by_index(rtsyn_vtable *vt, handle_t h, int32_t idx, double v) {
    vt->set_input_by_index(h, idx, v);
}

static double rtsyn_get_output_by_index(rtsyn_vtable *vt, handle_t h, int32_t idx) {
    return vt->get_output_by_index(h, idx);
}

static void rtsyn_process(rtsyn_vtable *vt, handle_t h, uint64_t tick, double period_seconds) {
    vt->process(h, tick, period_seconds);
}
*/
import "C"

import (
	"encoding/json"
	"math"
	"unsafe"

	"github.com/rtsyn-dev/rtsyn/errors"
)

// ABIVersion is the runtime's compiled-in plugin ABI version. A dynamic
// library whose version symbol returns anything else is refused.
const ABIVersion uint32 = 1

const (
	abiVersionSymbol = "rtsyn_plugin_abi_version"
	vtableSymbol     = "rtsyn_plugin_vtable"
)

func cString(s string) (*C.char, C.uint64_t) {
	if len(s) == 0 {
		return nil, 0
	}
	return (*C.char)(unsafe.Pointer(unsafe.StringData(s))), C.uint64_t(len(s))
}

func goString(s C.rtsyn_str) string {
	if s.ptr == nil || s.len == 0 {
		return ""
	}
	return C.GoStringN(s.ptr, C.int(s.len))
}

// Dynamic hosts one externally compiled C-ABI plugin instance loaded
// from a shared library. Grounded on
// original_source/rtsyn-runtime/src/plugin_manager.rs's
// DynamicPluginInstance.
type Dynamic struct {
	lib    unsafe.Pointer
	vtable *C.rtsyn_vtable
	handle C.handle_t

	inputs  []string
	outputs []string

	inputIndices  []int32 // nil if the plugin has no index fast path
	outputIndices []int32

	display  *DisplaySchema
	behavior Behavior

	lastBaseConfig          map[string]interface{}
	haveLastBaseConfig      bool
	lastPeriodSeconds       float64
	haveLastPeriodSeconds   bool
	lastMaxIntegrationSteps int
	haveLastMaxSteps        bool
	lastInputBits           []uint64
}

// Load opens the shared library at path, validates its ABI version,
// resolves its vtable, and creates an instance with the given id.
// Mirrors plugin_manager.rs's DynamicPluginInstance::load step order:
// open -> version symbol -> version compare -> vtable symbol ->
// create(id) -> eager inputs_json/outputs_json -> index resolution ->
// display schema fetch. Any failure returns a *LoadError and the
// library (if opened) is left loaded; the caller logs once and omits
// the plugin from the instance map without touching the workspace
// definition (spec.md §7 PluginLoadError).
func Load(path string, id uint64) (*Dynamic, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	lib := C.rtsyn_dlopen(cpath)
	if lib == nil {
		return nil, &LoadError{Path: path, Reason: "failed to open shared library"}
	}

	cVersionSym := C.CString(abiVersionSymbol)
	defer C.free(unsafe.Pointer(cVersionSym))
	versionFn := C.rtsyn_dlsym(lib, cVersionSym)
	if versionFn == nil {
		return nil, &LoadError{Path: path, Reason: "missing ABI version symbol, rebuild plugin"}
	}
	if gotVersion := uint32(C.rtsyn_call_abi_version(versionFn)); gotVersion != ABIVersion {
		return nil, &LoadError{Path: path, Reason: errors.Newf("ABI version mismatch (plugin=%d, runtime=%d), rebuild plugin", gotVersion, ABIVersion).Error()}
	}

	cVtableSym := C.CString(vtableSymbol)
	defer C.free(unsafe.Pointer(cVtableSym))
	vtableFn := C.rtsyn_dlsym(lib, cVtableSym)
	if vtableFn == nil {
		return nil, &LoadError{Path: path, Reason: "missing vtable symbol, rebuild plugin"}
	}
	vtable := C.rtsyn_call_vtable_fn(vtableFn)
	if vtable == nil {
		return nil, &LoadError{Path: path, Reason: "null vtable"}
	}

	handle := C.rtsyn_create(vtable, C.uint64_t(id))
	if handle == nil {
		return nil, &LoadError{Path: path, Reason: "create returned null handle"}
	}

	d := &Dynamic{lib: lib, vtable: vtable, handle: handle}

	d.inputs = d.readPortNames(C.rtsyn_inputs_json(vtable, handle))
	d.outputs = d.readPortNames(C.rtsyn_outputs_json(vtable, handle))
	d.lastInputBits = make([]uint64, len(d.inputs))
	for i := range d.lastInputBits {
		d.lastInputBits[i] = math.Float64bits(math.NaN())
	}

	if C.rtsyn_has_index_fastpath_input(vtable) != 0 {
		d.inputIndices = make([]int32, len(d.inputs))
		for i, name := range d.inputs {
			cname, clen := cString(name)
			d.inputIndices[i] = int32(C.rtsyn_resolve_input_index(vtable, handle, cname, clen))
		}
	}
	if C.rtsyn_has_index_fastpath_output(vtable) != 0 {
		d.outputIndices = make([]int32, len(d.outputs))
		for i, name := range d.outputs {
			cname, clen := cString(name)
			d.outputIndices[i] = int32(C.rtsyn_resolve_output_index(vtable, handle, cname, clen))
		}
	}

	if raw := goString(C.rtsyn_display_schema_json(vtable, handle)); raw != "" {
		var schema DisplaySchema
		if json.Unmarshal([]byte(raw), &schema) == nil {
			d.display = &schema
		}
	}
	if raw := goString(C.rtsyn_behavior_json(vtable, handle)); raw != "" {
		var b Behavior
		if json.Unmarshal([]byte(raw), &b) == nil {
			d.behavior = b
		}
	}

	return d, nil
}

func (d *Dynamic) readPortNames(raw C.rtsyn_str) []string {
	s := goString(raw)
	if s == "" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(s), &names); err != nil {
		return nil
	}
	return names
}

func (d *Dynamic) InputPorts() []string         { return d.inputs }
func (d *Dynamic) OutputPorts() []string        { return d.outputs }
func (d *Dynamic) DisplaySchema() *DisplaySchema { return d.display }
func (d *Dynamic) Behavior() Behavior           { return d.behavior }

// SetConfig always sends; the dirty check deciding whether to call it
// on each tick lives in ConfigureDirty below, shared with the spec's
// tick-level dirty-check description.
func (d *Dynamic) SetConfig(config map[string]interface{}) error {
	data, err := json.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "encode plugin config")
	}
	cdata, clen := cString(string(data))
	C.rtsyn_set_config_json(d.vtable, d.handle, cdata, clen)
	return nil
}

func (d *Dynamic) portIndex(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// SetInput writes value to the named input, preferring the
// index-based fast path when the plugin resolved a non-negative index
// for it, and suppressing the call entirely when the value's bit
// pattern is unchanged from the last write (spec.md §4.C's per-input
// change suppression).
func (d *Dynamic) SetInput(port string, value float64) {
	i := d.portIndex(d.inputs, port)
	if i < 0 {
		return
	}
	bits := math.Float64bits(value)
	if d.lastInputBits[i] == bits {
		return
	}
	d.lastInputBits[i] = bits

	if d.inputIndices != nil && d.inputIndices[i] >= 0 {
		C.rtsyn_set_input_by_index(d.vtable, d.handle, C.int32_t(d.inputIndices[i]), C.double(value))
		return
	}
	cname, clen := cString(port)
	C.rtsyn_set_input(d.vtable, d.handle, cname, clen, C.double(value))
}

func (d *Dynamic) GetOutput(port string) float64 {
	i := d.portIndex(d.outputs, port)
	if i < 0 {
		return 0
	}
	if d.outputIndices != nil && d.outputIndices[i] >= 0 {
		return float64(C.rtsyn_get_output_by_index(d.vtable, d.handle, C.int32_t(d.outputIndices[i])))
	}
	cname, clen := cString(port)
	return float64(C.rtsyn_get_output(d.vtable, d.handle, cname, clen))
}

// GetVariable is not part of the external ABI's standard surface;
// dynamic plugins expose internal state only through display_schema's
// named variables read back via get_output under the same name, per
// plugin_processors.rs's process_dynamic_plugin internal-variable
// read-out.
func (d *Dynamic) GetVariable(name string) (interface{}, bool) {
	if d.display == nil {
		return nil, false
	}
	for _, v := range d.display.Variables {
		if v == name {
			return d.GetOutput(name), true
		}
	}
	return nil, false
}

func (d *Dynamic) Process(tick uint64, periodSeconds float64) {
	C.rtsyn_process(d.vtable, d.handle, C.uint64_t(tick), C.double(periodSeconds))
}

func (d *Dynamic) Destroy() {
	C.rtsyn_destroy(d.vtable, d.handle)
}

// ConfigureDirty implements the dirty-check described in spec.md §4.C:
// only resend config when the base config tree, period, or integration
// step ceiling actually changed since the last send.
func (d *Dynamic) ConfigureDirty(baseConfig map[string]interface{}, periodSeconds float64, maxIntegrationSteps int) error {
	needsUpdate := !d.haveLastBaseConfig || !configEqual(d.lastBaseConfig, baseConfig) ||
		!d.haveLastPeriodSeconds || math.Abs(d.lastPeriodSeconds-periodSeconds) > 2.220446049250313e-16 ||
		!d.haveLastMaxSteps || d.lastMaxIntegrationSteps != maxIntegrationSteps

	if !needsUpdate {
		return nil
	}

	merged := make(map[string]interface{}, len(baseConfig)+2)
	for k, v := range baseConfig {
		merged[k] = v
	}
	merged["period_seconds"] = periodSeconds
	merged["max_integration_steps"] = maxIntegrationSteps

	if err := d.SetConfig(merged); err != nil {
		return err
	}

	d.lastBaseConfig = baseConfig
	d.haveLastBaseConfig = true
	d.lastPeriodSeconds = periodSeconds
	d.haveLastPeriodSeconds = true
	d.lastMaxIntegrationSteps = maxIntegrationSteps
	d.haveLastMaxSteps = true
	return nil
}

func configEqual(a, b map[string]interface{}) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ja) == string(jb)
}
