//go:build comedi

package builtin

import (
	"github.com/rtsyn-dev/rtsyn/plugin"
)

// comediDevice abstracts the Linux Comedi ioctl surface a real DAQ
// board would need. No pack dependency binds Comedi, so this has only
// a stub backing; wiring a real one is a matter of satisfying this
// interface (spec.md treats hardware I/O as opaque).
type comediDevice interface {
	Open(path string) error
	Close() error
	IsOpen() bool
	ReadChannel(name string) (float64, error)
	WriteChannel(name string, value float64) error
}

type stubComediDevice struct {
	open bool
}

func (d *stubComediDevice) Open(path string) error  { d.open = true; return nil }
func (d *stubComediDevice) Close() error             { d.open = false; return nil }
func (d *stubComediDevice) IsOpen() bool             { return d.open }
func (d *stubComediDevice) ReadChannel(string) (float64, error) { return 0, nil }
func (d *stubComediDevice) WriteChannel(string, float64) error  { return nil }

// ComediDaq adapts a lazily-opened DAQ device to the Instance
// capability set: it opens only while at least one of its ports has an
// active connection, and closes when none do. Grounded on
// plugin_processors.rs's process_comedi_daq.
type ComediDaq struct {
	devicePath  string
	scanDevices bool
	scanNonce   uint64

	device comediDevice

	activeInputs  map[string]struct{}
	activeOutputs map[string]struct{}
	inputValues   map[string]float64
}

func NewComediDaq() *ComediDaq {
	return &ComediDaq{device: &stubComediDevice{}, devicePath: "/dev/comedi0"}
}

func (d *ComediDaq) InputPorts() []string {
	names := make([]string, 0, len(d.activeInputs))
	for name := range d.activeInputs {
		names = append(names, name)
	}
	return names
}

func (d *ComediDaq) OutputPorts() []string {
	names := make([]string, 0, len(d.activeOutputs))
	for name := range d.activeOutputs {
		names = append(names, name)
	}
	return names
}

func (d *ComediDaq) DisplaySchema() *plugin.DisplaySchema { return nil }
func (d *ComediDaq) Behavior() plugin.Behavior            { return plugin.Behavior{LoadsStarted: true} }

func (d *ComediDaq) SetConfig(cfg map[string]interface{}) error {
	d.devicePath = configString(cfg, "device_path", "/dev/comedi0")
	d.scanDevices = configBool(cfg, "scan_devices", false)
	d.scanNonce = uint64(configIntOr(cfg, "scan_nonce", 0))
	return nil
}

// SetActivePorts is consulted by the engine once per tick (not part of
// the uniform Instance contract, since only this kind lazily opens
// hardware based on which ports the current workspace actually wires).
func (d *ComediDaq) SetActivePorts(inputs, outputs map[string]struct{}) {
	d.activeInputs = inputs
	d.activeOutputs = outputs

	hasActive := len(inputs) > 0 || len(outputs) > 0
	if hasActive && !d.device.IsOpen() {
		_ = d.device.Open(d.devicePath)
	} else if !hasActive && d.device.IsOpen() {
		_ = d.device.Close()
	}
}

func (d *ComediDaq) SetInput(port string, value float64) {
	if d.inputValues == nil {
		d.inputValues = make(map[string]float64)
	}
	d.inputValues[port] = value
	if d.device.IsOpen() {
		_ = d.device.WriteChannel(port, value)
	}
}

func (d *ComediDaq) GetOutput(port string) float64 {
	if _, active := d.activeOutputs[port]; !active || !d.device.IsOpen() {
		return 0
	}
	v, err := d.device.ReadChannel(port)
	if err != nil {
		return 0
	}
	return v
}

func (d *ComediDaq) GetVariable(name string) (interface{}, bool) { return nil, false }

func (d *ComediDaq) Process(tick uint64, periodSeconds float64) {}

func (d *ComediDaq) Destroy() {
	if d.device.IsOpen() {
		_ = d.device.Close()
	}
}
