//go:build !linux && !darwin

package plugin

import "github.com/rtsyn-dev/rtsyn/errors"

// Dynamic is unavailable on platforms without a dlopen/dlsym
// implementation wired in (see dynamic.go's linux/darwin build).
type Dynamic struct{}

func Load(path string, id uint64) (*Dynamic, error) {
	return nil, &LoadError{Path: path, Reason: "dynamic plugin loading is not supported on this platform"}
}

func (d *Dynamic) InputPorts() []string          { return nil }
func (d *Dynamic) OutputPorts() []string         { return nil }
func (d *Dynamic) DisplaySchema() *DisplaySchema  { return nil }
func (d *Dynamic) Behavior() Behavior             { return Behavior{} }

func (d *Dynamic) SetConfig(config map[string]interface{}) error {
	return errors.New("dynamic plugin loading is not supported on this platform")
}

func (d *Dynamic) SetInput(port string, value float64)     {}
func (d *Dynamic) GetOutput(port string) float64            { return 0 }
func (d *Dynamic) GetVariable(name string) (interface{}, bool) { return nil, false }
func (d *Dynamic) Process(tick uint64, periodSeconds float64) {}
func (d *Dynamic) Destroy()                                 {}

func (d *Dynamic) ConfigureDirty(baseConfig map[string]interface{}, periodSeconds float64, maxIntegrationSteps int) error {
	return nil
}
