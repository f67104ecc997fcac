package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLivePlotterCapturesSamplesOnlyWhenRunning(t *testing.T) {
	p := NewLivePlotter()
	require.NoError(t, p.SetConfig(map[string]interface{}{"input_count": float64(2)}))

	p.SetInput("in_0", 1.0)
	p.SetInput("in_1", 2.0)
	p.Process(0, 0.001)
	assert.Empty(t, p.DrainSamples())

	p.SetRunning(true)
	p.SetInput("in_0", 3.0)
	p.SetInput("in_1", 4.0)
	p.Process(1, 0.001)

	samples := p.DrainSamples()
	require.Len(t, samples, 1)
	assert.Equal(t, uint64(1), samples[0].Tick)
	assert.Equal(t, []float64{3.0, 4.0}, samples[0].Inputs)

	assert.Empty(t, p.DrainSamples())
}

func TestLivePlotterExposesNoOutputs(t *testing.T) {
	p := NewLivePlotter()
	assert.Empty(t, p.OutputPorts())
}
