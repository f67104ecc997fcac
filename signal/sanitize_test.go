package signal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"finite positive", 3.5, 3.5},
		{"finite negative", -42.0, -42.0},
		{"zero", 0.0, 0.0},
		{"negative zero", math.Copysign(0, -1), math.Copysign(0, -1)},
		{"nan", math.NaN(), 0.0},
		{"positive infinity", math.Inf(1), 0.0},
		{"negative infinity", math.Inf(-1), 0.0},
		{"smallest normal", 2.2250738585072014e-308, 2.2250738585072014e-308},
		{"subnormal", 1e-310, 0.0},
		{"largest finite", math.MaxFloat64, math.MaxFloat64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
