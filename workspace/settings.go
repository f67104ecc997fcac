package workspace

import (
	"github.com/rtsyn-dev/rtsyn/errors"
)

// Settings holds the period-or-frequency pair (mutually derived), the
// x-axis time unit, the CPU cores the tick thread pins to, and the
// integration-step ceiling passed to plugins that sub-step integrate.
type Settings struct {
	FrequencyValue      float64 `json:"frequency_value"`
	FrequencyUnit       string  `json:"frequency_unit"` // hz | khz | mhz
	PeriodValue         float64 `json:"period_value"`
	PeriodUnit          string  `json:"period_unit"` // ns | us | ms | s
	SelectedCores       []int   `json:"selected_cores"`
	MaxIntegrationSteps int     `json:"max_integration_steps"`
}

// DefaultSettings returns the factory settings: 1kHz, selected_cores=[0],
// max_integration_steps=1.
func DefaultSettings() Settings {
	return Settings{
		FrequencyValue:      1.0,
		FrequencyUnit:       "khz",
		PeriodValue:         1.0,
		PeriodUnit:          "ms",
		SelectedCores:       []int{0},
		MaxIntegrationSteps: 1,
	}
}

var frequencyMultiplier = map[string]float64{
	"hz":  1,
	"khz": 1e3,
	"mhz": 1e6,
}

var periodSecondsMultiplier = map[string]float64{
	"ns": 1e-9,
	"us": 1e-6,
	"ms": 1e-3,
	"s":  1,
}

// normalizeFrequencyUnit validates unit against {hz, khz, mhz}.
func normalizeFrequencyUnit(unit string) (string, error) {
	if _, ok := frequencyMultiplier[unit]; !ok {
		return "", errors.Newf("invalid frequency unit %q, want one of hz, khz, mhz", unit)
	}
	return unit, nil
}

// normalizePeriodUnit validates unit against {ns, us, ms, s}.
func normalizePeriodUnit(unit string) (string, error) {
	if _, ok := periodSecondsMultiplier[unit]; !ok {
		return "", errors.Newf("invalid period unit %q, want one of ns, us, ms, s", unit)
	}
	return unit, nil
}

// frequencyHzFrom converts a frequency value expressed in unit to Hz.
func frequencyHzFrom(value float64, unit string) float64 {
	return value * frequencyMultiplier[unit]
}

// frequencyValueFromHz converts a Hz value into the given frequency unit.
func frequencyValueFromHz(hz float64, unit string) float64 {
	return hz / frequencyMultiplier[unit]
}

// periodSecondsFrom converts a period value expressed in unit to seconds.
func periodSecondsFrom(value float64, unit string) float64 {
	return value * periodSecondsMultiplier[unit]
}

// periodValueFromSeconds converts a seconds value into the given period unit.
func periodValueFromSeconds(seconds float64, unit string) float64 {
	return seconds / periodSecondsMultiplier[unit]
}

// timeScaleAndLabel returns the (scale, label) pair used to render the
// GUI's x-axis, matching period_unit: ns->(1e9,"time_ns"),
// us->(1e6,"time_us"), ms->(1e3,"time_ms"), s->(1,"time_s").
func timeScaleAndLabel(periodUnit string) (float64, string) {
	switch periodUnit {
	case "ns":
		return 1e9, "time_ns"
	case "us":
		return 1e6, "time_us"
	case "ms":
		return 1e3, "time_ms"
	default:
		return 1.0, "time_s"
	}
}

// Resolved is the fully-derived, validated view of Settings used by the
// engine: the period in seconds, the x-axis scale/label pair, and the
// effective core set.
type Resolved struct {
	PeriodSeconds float64
	TimeScale     float64
	TimeLabel     string
	SelectedCores []int
}

// Resolve validates s and computes the derived period/time-axis fields.
// Mirrors rtsyn-core/src/workspace.rs's runtime_settings(): validates
// units, computes period_seconds + time_scale/time_label, and defaults
// an empty core set to [0].
func (s Settings) Resolve() (Resolved, error) {
	if _, err := normalizeFrequencyUnit(s.FrequencyUnit); err != nil {
		return Resolved{}, err
	}
	if _, err := normalizePeriodUnit(s.PeriodUnit); err != nil {
		return Resolved{}, err
	}

	periodSeconds := periodSecondsFrom(s.PeriodValue, s.PeriodUnit)
	scale, label := timeScaleAndLabel(s.PeriodUnit)

	cores := s.SelectedCores
	if len(cores) == 0 {
		cores = []int{0}
	}

	return Resolved{
		PeriodSeconds: periodSeconds,
		TimeScale:     scale,
		TimeLabel:     label,
		SelectedCores: cores,
	}, nil
}

// Patch is a partial update to Settings, as carried by a
// RuntimeSettingsSet request. Only non-nil fields are applied.
type Patch struct {
	FrequencyValue *float64
	FrequencyUnit  *string
	PeriodValue    *float64
	PeriodUnit     *string
	SelectedCores  []int
}

// Apply validates and applies patch to s, returning the updated
// Settings. Enforces the mutual-exclusivity rule: a single patch may
// set frequency_* or period_* but not both. Recomputes the derived pair
// so FrequencyValue/PeriodValue always agree. Grounded on
// rtsyn-core/src/workspace.rs's apply_runtime_settings_patch.
func (s Settings) Apply(patch Patch) (Settings, error) {
	freqChanged := patch.FrequencyValue != nil || patch.FrequencyUnit != nil
	periodChanged := patch.PeriodValue != nil || patch.PeriodUnit != nil

	if freqChanged && periodChanged {
		return Settings{}, errors.New("provide either frequency_* or period_* values, not both at once")
	}

	out := s
	if len(patch.SelectedCores) > 0 {
		out.SelectedCores = patch.SelectedCores
	} else if out.SelectedCores == nil {
		out.SelectedCores = []int{0}
	}

	switch {
	case freqChanged:
		unit := out.FrequencyUnit
		if patch.FrequencyUnit != nil {
			u, err := normalizeFrequencyUnit(*patch.FrequencyUnit)
			if err != nil {
				return Settings{}, err
			}
			unit = u
		}
		value := out.FrequencyValue
		if patch.FrequencyValue != nil {
			value = *patch.FrequencyValue
		}
		if value < 1.0 {
			value = 1.0
		}
		out.FrequencyUnit = unit
		out.FrequencyValue = value

		hz := frequencyHzFrom(value, unit)
		out.PeriodValue = periodValueFromSeconds(1.0/hz, out.PeriodUnit)

	case periodChanged:
		unit := out.PeriodUnit
		if patch.PeriodUnit != nil {
			u, err := normalizePeriodUnit(*patch.PeriodUnit)
			if err != nil {
				return Settings{}, err
			}
			unit = u
		}
		value := out.PeriodValue
		if patch.PeriodValue != nil {
			value = *patch.PeriodValue
		}
		if value < 1.0 {
			value = 1.0
		}
		out.PeriodUnit = unit
		out.PeriodValue = value

		seconds := periodSecondsFrom(value, unit)
		out.FrequencyValue = frequencyValueFromHz(1.0/seconds, out.FrequencyUnit)
	}

	return out, nil
}
