// Package lights maps the ambient-light reading onto the lighting bank.
package lights

import "github.com/doorkit/doord/internal/hw"

// DefaultThreshold is the reading at or below which the bank turns on.
const DefaultThreshold = 200

// Dark reports whether a sensor reading calls for the lights to be on.
// The threshold is inclusive on the dark side: reading == threshold is dark.
func Dark(reading, threshold int) bool {
	return reading <= threshold
}

// Automation drives the whole bank from the sensor every tick. It is a
// plain threshold map with no hysteresis; the bank is re-driven on every
// tick regardless of whether the state changed.
type Automation struct {
	sensor    hw.LightSensor
	bank      hw.LightBank
	threshold int

	seen bool
	last bool

	// OnChange, when set, is called whenever the computed output flips.
	// It exists for event reporting only and never gates the outputs.
	OnChange func(on bool, reading int)
}

// New creates an Automation with the given threshold. Defaulting is the
// caller's concern; a zero threshold is legitimate and means only a zero
// reading turns the bank on.
func New(sensor hw.LightSensor, bank hw.LightBank, threshold int) *Automation {
	return &Automation{sensor: sensor, bank: bank, threshold: threshold}
}

// Tick samples the sensor and drives the bank.
func (a *Automation) Tick() {
	reading := a.sensor.Read()
	on := Dark(reading, a.threshold)
	a.bank.SetAll(on)

	if !a.seen || a.last != on {
		a.seen = true
		a.last = on
		if a.OnChange != nil {
			a.OnChange(on, reading)
		}
	}
}
