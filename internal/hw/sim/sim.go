// Package sim implements the hardware capabilities in software so the
// daemon can run on a desktop machine. Real boards provide their own
// implementations of the hw interfaces against their GPIO/SPI drivers.
package sim

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Reader simulates a credential reader that presents the same identity
// periodically: the card appears for Hold out of every Every.
type Reader struct {
	identity []byte
	every    time.Duration
	hold     time.Duration
	start    time.Time
}

// NewReader creates a simulated reader. With a non-positive every the
// reader never presents a credential.
func NewReader(identity []byte, every, hold time.Duration) *Reader {
	return &Reader{
		identity: identity,
		every:    every,
		hold:     hold,
		start:    time.Now(),
	}
}

func (r *Reader) PollNewPresence() bool {
	if r.every <= 0 {
		return false
	}
	return time.Since(r.start)%r.every < r.hold
}

func (r *Reader) ReadIdentity() ([]byte, bool) {
	id := make([]byte, len(r.identity))
	copy(id, r.identity)
	return id, true
}

func (r *Reader) EndSession() {}

// Actuator simulates the door stepper, tracking a step position.
type Actuator struct {
	position int
}

// NewActuator creates a simulated actuator at position zero.
func NewActuator() *Actuator {
	return &Actuator{}
}

func (a *Actuator) Advance(steps int) {
	a.position += steps
	log.Debug().Int("steps", steps).Int("position", a.position).Msg("Door actuator moved")
}

// Position returns the current step position.
func (a *Actuator) Position() int {
	return a.position
}

// Feedback simulates the buzzer and indicators, logging changes.
type Feedback struct {
	grant  bool
	deny   bool
	buzzer bool
}

// NewFeedback creates a simulated feedback device with everything off.
func NewFeedback() *Feedback {
	return &Feedback{}
}

func (f *Feedback) SetGrantIndicator(on bool) {
	if f.grant != on {
		log.Debug().Bool("on", on).Msg("Grant indicator")
	}
	f.grant = on
}

func (f *Feedback) SetDenyIndicator(on bool) {
	if f.deny != on {
		log.Debug().Bool("on", on).Msg("Deny indicator")
	}
	f.deny = on
}

func (f *Feedback) SetBuzzer(on bool) {
	if f.buzzer != on {
		log.Debug().Bool("on", on).Msg("Buzzer")
	}
	f.buzzer = on
}

// Sensor simulates the ambient-light sensor with a fixed reading.
type Sensor struct {
	reading int
}

// NewSensor creates a simulated sensor that always returns reading.
func NewSensor(reading int) *Sensor {
	return &Sensor{reading: reading}
}

func (s *Sensor) Read() int {
	return s.reading
}

// Bank simulates the lighting bank, logging on/off flips.
type Bank struct {
	on   bool
	seen bool
}

// NewBank creates a simulated lighting bank.
func NewBank() *Bank {
	return &Bank{}
}

func (b *Bank) SetAll(on bool) {
	if !b.seen || b.on != on {
		log.Debug().Bool("on", on).Msg("Light bank")
	}
	b.seen = true
	b.on = on
}
