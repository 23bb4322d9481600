// Package door owns the door state machine: the timed open/hold/close cycle
// and the denial feedback pattern.
package door

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/doorkit/doord/internal/hw"
)

// State represents the door cycle state.
type State int

const (
	StateIdle State = iota
	StateOpening
	StateWaitOpen
	StateClosing
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateWaitOpen:
		return "wait_open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Default cycle parameters.
const (
	DefaultStepCount  = 512
	DefaultHoldOpen   = 5000 * time.Millisecond
	DefaultGrantPulse = 200 * time.Millisecond
	DefaultOpenBeep   = 300 * time.Millisecond
)

// Config holds the door cycle parameters.
type Config struct {
	// StepCount is how far the actuator advances to open; closing uses the
	// same count negated.
	StepCount int
	// HoldOpen is how long the door stays open before closing.
	HoldOpen time.Duration
	// GrantPulse is the duration of the audio-visual grant pulse.
	GrantPulse time.Duration
	// OpenBeep is the duration of the open-announcement beep.
	OpenBeep time.Duration
}

// withDefaults fills zero fields with the default cycle parameters.
func (c Config) withDefaults() Config {
	if c.StepCount == 0 {
		c.StepCount = DefaultStepCount
	}
	if c.HoldOpen == 0 {
		c.HoldOpen = DefaultHoldOpen
	}
	if c.GrantPulse == 0 {
		c.GrantPulse = DefaultGrantPulse
	}
	if c.OpenBeep == 0 {
		c.OpenBeep = DefaultOpenBeep
	}
	return c
}

// Machine is the door state machine. It exclusively owns the door state,
// the open-start timestamp and the denial timer; all mutation happens
// synchronously inside control-loop ticks.
type Machine struct {
	clock    hw.Clock
	actuator hw.DoorActuator
	feedback hw.FeedbackDevice
	cfg      Config

	state    State
	openedAt hw.Millis
	denial   denialTimer

	// OnTransition, when set, is called after every state change.
	OnTransition func(from, to State)
}

// New creates a door machine in the Idle state.
func New(clock hw.Clock, actuator hw.DoorActuator, feedback hw.FeedbackDevice, cfg Config) *Machine {
	return &Machine{
		clock:    clock,
		actuator: actuator,
		feedback: feedback,
		cfg:      cfg.withDefaults(),
	}
}

// State returns the current door state.
func (m *Machine) State() State {
	return m.state
}

// Grant begins the open cycle. It only acts when the door is Idle; in any
// other state the credential is consumed without door action and Grant
// reports false.
func (m *Machine) Grant() bool {
	if m.state != StateIdle {
		return false
	}
	m.transition(StateOpening)
	return true
}

// Deny arms the denial feedback timer. The caller's processed-card latch
// guarantees at most one active timer.
func (m *Machine) Deny() {
	m.denial.arm(m.clock.NowMillis(), m.feedback)
}

// DenialActive reports whether the denial pattern is still running.
func (m *Machine) DenialActive() bool {
	return m.denial.active
}

// ServiceDenial advances the denial beep pattern. Non-blocking; called once
// per tick.
func (m *Machine) ServiceDenial() {
	m.denial.service(m.clock.NowMillis(), m.feedback)
}

// Tick advances the state machine by at most one state's worth of work.
// Opening and Closing complete within the tick that enters them; only
// WaitOpen spans ticks, gated by the clock.
func (m *Machine) Tick() {
	switch m.state {
	case StateOpening:
		m.pulseGrant()
		m.announceOpen()
		m.actuator.Advance(m.cfg.StepCount)
		m.openedAt = m.clock.NowMillis()
		m.transition(StateWaitOpen)

	case StateWaitOpen:
		held := hw.Elapsed(m.clock.NowMillis(), m.openedAt)
		if held >= hw.Millis(m.cfg.HoldOpen.Milliseconds()) {
			m.transition(StateClosing)
		}

	case StateClosing:
		m.actuator.Advance(-m.cfg.StepCount)
		m.transition(StateIdle)
	}
}

// pulseGrant runs the grant feedback pulse: indicator on, buzzer on, hold,
// indicator off, buzzer off. The wait blocks the whole loop for the pulse
// duration; nothing else is serviced during it.
func (m *Machine) pulseGrant() {
	m.feedback.SetGrantIndicator(true)
	m.feedback.SetBuzzer(true)
	m.clock.Sleep(m.cfg.GrantPulse)
	m.feedback.SetGrantIndicator(false)
	m.feedback.SetBuzzer(false)
}

// announceOpen beeps once before the door starts moving. Also blocking.
func (m *Machine) announceOpen() {
	m.feedback.SetBuzzer(true)
	m.clock.Sleep(m.cfg.OpenBeep)
	m.feedback.SetBuzzer(false)
}

func (m *Machine) transition(to State) {
	from := m.state
	m.state = to
	log.Debug().Stringer("from", from).Stringer("to", to).Msg("Door state changed")
	if m.OnTransition != nil {
		m.OnTransition(from, to)
	}
}
