// Package controller runs the cooperative control loop that interleaves
// credential evaluation, the door state machine and light automation.
package controller

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/doorkit/doord/internal/access"
	"github.com/doorkit/doord/internal/door"
	"github.com/doorkit/doord/internal/eventbus"
	"github.com/doorkit/doord/internal/hw"
	"github.com/doorkit/doord/internal/lights"
)

// DefaultTickInterval paces the control loop.
const DefaultTickInterval = 10 * time.Millisecond

// Loop ties the controller components together, one pass per tick. It is
// the single owner of the card-processed latch; all component state is
// mutated synchronously inside Tick.
type Loop struct {
	clock  hw.Clock
	reader hw.CredentialReader
	auth   *access.Controller
	door   *door.Machine
	lights *lights.Automation
	bus    *eventbus.Bus

	// cardProcessed latches after one evaluation of a present credential
	// and clears when no credential is detected, so a card left on the
	// reader is evaluated exactly once.
	cardProcessed bool
}

// New wires a control loop. bus may be nil, in which case no events are
// published. The loop installs change hooks on the door machine and the
// light automation to report their transitions.
func New(clock hw.Clock, reader hw.CredentialReader, auth *access.Controller, machine *door.Machine, automation *lights.Automation, bus *eventbus.Bus) *Loop {
	l := &Loop{
		clock:  clock,
		reader: reader,
		auth:   auth,
		door:   machine,
		lights: automation,
		bus:    bus,
	}

	machine.OnTransition = func(from, to door.State) {
		l.publish(eventbus.EventTypeDoorState, map[string]interface{}{
			"from": from.String(),
			"to":   to.String(),
		})
	}
	automation.OnChange = func(on bool, reading int) {
		log.Info().Bool("on", on).Int("reading", reading).Msg("Light bank switched")
		l.publish(eventbus.EventTypeLights, map[string]interface{}{
			"on":      on,
			"reading": reading,
		})
	}

	return l
}

// Tick runs one control-loop pass in fixed order: credential evaluation
// and denial-timer servicing, then the door state machine, then light
// automation.
func (l *Loop) Tick() {
	l.evaluateCredential()
	l.door.ServiceDenial()
	l.door.Tick()
	l.lights.Tick()
}

// Run ticks the loop until the context is cancelled. This is the process's
// entire runtime behavior after initialization.
func (l *Loop) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	log.Info().Dur("interval", interval).Msg("Control loop started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Control loop stopped")
			return
		case <-ticker.C:
			l.Tick()
		}
	}
}

// evaluateCredential handles at most one credential evaluation per
// presented card. Read failures are treated identically to no card
// present: the latch clears and evaluation is skipped.
func (l *Loop) evaluateCredential() {
	if !l.reader.PollNewPresence() {
		l.cardProcessed = false
		return
	}
	if l.cardProcessed {
		return
	}

	raw, ok := l.reader.ReadIdentity()
	if !ok {
		l.cardProcessed = false
		return
	}

	identity := hex.EncodeToString(raw)
	granted := l.auth.Authorize(raw)

	switch {
	case granted && l.door.Grant():
		log.Info().Str("identity", identity).Msg("Access granted")
		l.publish(eventbus.EventTypeAccessGranted, map[string]interface{}{
			"identity": identity,
		})
	case granted:
		// Door already in a cycle: the credential is consumed silently,
		// with no feedback and no door action.
		log.Debug().Str("identity", identity).Stringer("door", l.door.State()).Msg("Granted credential ignored, door busy")
	default:
		log.Info().Str("identity", identity).Msg("Access denied")
		l.door.Deny()
		l.publish(eventbus.EventTypeAccessDenied, map[string]interface{}{
			"identity": identity,
		})
	}

	l.cardProcessed = true
	l.reader.EndSession()
}

func (l *Loop) publish(eventType eventbus.EventType, data map[string]interface{}) {
	if l.bus == nil {
		return
	}
	l.bus.Publish(eventbus.Event{Type: eventType, Data: data})
}
