// Package hw declares the hardware capabilities the controller consumes.
// Real boards implement these against their GPIO/SPI drivers; the sim
// subpackage implements them for desktop runs.
package hw

import "time"

// Millis is a millisecond timestamp from a monotonic counter that wraps at
// 32 bits. Durations must be computed with Elapsed, never by comparing
// timestamps directly.
type Millis uint32

// Elapsed returns the milliseconds between start and now. Unsigned
// subtraction keeps the result correct across counter wraparound.
func Elapsed(now, start Millis) Millis {
	return now - start
}

// Clock is the controller's only time source. Sleep carries the two
// intentional blocking feedback pulses so that fakes can absorb them.
type Clock interface {
	NowMillis() Millis
	Sleep(d time.Duration)
}

// CredentialReader detects and reads access credentials.
type CredentialReader interface {
	// PollNewPresence reports whether a credential is currently present.
	PollNewPresence() bool
	// ReadIdentity returns the identity bytes of the present credential.
	// ok is false when the credential could not be read; callers treat
	// that the same as no credential present.
	ReadIdentity() (id []byte, ok bool)
	// EndSession releases the current credential session.
	EndSession()
}

// DoorActuator moves the door mechanism. Positive steps open, negative
// close. The call completes synchronously.
type DoorActuator interface {
	Advance(steps int)
}

// FeedbackDevice drives the buzzer and the two indicator channels.
type FeedbackDevice interface {
	SetGrantIndicator(on bool)
	SetDenyIndicator(on bool)
	SetBuzzer(on bool)
}

// LightSensor yields a scalar ambient-light reading. The range is
// sensor-defined; the automation threshold lives on the same scale.
type LightSensor interface {
	Read() int
}

// LightBank drives all output channels of the lighting bank uniformly.
type LightBank interface {
	SetAll(on bool)
}
