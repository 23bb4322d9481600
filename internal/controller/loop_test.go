package controller

import (
	"testing"
	"time"

	"github.com/doorkit/doord/internal/access"
	"github.com/doorkit/doord/internal/door"
	"github.com/doorkit/doord/internal/hw"
	"github.com/doorkit/doord/internal/lights"
)

type fakeClock struct {
	now hw.Millis
}

func (c *fakeClock) NowMillis() hw.Millis { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.now += hw.Millis(d.Milliseconds())
}

func (c *fakeClock) advance(ms int) { c.now += hw.Millis(ms) }

type fakeReader struct {
	present   bool
	id        []byte
	readable  bool
	readCalls int
	endCalls  int
}

func (r *fakeReader) PollNewPresence() bool { return r.present }

func (r *fakeReader) ReadIdentity() ([]byte, bool) {
	r.readCalls++
	if !r.readable {
		return nil, false
	}
	return r.id, true
}

func (r *fakeReader) EndSession() { r.endCalls++ }

type fakeActuator struct {
	moves []int
}

func (a *fakeActuator) Advance(steps int) { a.moves = append(a.moves, steps) }

type fakeFeedback struct {
	grant  bool
	deny   bool
	buzzer bool
}

func (f *fakeFeedback) SetGrantIndicator(on bool) { f.grant = on }
func (f *fakeFeedback) SetDenyIndicator(on bool)  { f.deny = on }
func (f *fakeFeedback) SetBuzzer(on bool)         { f.buzzer = on }

type fakeSensor struct {
	reading int
}

func (s *fakeSensor) Read() int { return s.reading }

type fakeBank struct {
	on       bool
	setCalls int
}

func (b *fakeBank) SetAll(on bool) {
	b.on = on
	b.setCalls++
}

var authorizedID = access.Identity{0x63, 0xB4, 0x9A, 0x2B}

type loopFixture struct {
	loop     *Loop
	clock    *fakeClock
	reader   *fakeReader
	machine  *door.Machine
	actuator *fakeActuator
	feedback *fakeFeedback
	sensor   *fakeSensor
	bank     *fakeBank
}

func newLoopFixture() *loopFixture {
	f := &loopFixture{
		clock:    &fakeClock{},
		reader:   &fakeReader{readable: true},
		actuator: &fakeActuator{},
		feedback: &fakeFeedback{},
		sensor:   &fakeSensor{reading: 500},
		bank:     &fakeBank{},
	}
	f.machine = door.New(f.clock, f.actuator, f.feedback, door.Config{})
	auth := access.NewController(authorizedID)
	automation := lights.New(f.sensor, f.bank, lights.DefaultThreshold)
	f.loop = New(f.clock, f.reader, auth, f.machine, automation, nil)
	return f
}

func (f *loopFixture) presentCard(id []byte) {
	f.reader.present = true
	f.reader.id = id
}

func (f *loopFixture) removeCard() {
	f.reader.present = false
}

func TestCardEvaluatedOncePerPresentation(t *testing.T) {
	f := newLoopFixture()
	f.presentCard([]byte{0xDE, 0xAD, 0xBE, 0xEF})

	for i := 0; i < 5; i++ {
		f.loop.Tick()
		f.clock.advance(10)
	}

	if f.reader.readCalls != 1 {
		t.Errorf("ReadIdentity called %d times for one held card, want 1", f.reader.readCalls)
	}
	if f.reader.endCalls != 1 {
		t.Errorf("EndSession called %d times, want 1", f.reader.endCalls)
	}

	// Removing and re-presenting clears the latch for a new evaluation.
	f.removeCard()
	f.loop.Tick()
	f.presentCard([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	f.loop.Tick()

	if f.reader.readCalls != 2 {
		t.Errorf("ReadIdentity called %d times after re-presenting, want 2", f.reader.readCalls)
	}
}

func TestUnreadableCredentialTreatedAsAbsent(t *testing.T) {
	f := newLoopFixture()
	f.presentCard(nil)
	f.reader.readable = false

	for i := 0; i < 3; i++ {
		f.loop.Tick()
		f.clock.advance(10)
	}

	if f.reader.endCalls != 0 {
		t.Error("EndSession should not be called when no evaluation occurred")
	}
	if f.machine.DenialActive() {
		t.Error("read failure must not arm the denial timer")
	}
	if f.machine.State() != door.StateIdle {
		t.Errorf("door state = %v, want idle", f.machine.State())
	}
}

func TestGrantedEndToEnd(t *testing.T) {
	f := newLoopFixture()
	f.presentCard(authorizedID[:])

	f.loop.Tick()
	if f.machine.State() != door.StateWaitOpen {
		t.Fatalf("door state after granted tick = %v, want wait_open", f.machine.State())
	}
	if len(f.actuator.moves) != 1 || f.actuator.moves[0] <= 0 {
		t.Fatalf("actuator moves = %v, want one forward move", f.actuator.moves)
	}

	f.removeCard()

	// Hold window: one tick short of the hold duration must not close.
	f.clock.advance(4999)
	f.loop.Tick()
	if f.machine.State() != door.StateWaitOpen {
		t.Fatalf("door state at 4999ms = %v, want wait_open", f.machine.State())
	}

	f.clock.advance(1)
	f.loop.Tick()
	if f.machine.State() != door.StateClosing {
		t.Fatalf("door state at 5000ms = %v, want closing", f.machine.State())
	}

	f.loop.Tick()
	if f.machine.State() != door.StateIdle {
		t.Fatalf("door state after closing tick = %v, want idle", f.machine.State())
	}
	if len(f.actuator.moves) != 2 || f.actuator.moves[1] != -f.actuator.moves[0] {
		t.Fatalf("actuator moves = %v, want symmetric open/close", f.actuator.moves)
	}

	// Door is ready for the next credential.
	f.presentCard(authorizedID[:])
	f.loop.Tick()
	if f.machine.State() != door.StateWaitOpen {
		t.Errorf("door state after second grant = %v, want wait_open", f.machine.State())
	}
}

func TestDeniedEndToEnd(t *testing.T) {
	f := newLoopFixture()
	f.presentCard([]byte{0x01, 0x02, 0x03, 0x04})

	f.loop.Tick()
	if !f.machine.DenialActive() {
		t.Fatal("denial timer should be armed after a denied evaluation")
	}
	if !f.feedback.deny || !f.feedback.buzzer {
		t.Fatal("deny indicator and buzzer should be on right after denial")
	}

	checkpoints := []struct {
		at     int
		buzzer bool
	}{
		{at: 50, buzzer: true},
		{at: 150, buzzer: false},
		{at: 250, buzzer: true},
		{at: 350, buzzer: false},
	}

	elapsed := 0
	for _, cp := range checkpoints {
		f.clock.advance(cp.at - elapsed)
		elapsed = cp.at
		f.loop.Tick()
		if f.feedback.buzzer != cp.buzzer {
			t.Errorf("buzzer at %dms = %v, want %v", cp.at, f.feedback.buzzer, cp.buzzer)
		}
		if f.machine.State() != door.StateIdle {
			t.Errorf("door state at %dms = %v, want idle throughout denial", cp.at, f.machine.State())
		}
	}

	if f.machine.DenialActive() {
		t.Error("denial timer should deactivate after the pattern")
	}
	if f.feedback.deny {
		t.Error("deny indicator should be off after the pattern")
	}
	if len(f.actuator.moves) != 0 {
		t.Errorf("door moved on denial: %v", f.actuator.moves)
	}
}

func TestGrantedWhileDoorBusyConsumedSilently(t *testing.T) {
	f := newLoopFixture()
	f.presentCard(authorizedID[:])
	f.loop.Tick() // door now in WaitOpen

	f.removeCard()
	f.loop.Tick()
	f.presentCard(authorizedID[:])
	f.loop.Tick()

	if f.machine.State() != door.StateWaitOpen {
		t.Errorf("door state = %v, want wait_open unchanged", f.machine.State())
	}
	if len(f.actuator.moves) != 1 {
		t.Errorf("actuator moves = %v, want no extra motion", f.actuator.moves)
	}
	if f.machine.DenialActive() {
		t.Error("a granted-but-ignored credential must not arm the denial timer")
	}
	if f.reader.endCalls != 2 {
		t.Errorf("EndSession calls = %d, want 2 (credential still consumed)", f.reader.endCalls)
	}

	// The latch holds: no re-evaluation while the card stays on the reader.
	f.loop.Tick()
	if f.reader.readCalls != 2 {
		t.Errorf("ReadIdentity calls = %d, want 2", f.reader.readCalls)
	}
}

func TestLightsServicedEveryTick(t *testing.T) {
	f := newLoopFixture()
	f.sensor.reading = 150
	f.presentCard([]byte{0x01, 0x02, 0x03, 0x04}) // denial running alongside

	for i := 0; i < 4; i++ {
		f.loop.Tick()
		f.clock.advance(100)
	}

	if f.bank.setCalls != 4 {
		t.Errorf("light bank driven %d times, want once per tick", f.bank.setCalls)
	}
	if !f.bank.on {
		t.Error("bank should be on for a dark reading")
	}

	f.sensor.reading = 900
	f.loop.Tick()
	if f.bank.on {
		t.Error("bank should be off for a bright reading")
	}
}
