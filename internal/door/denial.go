package door

import "github.com/doorkit/doord/internal/hw"

// Denial beep pattern: on/off/on/off in fixed 100ms phases over a 300ms
// window, then the timer deactivates and the deny indicator turns off.
const (
	denialPhase  hw.Millis = 100
	denialWindow hw.Millis = 300
)

// denialTimer drives the deny feedback purely from elapsed time since
// arming. Once armed it always runs to completion; there is no cancel.
type denialTimer struct {
	active  bool
	armedAt hw.Millis
}

func (t *denialTimer) arm(now hw.Millis, fb hw.FeedbackDevice) {
	t.active = true
	t.armedAt = now
	fb.SetDenyIndicator(true)
	fb.SetBuzzer(true)
}

func (t *denialTimer) service(now hw.Millis, fb hw.FeedbackDevice) {
	if !t.active {
		return
	}

	switch elapsed := hw.Elapsed(now, t.armedAt); {
	case elapsed < denialPhase:
		fb.SetBuzzer(true)
	case elapsed < 2*denialPhase:
		fb.SetBuzzer(false)
	case elapsed < denialWindow:
		fb.SetBuzzer(true)
	default:
		fb.SetBuzzer(false)
		fb.SetDenyIndicator(false)
		t.active = false
	}
}
