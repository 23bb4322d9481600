package hw

import "time"

// WallClock implements Clock on the runtime monotonic clock, truncated to
// the 32-bit millisecond width the rest of the controller assumes.
type WallClock struct {
	start time.Time
}

// NewWallClock returns a WallClock anchored at the current instant.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (c *WallClock) NowMillis() Millis {
	return Millis(time.Since(c.start).Milliseconds())
}

func (c *WallClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
