// internal/debounce/debouncer.go
package debounce

import (
	"sync/atomic"
	"time"
)

// Shift register geometry. Every bit is one sample, bit 0 the newest.
// A transition needs the newest 8 samples in the new state and the oldest 8
// of the 32 sample history in the old state. The 16 samples in between are
// ignored so contact bounce on the edge is absorbed. A pulse still in the
// oldest byte delays recognition until it has shifted out.
const (
	edgeMask       uint32 = 0xFF0000FF
	pressPattern   uint32 = 0x000000FF
	releasePattern uint32 = 0xFF000000
	held           uint32 = ^uint32(0)
)

// DefaultHoldThreshold is the press duration that turns a press into a hold.
const DefaultHoldThreshold = 1000 * time.Millisecond

// Clock returns a monotonic timestamp. It must not block or allocate.
type Clock func() time.Duration

// MonotonicClock returns a Clock measuring time since its creation.
func MonotonicClock() Clock {
	start := time.Now()
	return func() time.Duration { return time.Since(start) }
}

// Debouncer is the per-input debounce state.
//
// state, pressAt and hasBeenHeld are owned by the sampling goroutine.
// click and hold are the only fields touched by consumers.
type Debouncer struct {
	hold  time.Duration
	clock Clock

	state       uint32
	pressAt     time.Duration
	hasBeenHeld bool

	click atomic.Bool
	holdE atomic.Bool
}

// New creates a debouncer. A zero hold threshold selects DefaultHoldThreshold,
// a nil clock selects MonotonicClock.
func New(hold time.Duration, clock Clock) *Debouncer {
	if hold <= 0 {
		hold = DefaultHoldThreshold
	}
	if clock == nil {
		clock = MonotonicClock()
	}
	return &Debouncer{hold: hold, clock: clock}
}

// Sample feeds one raw sample (true = pressed) taken now.
func (d *Debouncer) Sample(raw bool) {
	d.SampleAt(raw, d.clock())
}

// SampleAt feeds one raw sample taken at now.
func (d *Debouncer) SampleAt(raw bool, now time.Duration) {
	st := d.state << 1
	if raw {
		st |= 1
	}

	switch {
	case st&edgeMask == pressPattern:
		d.pressAt = now
		d.hasBeenHeld = false
		st = held

	case st&edgeMask == releasePattern:
		st = 0
		if !d.hasBeenHeld {
			d.click.Store(true)
		}
		d.hasBeenHeld = false

	case st == held:
		if now-d.pressAt >= d.hold {
			d.hasBeenHeld = true
			d.holdE.Store(true)
			d.pressAt = now
		}
	}

	d.state = st
}

// PollClick reports and clears a pending click.
func (d *Debouncer) PollClick() bool {
	return d.click.Swap(false)
}

// PollHold reports and clears a pending hold.
func (d *Debouncer) PollHold() bool {
	return d.holdE.Swap(false)
}
