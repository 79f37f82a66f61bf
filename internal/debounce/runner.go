// internal/debounce/runner.go
package debounce

import (
	"context"
	"errors"
	"time"
)

// DefaultTick is the sampling period.
const DefaultTick = time.Millisecond

// Sampler reads the raw state of one input. true means pressed.
// Implementations are called from the tick goroutine and must not block.
type Sampler interface {
	Pressed() bool
}

// Channel binds one input to its debouncer.
type Channel struct {
	Name      string
	Sampler   Sampler
	Debouncer *Debouncer
}

// Runner samples every channel once per tick.
type Runner struct {
	tick     time.Duration
	channels []Channel
}

// NewRunner creates a runner with immutable channel wiring.
func NewRunner(tick time.Duration, channels []Channel) (*Runner, error) {
	if tick <= 0 {
		tick = DefaultTick
	}
	if len(channels) == 0 {
		return nil, errors.New("debounce: at least one channel required")
	}
	for _, c := range channels {
		if c.Sampler == nil || c.Debouncer == nil {
			return nil, errors.New("debounce: channel " + c.Name + " is not wired")
		}
	}
	cs := make([]Channel, len(channels))
	copy(cs, channels)
	return &Runner{tick: tick, channels: cs}, nil
}

// Tick samples every channel once.
func (r *Runner) Tick() {
	for i := range r.channels {
		c := &r.channels[i]
		c.Debouncer.Sample(c.Sampler.Pressed())
	}
}

// Run ticks until ctx is done.
// One goroutine. Missed ticks are dropped by the ticker, not replayed.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick()
		}
	}
}
