// internal/mirror/mirror.go
package mirror

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/vmix-tally/internal/status"
)

// DefaultInterval is how often the register is sampled.
const DefaultInterval = 100 * time.Millisecond

// Sink is the delivery-only contract for a status mirror.
// It receives a snapshot and writes it out. No interpretation.
type Sink interface {
	Name() string
	Publish(s status.ConnectionStatus) error
	Close() error
}

// Runner samples the status register and hands every change to each sink.
// A sink whose last publish failed is retried on the next tick even when
// the status has not changed.
type Runner struct {
	reg      *status.Register
	sinks    []Sink
	interval time.Duration
	log      log.FieldLogger
}

// NewRunner wires sinks to reg.
func NewRunner(reg *status.Register, interval time.Duration, sinks []Sink, logger log.FieldLogger) (*Runner, error) {
	if reg == nil {
		return nil, errors.New("mirror: status register required")
	}
	if len(sinks) == 0 {
		return nil, errors.New("mirror: at least one sink required")
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Runner{
		reg:      reg,
		sinks:    append([]Sink(nil), sinks...),
		interval: interval,
		log:      logger.WithField("component", "mirror"),
	}, nil
}

// Run publishes until ctx is done, then closes every sink.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer r.close()

	type sinkState struct {
		published bool
		last      status.ConnectionStatus
	}
	states := make([]sinkState, len(r.sinks))

	step := func() {
		cur := r.reg.Get()
		for i, s := range r.sinks {
			st := &states[i]
			if st.published && st.last == cur {
				continue
			}
			if err := s.Publish(cur); err != nil {
				if st.published || st.last != cur {
					r.log.WithError(err).WithField("sink", s.Name()).Warn("publish failed")
				}
				st.published = false
				st.last = cur
				continue
			}
			st.published = true
			st.last = cur
		}
	}

	step()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			step()
		}
	}
}

func (r *Runner) close() {
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			r.log.WithError(err).WithField("sink", s.Name()).Warn("close failed")
		}
	}
}
