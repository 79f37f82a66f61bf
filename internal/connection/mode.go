// internal/connection/mode.go
package connection

import "sync/atomic"

// Mode selects the top-level connection behaviour.
type Mode int32

const (
	ModeNormal Mode = iota
	ModeConfiguration
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// ModeSwitch is the shared operating mode. The foreground writes it, the
// connection manager reads it at its polling points.
type ModeSwitch struct {
	v atomic.Int32
}

func (s *ModeSwitch) Get() Mode { return Mode(s.v.Load()) }

func (s *ModeSwitch) Set(m Mode) { s.v.Store(int32(m)) }

// Toggle flips between normal and configuration and returns the new mode.
func (s *ModeSwitch) Toggle() Mode {
	for {
		old := s.v.Load()
		next := int32(ModeConfiguration)
		if Mode(old) == ModeConfiguration {
			next = int32(ModeNormal)
		}
		if s.v.CompareAndSwap(old, next) {
			return Mode(next)
		}
	}
}
