// internal/input/input.go
package input

import (
	"fmt"
	"io"
)

// Backend names accepted by Open.
const (
	BackendVirtual = "virtual"
	BackendGPIO    = "gpio"
)

// Sampler is one raw button level.
type Sampler interface {
	Pressed() bool
}

// Button names, in front panel order.
const (
	Brightness = "brightness"
	Up         = "up"
	Mode       = "mode"
	Down       = "down"
)

// Names lists the panel buttons in order.
var Names = []string{Brightness, Up, Mode, Down}

// Set is the opened samplers keyed by button name.
// Virtual holds the software-drivable buttons (all of them for the virtual
// backend, none for gpio).
type Set struct {
	Samplers map[string]Sampler
	Virtual  map[string]*Virtual

	closers []io.Closer
}

// Open builds one sampler per button name. pins maps button name to BCM
// pin and is only used by the gpio backend.
func Open(backend string, pins map[string]int) (*Set, error) {
	s := &Set{
		Samplers: make(map[string]Sampler, len(Names)),
		Virtual:  make(map[string]*Virtual),
	}

	switch backend {
	case "", BackendVirtual:
		for _, name := range Names {
			v := &Virtual{}
			s.Samplers[name] = v
			s.Virtual[name] = v
		}
		return s, nil

	case BackendGPIO:
		for _, name := range Names {
			pin, ok := pins[name]
			if !ok {
				_ = s.Close()
				return nil, fmt.Errorf("input: no pin for button %q", name)
			}
			g, err := OpenGPIO(pin)
			if err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("input: button %q: %w", name, err)
			}
			s.Samplers[name] = g
			s.closers = append(s.closers, g)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("input: unknown backend %q", backend)
	}
}

// Close releases hardware samplers.
func (s *Set) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
