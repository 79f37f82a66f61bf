// internal/input/gpio.go
package input

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

var (
	gpioMu   sync.Mutex
	gpioOpen int
)

// GPIO samples an active-low button wired to a BCM pin with the internal
// pull-up enabled.
type GPIO struct {
	pin rpio.Pin
}

// OpenGPIO maps the GPIO block on first use and configures pin as a
// pulled-up input. Every successful OpenGPIO needs one Close.
func OpenGPIO(bcm int) (*GPIO, error) {
	if bcm < 0 || bcm > 27 {
		return nil, fmt.Errorf("input gpio: pin %d out of range 0..27", bcm)
	}

	gpioMu.Lock()
	defer gpioMu.Unlock()

	if gpioOpen == 0 {
		if err := rpio.Open(); err != nil {
			return nil, fmt.Errorf("input gpio: open: %w", err)
		}
	}
	gpioOpen++

	pin := rpio.Pin(bcm)
	pin.Input()
	pin.PullUp()

	return &GPIO{pin: pin}, nil
}

// Pressed reads the pin. Low means pressed.
func (g *GPIO) Pressed() bool {
	return g.pin.Read() == rpio.Low
}

// Close releases the GPIO mapping once the last pin is closed.
func (g *GPIO) Close() error {
	gpioMu.Lock()
	defer gpioMu.Unlock()

	if gpioOpen == 0 {
		return nil
	}
	gpioOpen--
	if gpioOpen == 0 {
		return rpio.Close()
	}
	return nil
}
