// internal/input/virtual.go
package input

import "sync/atomic"

// Virtual is a button driven from software (monitor websocket, tests).
type Virtual struct {
	pressed atomic.Bool
}

// Pressed reports the current level.
func (v *Virtual) Pressed() bool {
	return v.pressed.Load()
}

// Set drives the level.
func (v *Virtual) Set(pressed bool) {
	v.pressed.Store(pressed)
}
