// internal/settings/counter.go
package settings

import "github.com/tamzrod/vmix-tally/internal/status"

// Numeric ranges. Values outside are clamped on every entry point.
const (
	MinLightAreas = 1
	MaxLightAreas = 3

	MinBrightness = 1
	MaxBrightness = 8

	MinInput = 0
	MaxInput = status.MaxSources - 1
)

// Defaults for a device with no stored settings.
const (
	DefaultLightAreas LightAreas = 3
	DefaultBrightness Brightness = 5
	DefaultInput      Input      = 0
)

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ---- Brightness: clamped ----

// Brightness is the LED brightness step in [MinBrightness, MaxBrightness].
type Brightness uint8

// NewBrightness clamps v into range.
func NewBrightness(v int) Brightness {
	return Brightness(clamp(v, MinBrightness, MaxBrightness))
}

// Inc steps up, stopping at the maximum.
func (b Brightness) Inc() Brightness { return NewBrightness(int(b) + 1) }

// Dec steps down, stopping at the minimum.
func (b Brightness) Dec() Brightness { return NewBrightness(int(b) - 1) }

// ---- LightAreas: cyclic ----

// LightAreas selects which LED areas are lit. Bit 0 is the small side,
// bit 1 the large side.
type LightAreas uint8

// NewLightAreas clamps v into range.
func NewLightAreas(v int) LightAreas {
	return LightAreas(clamp(v, MinLightAreas, MaxLightAreas))
}

// Inc steps up, wrapping from the maximum to the minimum.
func (a LightAreas) Inc() LightAreas {
	if int(a) >= MaxLightAreas {
		return MinLightAreas
	}
	return NewLightAreas(int(a) + 1)
}

// Dec steps down, wrapping from the minimum to the maximum.
func (a LightAreas) Dec() LightAreas {
	if int(a) <= MinLightAreas {
		return MaxLightAreas
	}
	return NewLightAreas(int(a) - 1)
}

// Small reports whether the small side is lit.
func (a LightAreas) Small() bool { return a&1 != 0 }

// Large reports whether the large side is lit.
func (a LightAreas) Large() bool { return a&2 != 0 }

// ---- Input: cyclic ----

// Input is the vMix input index this light follows.
type Input uint16

// NewInput clamps v into range.
func NewInput(v int) Input {
	return Input(clamp(v, MinInput, MaxInput))
}

// Inc steps up, wrapping from the maximum to the minimum.
func (i Input) Inc() Input {
	if int(i) >= MaxInput {
		return MinInput
	}
	return NewInput(int(i) + 1)
}

// Dec steps down, wrapping from the minimum to the maximum.
func (i Input) Dec() Input {
	if int(i) <= MinInput {
		return MaxInput
	}
	return NewInput(int(i) - 1)
}
