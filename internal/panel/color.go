// internal/panel/color.go
package panel

import (
	"fmt"

	"github.com/tamzrod/vmix-tally/internal/settings"
	"github.com/tamzrod/vmix-tally/internal/status"
)

// NumLEDs is the strip length: two rows of five, the last of each row on
// the small side.
const NumLEDs = 10

// Color is 0xRRGGBB.
type Color uint32

const (
	ColorOff        Color = 0x000000
	ColorProgram    Color = 0xFF0000
	ColorPreview    Color = 0xFF7F00
	ColorInactive   Color = 0x0000FF
	ColorConnecting Color = 0xFF00FF
	ColorAP         Color = 0xFFFFFF
	ColorMenu       Color = 0x00FFFF
)

// batteryBars maps the bottom row to LiPo cell voltages, fullest first.
var batteryBars = [...]struct {
	led   int
	volts float64
}{
	{9, 4.15},
	{8, 3.98},
	{7, 3.85},
	{6, 3.79},
	{5, 3.71},
}

func (c Color) String() string { return fmt.Sprintf("#%06X", uint32(c)) }

// Dim divides each channel by d.
func (c Color) Dim(d uint32) Color {
	if d <= 1 {
		return c
	}
	r := (uint32(c) >> 16 & 0xFF) / d
	g := (uint32(c) >> 8 & 0xFF) / d
	b := (uint32(c) & 0xFF) / d
	return Color(r<<16 | g<<8 | b)
}

// ColorFor picks the colour for the watched input.
func ColorFor(s status.ConnectionStatus, input settings.Input) Color {
	if s.APActive {
		return ColorAP
	}
	if !s.IsConnected() {
		return ColorConnecting
	}
	switch s.Tally(int(input)) {
	case status.TallyProgram:
		return ColorProgram
	case status.TallyPreview:
		return ColorPreview
	default:
		return ColorInactive
	}
}

// smallSide reports whether LED i sits on the small side.
func smallSide(i int) bool {
	return (i+1)%(NumLEDs/2) == 0
}

// activeMask marks the LEDs lit in the main view.
func activeMask(a settings.LightAreas) [NumLEDs]bool {
	var m [NumLEDs]bool
	for i := range m {
		if smallSide(i) {
			m[i] = a.Small()
		} else {
			m[i] = a.Large()
		}
	}
	return m
}

// Pixels renders a frame into per-LED colours.
//
// Menu items light one LED of the top row; the battery item adds the
// charge bars on the bottom row. The charge view is dark.
// The main view lights the active areas in the input colour. The input view
// shows input+1 in binary at full colour, with the remaining active LEDs
// dimmed to a fifth.
func Pixels(f Frame) [NumLEDs]Color {
	var px [NumLEDs]Color

	switch f.View {
	case ViewCharge:
		return px
	case ViewMenuBattery:
		px[0] = ColorMenu
		for _, bar := range batteryBars {
			if f.Battery >= bar.volts {
				px[bar.led] = ColorMenu
			}
		}
		return px
	case ViewMenuConfig:
		px[1] = ColorMenu
		return px
	case ViewMenuCharge:
		px[2] = ColorMenu
		return px
	}

	color := ColorFor(f.Status, f.Settings.Input)
	mask := activeMask(f.Settings.LightAreas)

	for i := range px {
		switch {
		case f.View == ViewInput && (int(f.Settings.Input)+1)&(1<<i) != 0:
			px[i] = color
		case !mask[i]:
			px[i] = ColorOff
		case f.View == ViewInput:
			px[i] = color.Dim(5)
		default:
			px[i] = color
		}
	}
	return px
}

// Level maps a brightness step to an 8-bit output level.
func Level(b settings.Brightness) uint8 {
	return uint8(int(b) * 255 / int(settings.MaxBrightness))
}
