// internal/panel/render.go
package panel

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// LogRenderer writes a line whenever the rendered strip or level changes.
type LogRenderer struct {
	log log.FieldLogger

	started bool
	last    [NumLEDs]Color
	level   uint8
}

func NewLogRenderer(logger log.FieldLogger) *LogRenderer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogRenderer{log: logger.WithField("component", "leds")}
}

func (r *LogRenderer) Render(f Frame) {
	px := Pixels(f)
	level := Level(f.Settings.Brightness)
	if r.started && px == r.last && level == r.level {
		return
	}
	r.started = true
	r.last = px
	r.level = level

	parts := make([]string, len(px))
	for i, c := range px {
		parts[i] = c.String()
	}
	r.log.WithFields(log.Fields{
		"view":   f.View.String(),
		"mode":   f.Mode.String(),
		"level":  level,
		"pixels": strings.Join(parts, " "),
	}).Info("strip")
}
