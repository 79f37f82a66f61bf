// internal/panel/panel.go
package panel

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/vmix-tally/internal/connection"
	"github.com/tamzrod/vmix-tally/internal/debounce"
	"github.com/tamzrod/vmix-tally/internal/settings"
	"github.com/tamzrod/vmix-tally/internal/status"
)

const (
	DefaultIdle     = 5 * time.Second
	DefaultInterval = 10 * time.Millisecond
)

// View is what the strip shows.
type View int32

const (
	ViewMain View = iota
	ViewInput

	// menu items, in order
	ViewMenuBattery
	ViewMenuConfig
	ViewMenuCharge

	// ViewCharge keeps the strip dark until a click.
	ViewCharge
)

const menuItems = 3

func (v View) String() string {
	switch v {
	case ViewInput:
		return "input"
	case ViewMenuBattery:
		return "menu:battery"
	case ViewMenuConfig:
		return "menu:config"
	case ViewMenuCharge:
		return "menu:charge"
	case ViewCharge:
		return "charge"
	default:
		return "main"
	}
}

// Battery reports the cell voltage.
type Battery interface {
	Voltage() (float64, error)
}

// Frame is everything a renderer needs for one refresh.
type Frame struct {
	View     View
	Mode     connection.Mode
	Status   status.ConnectionStatus
	Settings settings.DeviceSettings

	// Battery is the cell voltage, read only while the battery item is
	// shown. Zero when unknown.
	Battery float64
}

// Renderer draws frames. Called from the foreground loop only.
type Renderer interface {
	Render(f Frame)
}

// Buttons are the four front panel debouncers.
type Buttons struct {
	Brightness *debounce.Debouncer
	Up         *debounce.Debouncer
	Mode       *debounce.Debouncer
	Down       *debounce.Debouncer
}

type Config struct {
	// Idle is how long the input view stays after up/down.
	Idle     time.Duration
	Interval time.Duration
}

type Deps struct {
	Settings *settings.Store
	Status   *status.Register
	Mode     *connection.ModeSwitch
	Buttons  Buttons
	Renderer Renderer

	// Battery is optional.
	Battery Battery

	Clock  debounce.Clock
	Logger log.FieldLogger
}

// Controller is the foreground loop: it turns button events into settings
// and mode changes and renders the current frame.
type Controller struct {
	cfg Config
	d   Deps
	log log.FieldLogger

	inputUntil time.Duration

	// menu is the open menu item (0..menuItems-1), or -1.
	menu      int
	menuUntil time.Duration
	charging  bool

	view atomic.Int32
}

func New(cfg Config, d Deps) (*Controller, error) {
	if d.Settings == nil || d.Status == nil || d.Mode == nil {
		return nil, errors.New("panel: settings, status and mode required")
	}
	b := d.Buttons
	if b.Brightness == nil || b.Up == nil || b.Mode == nil || b.Down == nil {
		return nil, errors.New("panel: all four buttons required")
	}
	if d.Renderer == nil {
		return nil, errors.New("panel: renderer required")
	}
	if cfg.Idle <= 0 {
		cfg.Idle = DefaultIdle
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if d.Clock == nil {
		d.Clock = debounce.MonotonicClock()
	}
	logger := d.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Controller{cfg: cfg, d: d, menu: -1, log: logger.WithField("component", "panel")}, nil
}

// View reports the last rendered view. Safe from any goroutine.
func (c *Controller) View() View {
	return View(c.view.Load())
}

// Run steps until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		c.Step()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Step handles pending button events once and renders one frame.
func (c *Controller) Step() {
	now := c.d.Clock()

	switch {
	case c.charging:
		c.stepCharge()
	case c.menu >= 0:
		c.stepMenu(now)
	default:
		c.stepMain(now)
	}

	view := ViewMain
	switch {
	case c.charging:
		view = ViewCharge
	case c.menu >= 0:
		view = ViewMenuBattery + View(c.menu)
	case now < c.inputUntil:
		view = ViewInput
	}
	c.view.Store(int32(view))

	f := Frame{
		View:     view,
		Mode:     c.d.Mode.Get(),
		Status:   c.d.Status.Get(),
		Settings: c.d.Settings.Get(),
	}
	if view == ViewMenuBattery && c.d.Battery != nil {
		v, err := c.d.Battery.Voltage()
		if err != nil {
			c.log.WithError(err).Debug("battery read failed")
		} else {
			f.Battery = v
		}
	}
	c.d.Renderer.Render(f)
}

func (c *Controller) stepMain(now time.Duration) {
	b := c.d.Buttons
	s := c.d.Settings

	if b.Brightness.PollClick() {
		cur := s.Get().Brightness
		next := cur.Inc()
		if cur >= settings.MaxBrightness {
			next = settings.MinBrightness
		}
		s.SetBrightness(next)
		c.log.WithField("brightness", int(next)).Debug("brightness")
	}
	if b.Brightness.PollHold() {
		c.stepLightAreas()
	}

	if b.Up.PollClick() {
		s.SetInput(s.Get().Input.Inc())
		c.inputUntil = now + c.cfg.Idle
	}
	if b.Down.PollClick() {
		s.SetInput(s.Get().Input.Dec())
		c.inputUntil = now + c.cfg.Idle
	}
	// holds on up/down carry no action
	b.Up.PollHold()
	b.Down.PollHold()

	if b.Mode.PollHold() {
		if c.d.Mode.Get() == connection.ModeConfiguration {
			c.d.Mode.Set(connection.ModeNormal)
			c.log.Info("leaving configuration mode")
		} else {
			c.menu = 0
			c.menuUntil = now + c.cfg.Idle
			c.inputUntil = 0
		}
	}
	if b.Mode.PollClick() && c.menu < 0 {
		c.stepLightAreas()
	}
}

// stepMenu: up/down move, mode click selects, brightness click or idle
// closes.
func (c *Controller) stepMenu(now time.Duration) {
	b := c.d.Buttons

	if b.Up.PollClick() {
		c.menu = (c.menu + 1) % menuItems
		c.menuUntil = now + c.cfg.Idle
	}
	if b.Down.PollClick() {
		c.menu = (c.menu + menuItems - 1) % menuItems
		c.menuUntil = now + c.cfg.Idle
	}
	b.Up.PollHold()
	b.Down.PollHold()
	b.Brightness.PollHold()

	closeClick := b.Brightness.PollClick()
	closeHold := b.Mode.PollHold()
	if closeClick || closeHold {
		c.menu = -1
		return
	}
	if b.Mode.PollClick() {
		c.selectMenu()
		return
	}
	if now >= c.menuUntil {
		c.menu = -1
	}
}

func (c *Controller) selectMenu() {
	item := ViewMenuBattery + View(c.menu)
	c.menu = -1

	switch item {
	case ViewMenuConfig:
		c.d.Mode.Set(connection.ModeConfiguration)
		c.log.Info("entering configuration mode")
	case ViewMenuCharge:
		c.charging = true
		c.log.Info("charge mode, strip off")
	}
}

// stepCharge wakes the strip on any click. Holds are dropped.
func (c *Controller) stepCharge() {
	b := c.d.Buttons
	woke := false
	for _, d := range []*debounce.Debouncer{b.Brightness, b.Up, b.Mode, b.Down} {
		if d.PollClick() {
			woke = true
		}
		d.PollHold()
	}
	if woke {
		c.charging = false
		c.log.Info("charge mode left")
	}
}

func (c *Controller) stepLightAreas() {
	next := c.d.Settings.Get().LightAreas.Inc()
	c.d.Settings.SetLightAreas(next)
	c.log.WithField("light_areas", int(next)).Debug("light areas")
}
