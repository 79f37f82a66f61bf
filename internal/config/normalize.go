// internal/config/normalize.go
package config

import (
	"github.com/tamzrod/vmix-tally/internal/input"
	"github.com/tamzrod/vmix-tally/internal/nvs"
	"github.com/tamzrod/vmix-tally/internal/vmix"
	"github.com/tamzrod/vmix-tally/internal/wlan"
)

// Defaults applied by Normalize.
const (
	DefaultDeviceName           = "tally"
	DefaultTickMs               = 1
	DefaultHoldMs               = 1000
	DefaultIdleMs               = 5000
	DefaultAssociationTimeoutMs = 15000
	DefaultPollIntervalMs       = 100
	DefaultDialTimeoutMs        = 2000
	DefaultReadTimeoutMs        = 1000
	DefaultPortalListen         = ":80"
	DefaultMonitorIntervalMs    = 50
	DefaultMirrorIntervalMs     = 100
	DefaultMirrorTimeoutMs      = 2000
	DefaultModbusSources        = 16
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Device.Name == "" {
		cfg.Device.Name = DefaultDeviceName
	}

	// ---- buttons ----
	b := &cfg.Buttons
	if b.Backend == "" {
		b.Backend = input.BackendVirtual
	}
	setDefault(&b.TickMs, DefaultTickMs)
	setDefault(&b.HoldMs, DefaultHoldMs)
	setDefault(&b.IdleMs, DefaultIdleMs)

	// ---- connection ----
	c := &cfg.Connection
	setDefault(&c.VmixPort, vmix.Port)
	setDefault(&c.AssociationTimeoutMs, DefaultAssociationTimeoutMs)
	setDefault(&c.PollIntervalMs, DefaultPollIntervalMs)
	setDefault(&c.DialTimeoutMs, DefaultDialTimeoutMs)
	setDefault(&c.ReadTimeoutMs, DefaultReadTimeoutMs)
	// reconnect_delay_ms: zero is a real setting (immediate retry)
	if c.Wlan == "" {
		c.Wlan = wlan.BackendNM
	}
	if c.APSSID == "" {
		c.APSSID = wlan.DefaultAPSSID
	}
	if c.PortalListen == "" {
		c.PortalListen = DefaultPortalListen
	}

	// ---- settings ----
	if cfg.Settings.Namespace == "" {
		cfg.Settings.Namespace = nvs.DefaultNamespace
	}

	// ---- monitor ----
	setDefault(&cfg.Monitor.IntervalMs, DefaultMonitorIntervalMs)

	// ---- mirrors ----
	setDefault(&cfg.Mirror.IntervalMs, DefaultMirrorIntervalMs)
	if mb := cfg.Mirror.Modbus; mb != nil {
		setDefault(&mb.TimeoutMs, DefaultMirrorTimeoutMs)
		setDefault(&mb.Sources, DefaultModbusSources)
	}
	if mq := cfg.Mirror.MQTT; mq != nil {
		setDefault(&mq.TimeoutMs, DefaultMirrorTimeoutMs)
		if mq.ClientID == "" {
			mq.ClientID = cfg.Device.Name
		}
	}

	// ---- log ----
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
