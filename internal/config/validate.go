// internal/config/validate.go
package config

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/vmix-tally/internal/input"
	"github.com/tamzrod/vmix-tally/internal/settings"
	"github.com/tamzrod/vmix-tally/internal/status"
	"github.com/tamzrod/vmix-tally/internal/wlan"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values are accepted wherever Normalize supplies a default.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	if err := validateButtons(cfg.Buttons); err != nil {
		return err
	}
	if err := validateConnection(cfg.Connection); err != nil {
		return err
	}
	if cfg.Monitor.IntervalMs < 0 {
		return fmt.Errorf("monitor: interval_ms must not be negative")
	}
	if err := validateMirror(cfg.Mirror); err != nil {
		return err
	}
	return validateLog(cfg.Log)
}

// ------------------------------------------------------------
// BUTTONS
// ------------------------------------------------------------

func validateButtons(b ButtonsConfig) error {
	if b.TickMs < 0 || b.HoldMs < 0 || b.IdleMs < 0 {
		return fmt.Errorf("buttons: tick_ms, hold_ms and idle_ms must not be negative")
	}
	if b.TickMs > 0 && b.HoldMs > 0 && b.HoldMs < 8*b.TickMs {
		return fmt.Errorf("buttons: hold_ms %d shorter than the %d ms debounce window", b.HoldMs, 8*b.TickMs)
	}

	switch b.Backend {
	case "", input.BackendVirtual:
		return nil
	case input.BackendGPIO:
	default:
		return fmt.Errorf("buttons: unknown backend %q", b.Backend)
	}

	// gpio: every button needs a distinct usable pin
	owner := make(map[int]string, len(input.Names))
	for _, name := range input.Names {
		pin, ok := b.Pins[name]
		if !ok {
			return fmt.Errorf("buttons: gpio backend needs a pin for %q", name)
		}
		if pin < 0 || pin > 27 {
			return fmt.Errorf("buttons: pin %d for %q out of range 0..27", pin, name)
		}
		if prev, dup := owner[pin]; dup {
			return fmt.Errorf("buttons: pin %d used by %q and %q", pin, prev, name)
		}
		owner[pin] = name
	}
	if len(b.Pins) != len(input.Names) {
		for name := range b.Pins {
			if owner[b.Pins[name]] != name {
				return fmt.Errorf("buttons: unknown button %q", name)
			}
		}
	}
	return nil
}

// ------------------------------------------------------------
// CONNECTION
// ------------------------------------------------------------

func validateConnection(c ConnectionConfig) error {
	if c.VmixPort < 0 || c.VmixPort > 65535 {
		return fmt.Errorf("connection: vmix_port %d out of range", c.VmixPort)
	}
	for name, v := range map[string]int{
		"association_timeout_ms": c.AssociationTimeoutMs,
		"poll_interval_ms":       c.PollIntervalMs,
		"dial_timeout_ms":        c.DialTimeoutMs,
		"read_timeout_ms":        c.ReadTimeoutMs,
		"reconnect_delay_ms":     c.ReconnectDelayMs,
	} {
		if v < 0 {
			return fmt.Errorf("connection: %s must not be negative", name)
		}
	}
	switch c.Wlan {
	case "", wlan.BackendNM, wlan.BackendExternal:
	default:
		return fmt.Errorf("connection: unknown wlan backend %q", c.Wlan)
	}
	if len(c.APSSID)+1 > settings.SSIDCapacity {
		return fmt.Errorf("connection: ap_ssid longer than %d bytes", settings.SSIDCapacity-1)
	}
	return nil
}

// ------------------------------------------------------------
// MIRRORS
// ------------------------------------------------------------

func validateMirror(m MirrorConfig) error {
	if m.IntervalMs < 0 {
		return fmt.Errorf("mirror: interval_ms must not be negative")
	}

	if mb := m.Modbus; mb != nil {
		if mb.Endpoint == "" {
			return fmt.Errorf("mirror.modbus: endpoint required")
		}
		if mb.TimeoutMs < 0 {
			return fmt.Errorf("mirror.modbus: timeout_ms must not be negative")
		}
		if mb.Sources < 0 || mb.Sources > status.MaxSources {
			return fmt.Errorf("mirror.modbus: sources %d out of range 0..%d", mb.Sources, status.MaxSources)
		}
		n := mb.Sources
		if n > 0 {
			lo, hi := int(mb.ProgramCoil), int(mb.PreviewCoil)
			if lo > hi {
				lo, hi = hi, lo
			}
			if hi < lo+n {
				return fmt.Errorf(
					"mirror.modbus: program_coil %d and preview_coil %d overlap for %d sources",
					mb.ProgramCoil, mb.PreviewCoil, n,
				)
			}
			if int(mb.ProgramCoil)+n > 65536 || int(mb.PreviewCoil)+n > 65536 {
				return fmt.Errorf("mirror.modbus: coil range exceeds address space")
			}
		}
	}

	if mq := m.MQTT; mq != nil {
		if mq.Broker == "" {
			return fmt.Errorf("mirror.mqtt: broker required")
		}
		if mq.Topic == "" {
			return fmt.Errorf("mirror.mqtt: topic required")
		}
		if mq.QoS > 2 {
			return fmt.Errorf("mirror.mqtt: qos %d out of range 0..2", mq.QoS)
		}
		if mq.TimeoutMs < 0 {
			return fmt.Errorf("mirror.mqtt: timeout_ms must not be negative")
		}
	}
	return nil
}

// ------------------------------------------------------------
// LOG
// ------------------------------------------------------------

func validateLog(l LogConfig) error {
	if l.Level != "" {
		if _, err := log.ParseLevel(l.Level); err != nil {
			return fmt.Errorf("log: %w", err)
		}
	}
	switch l.Format {
	case "", "text", "json":
		return nil
	default:
		return fmt.Errorf("log: unknown format %q", l.Format)
	}
}
