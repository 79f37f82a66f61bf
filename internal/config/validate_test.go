// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
)

// helper to build a gpio button config quickly
func gpioButtons(brightness, up, mode, down int) ButtonsConfig {
	return ButtonsConfig{
		Backend: "gpio",
		Pins: map[string]int{
			"brightness": brightness,
			"up":         up,
			"mode":       mode,
			"down":       down,
		},
	}
}

func expectErr(t *testing.T, cfg *Config, contains string) {
	t.Helper()
	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected error containing %q", contains)
	}
	if !strings.Contains(err.Error(), contains) {
		t.Fatalf("error %q does not mention %q", err, contains)
	}
}

// ---- tests ----

func TestValidate_EmptyConfigIsValid(t *testing.T) {
	if err := Validate(&Config{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_GPIOButtons(t *testing.T) {
	cfg := &Config{Buttons: gpioButtons(17, 27, 22, 23)}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_GPIOMissingPin(t *testing.T) {
	cfg := &Config{Buttons: gpioButtons(17, 27, 22, 23)}
	delete(cfg.Buttons.Pins, "mode")
	expectErr(t, cfg, `"mode"`)
}

func TestValidate_GPIODuplicatePin(t *testing.T) {
	expectErr(t, &Config{Buttons: gpioButtons(17, 17, 22, 23)}, "pin 17 used by")
}

func TestValidate_GPIOPinRange(t *testing.T) {
	expectErr(t, &Config{Buttons: gpioButtons(17, 40, 22, 23)}, "out of range")
}

func TestValidate_GPIOUnknownButton(t *testing.T) {
	cfg := &Config{Buttons: gpioButtons(17, 27, 22, 23)}
	cfg.Buttons.Pins["reset"] = 5
	expectErr(t, cfg, `unknown button "reset"`)
}

func TestValidate_UnknownBackend(t *testing.T) {
	expectErr(t, &Config{Buttons: ButtonsConfig{Backend: "serial"}}, "unknown backend")
}

func TestValidate_HoldShorterThanDebounceWindow(t *testing.T) {
	expectErr(t, &Config{Buttons: ButtonsConfig{TickMs: 10, HoldMs: 50}}, "debounce window")
}

func TestValidate_NegativeTimings(t *testing.T) {
	expectErr(t, &Config{Connection: ConnectionConfig{ReadTimeoutMs: -1}}, "read_timeout_ms")
	expectErr(t, &Config{Buttons: ButtonsConfig{IdleMs: -1}}, "negative")
}

func TestValidate_UnknownWlanBackend(t *testing.T) {
	expectErr(t, &Config{Connection: ConnectionConfig{Wlan: "wired"}}, "unknown wlan backend")
	if err := Validate(&Config{Connection: ConnectionConfig{Wlan: "external"}}); err != nil {
		t.Fatalf("external backend rejected: %v", err)
	}
}

func TestValidate_APSSIDTooLong(t *testing.T) {
	cfg := &Config{Connection: ConnectionConfig{APSSID: strings.Repeat("a", 33)}}
	expectErr(t, cfg, "ap_ssid")

	cfg.Connection.APSSID = strings.Repeat("a", 32)
	if err := Validate(cfg); err != nil {
		t.Fatalf("32 bytes must fit: %v", err)
	}
}

func TestValidate_ModbusOverlap(t *testing.T) {
	cfg := &Config{Mirror: MirrorConfig{Modbus: &ModbusMirrorConfig{
		Endpoint:    "127.0.0.1:502",
		ProgramCoil: 0,
		PreviewCoil: 10,
		Sources:     16,
	}}}
	expectErr(t, cfg, "overlap")

	cfg.Mirror.Modbus.PreviewCoil = 16
	if err := Validate(cfg); err != nil {
		t.Fatalf("adjacent ranges must be accepted: %v", err)
	}
}

func TestValidate_ModbusNeedsEndpoint(t *testing.T) {
	expectErr(t, &Config{Mirror: MirrorConfig{Modbus: &ModbusMirrorConfig{}}}, "endpoint required")
}

func TestValidate_ModbusAddressSpace(t *testing.T) {
	cfg := &Config{Mirror: MirrorConfig{Modbus: &ModbusMirrorConfig{
		Endpoint:    "plc:502",
		ProgramCoil: 0,
		PreviewCoil: 65530,
		Sources:     16,
	}}}
	expectErr(t, cfg, "address space")
}

func TestValidate_MQTT(t *testing.T) {
	expectErr(t, &Config{Mirror: MirrorConfig{MQTT: &MQTTMirrorConfig{Topic: "t"}}}, "broker required")
	expectErr(t, &Config{Mirror: MirrorConfig{MQTT: &MQTTMirrorConfig{Broker: "tcp://b:1883"}}}, "topic required")
	expectErr(t, &Config{Mirror: MirrorConfig{MQTT: &MQTTMirrorConfig{Broker: "tcp://b:1883", Topic: "t", QoS: 3}}}, "qos")
}

func TestValidate_Log(t *testing.T) {
	expectErr(t, &Config{Log: LogConfig{Level: "loud"}}, "log")
	expectErr(t, &Config{Log: LogConfig{Format: "xml"}}, "unknown format")
	if err := Validate(&Config{Log: LogConfig{Level: "debug", Format: "json"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := &Config{}
	_ = Validate(cfg)
	if cfg.Buttons.Backend != "" || cfg.Connection.VmixPort != 0 {
		t.Fatalf("validate must not apply defaults")
	}
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := &Config{Mirror: MirrorConfig{MQTT: &MQTTMirrorConfig{Broker: "tcp://b:1883", Topic: "t"}}}
	Normalize(cfg)

	if cfg.Buttons.Backend != "virtual" || cfg.Buttons.HoldMs != 1000 || cfg.Buttons.IdleMs != 5000 {
		t.Fatalf("button defaults wrong: %+v", cfg.Buttons)
	}
	c := cfg.Connection
	if c.VmixPort != 8099 || c.AssociationTimeoutMs != 15000 || c.ReadTimeoutMs != 1000 || c.ReconnectDelayMs != 0 {
		t.Fatalf("connection defaults wrong: %+v", c)
	}
	if c.Wlan != "nm" {
		t.Fatalf("wlan backend %q", c.Wlan)
	}
	if c.APSSID != "oubs-vmix-tally" {
		t.Fatalf("ap ssid %q", c.APSSID)
	}
	if cfg.Settings.Namespace != "oubs-tally" {
		t.Fatalf("namespace %q", cfg.Settings.Namespace)
	}
	if cfg.Mirror.MQTT.ClientID != DefaultDeviceName {
		t.Fatalf("mqtt client id %q", cfg.Mirror.MQTT.ClientID)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("log defaults wrong: %+v", cfg.Log)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("normalized config must stay valid: %v", err)
	}
}

func TestNormalize_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{Connection: ConnectionConfig{VmixPort: 9000, ReconnectDelayMs: 250}}
	Normalize(cfg)
	if cfg.Connection.VmixPort != 9000 || cfg.Connection.ReconnectDelay().Milliseconds() != 250 {
		t.Fatalf("explicit values overwritten: %+v", cfg.Connection)
	}
}
