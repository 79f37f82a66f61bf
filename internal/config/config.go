// internal/config/config.go
package config

import "time"

type Config struct {
	Device     DeviceConfig     `yaml:"device" toml:"device"`
	Buttons    ButtonsConfig    `yaml:"buttons" toml:"buttons"`
	Connection ConnectionConfig `yaml:"connection" toml:"connection"`
	Settings   SettingsConfig   `yaml:"settings" toml:"settings"`
	Monitor    MonitorConfig    `yaml:"monitor" toml:"monitor"`
	Mirror     MirrorConfig     `yaml:"mirror" toml:"mirror"`
	Log        LogConfig        `yaml:"log" toml:"log"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	// Name identifies the unit in logs and as the default MQTT client id.
	Name string `yaml:"name" toml:"name"`

	// BatteryPath is a sysfs voltage_now file shown by the battery menu item.
	BatteryPath string `yaml:"battery_path" toml:"battery_path"`
}

// ---- BUTTONS ----

type ButtonsConfig struct {
	Backend string `yaml:"backend" toml:"backend"` // virtual | gpio
	TickMs  int    `yaml:"tick_ms" toml:"tick_ms"`
	HoldMs  int    `yaml:"hold_ms" toml:"hold_ms"`
	IdleMs  int    `yaml:"idle_ms" toml:"idle_ms"`

	// Pins maps button name (brightness, up, mode, down) to BCM pin.
	Pins map[string]int `yaml:"pins" toml:"pins"`
}

// ---- CONNECTION ----

type ConnectionConfig struct {
	VmixPort             int `yaml:"vmix_port" toml:"vmix_port"`
	AssociationTimeoutMs int `yaml:"association_timeout_ms" toml:"association_timeout_ms"`
	PollIntervalMs       int `yaml:"poll_interval_ms" toml:"poll_interval_ms"`
	DialTimeoutMs        int `yaml:"dial_timeout_ms" toml:"dial_timeout_ms"`
	ReadTimeoutMs        int `yaml:"read_timeout_ms" toml:"read_timeout_ms"`
	ReconnectDelayMs     int `yaml:"reconnect_delay_ms" toml:"reconnect_delay_ms"`

	APSSID       string `yaml:"ap_ssid" toml:"ap_ssid"`
	PortalListen string `yaml:"portal_listen" toml:"portal_listen"`
	StaticDir    string `yaml:"static_dir" toml:"static_dir"`

	// Wlan selects the link backend: nm drives NetworkManager, external only
	// watches a link managed by something else and ignores saved credentials.
	Wlan string `yaml:"wlan" toml:"wlan"` // nm | external

	// Interface restricts the backend to one interface.
	Interface string `yaml:"interface" toml:"interface"`
}

// ---- SETTINGS ----

type SettingsConfig struct {
	// Path of the settings file. Empty keeps settings in memory only.
	Path      string `yaml:"path" toml:"path"`
	Namespace string `yaml:"namespace" toml:"namespace"`
}

// ---- MONITOR ----

type MonitorConfig struct {
	// Listen enables the monitor when set.
	Listen     string `yaml:"listen" toml:"listen"`
	IntervalMs int    `yaml:"interval_ms" toml:"interval_ms"`
}

// ---- MIRRORS ----

type MirrorConfig struct {
	IntervalMs int                 `yaml:"interval_ms" toml:"interval_ms"`
	Modbus     *ModbusMirrorConfig `yaml:"modbus" toml:"modbus"`
	MQTT       *MQTTMirrorConfig   `yaml:"mqtt" toml:"mqtt"`
}

type ModbusMirrorConfig struct {
	Endpoint      string `yaml:"endpoint" toml:"endpoint"`
	UnitID        uint8  `yaml:"unit_id" toml:"unit_id"`
	TimeoutMs     int    `yaml:"timeout_ms" toml:"timeout_ms"`
	FlagsRegister uint16 `yaml:"flags_register" toml:"flags_register"`
	ProgramCoil   uint16 `yaml:"program_coil" toml:"program_coil"`
	PreviewCoil   uint16 `yaml:"preview_coil" toml:"preview_coil"`
	Sources       int    `yaml:"sources" toml:"sources"`
}

type MQTTMirrorConfig struct {
	Broker    string `yaml:"broker" toml:"broker"`
	ClientID  string `yaml:"client_id" toml:"client_id"`
	Username  string `yaml:"username" toml:"username"`
	Password  string `yaml:"password" toml:"password"`
	Topic     string `yaml:"topic" toml:"topic"`
	QoS       uint8  `yaml:"qos" toml:"qos"`
	TimeoutMs int    `yaml:"timeout_ms" toml:"timeout_ms"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // text | json
}

// ms converts a millisecond field.
func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (c ButtonsConfig) Tick() time.Duration {
	return ms(c.TickMs)
}

func (c ButtonsConfig) Hold() time.Duration {
	return ms(c.HoldMs)
}

func (c ButtonsConfig) Idle() time.Duration {
	return ms(c.IdleMs)
}

func (c ConnectionConfig) AssociationTimeout() time.Duration {
	return ms(c.AssociationTimeoutMs)
}

func (c ConnectionConfig) PollInterval() time.Duration {
	return ms(c.PollIntervalMs)
}

func (c ConnectionConfig) DialTimeout() time.Duration {
	return ms(c.DialTimeoutMs)
}

func (c ConnectionConfig) ReadTimeout() time.Duration {
	return ms(c.ReadTimeoutMs)
}

func (c ConnectionConfig) ReconnectDelay() time.Duration {
	return ms(c.ReconnectDelayMs)
}

func (c MonitorConfig) Interval() time.Duration {
	return ms(c.IntervalMs)
}

func (c MirrorConfig) Interval() time.Duration {
	return ms(c.IntervalMs)
}

func (c ModbusMirrorConfig) Timeout() time.Duration {
	return ms(c.TimeoutMs)
}

func (c MQTTMirrorConfig) Timeout() time.Duration {
	return ms(c.TimeoutMs)
}
