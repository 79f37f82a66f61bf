// internal/wlan/nm.go
package wlan

import (
	"errors"
	"fmt"
	"sync"

	gonm "github.com/Wifx/gonetworkmanager/v2"
)

// Connection profile ids owned by this process.
const (
	nmStationID = "oubs-tally-station"
	nmAPID      = "oubs-tally-ap"
)

// nmSharedAddr is the address NetworkManager gives a shared (AP) connection
// unless configured otherwise.
const nmSharedAddr = "10.42.0.1"

type nmSettings = map[string]map[string]interface{}

// nmLink is the slice of NetworkManager NM drives, bound to one wifi device.
type nmLink interface {
	activate(s nmSettings) (gonm.ActiveConnection, error)
	deactivate(c gonm.ActiveConnection) error
	activated() (bool, error)
	activeSSID() (string, error)
	address() (string, error)
}

// NM drives one wifi device through NetworkManager over D-Bus.
//
// The station is reported associated only while the device is activated
// on the network passed to the last Begin.
type NM struct {
	link nmLink

	mu        sync.Mutex
	ssid      string
	station   gonm.ActiveConnection
	stationUp bool
	ap        gonm.ActiveConnection
	apUp      bool
}

// NewNM binds to the wifi device iface, or the first wifi device when iface
// is empty.
func NewNM(iface string) (*NM, error) {
	l, err := openNMLink(iface)
	if err != nil {
		return nil, err
	}
	return &NM{link: l}, nil
}

// Begin replaces the station profile and starts activating it.
// An empty ssid never associates.
func (n *NM) Begin(ssid, pass string) error {
	if err := n.Disconnect(); err != nil {
		return err
	}
	if ssid == "" {
		return nil
	}

	conn, err := n.link.activate(stationSettings(ssid, pass))
	if err != nil {
		return fmt.Errorf("wlan nm: activate %q: %w", ssid, err)
	}

	n.mu.Lock()
	n.ssid = ssid
	n.station = conn
	n.stationUp = true
	n.mu.Unlock()
	return nil
}

func (n *NM) Connected() bool {
	n.mu.Lock()
	ssid, up := n.ssid, n.stationUp
	n.mu.Unlock()
	if !up {
		return false
	}

	ok, err := n.link.activated()
	if err != nil || !ok {
		return false
	}
	got, err := n.link.activeSSID()
	return err == nil && got == ssid
}

func (n *NM) Disconnect() error {
	n.mu.Lock()
	conn, up := n.station, n.stationUp
	n.station, n.stationUp, n.ssid = nil, false, ""
	n.mu.Unlock()

	if !up {
		return nil
	}
	if err := n.link.deactivate(conn); err != nil {
		return fmt.Errorf("wlan nm: deactivate station: %w", err)
	}
	return nil
}

// Start brings up an open access point with a shared IPv4 network.
func (n *NM) Start(ssid string) (string, error) {
	n.mu.Lock()
	up := n.apUp
	n.mu.Unlock()
	if up {
		return "", errors.New("wlan nm: access point already up")
	}

	conn, err := n.link.activate(apSettings(ssid))
	if err != nil {
		return "", fmt.Errorf("wlan nm: activate access point %q: %w", ssid, err)
	}

	n.mu.Lock()
	n.ap = conn
	n.apUp = true
	n.mu.Unlock()

	addr, err := n.link.address()
	if err != nil || addr == "" {
		addr = nmSharedAddr
	}
	return addr, nil
}

func (n *NM) Stop() error {
	n.mu.Lock()
	conn, up := n.ap, n.apUp
	n.ap, n.apUp = nil, false
	n.mu.Unlock()

	if !up {
		return nil
	}
	if err := n.link.deactivate(conn); err != nil {
		return fmt.Errorf("wlan nm: deactivate access point: %w", err)
	}
	return nil
}

func stationSettings(ssid, pass string) nmSettings {
	s := nmSettings{
		"connection": {
			"id":          nmStationID,
			"type":        "802-11-wireless",
			"autoconnect": false,
		},
		"802-11-wireless": {
			"ssid": []byte(ssid),
			"mode": "infrastructure",
		},
		"ipv4": {"method": "auto"},
		"ipv6": {"method": "ignore"},
	}
	if pass != "" {
		s["802-11-wireless-security"] = map[string]interface{}{
			"key-mgmt": "wpa-psk",
			"psk":      pass,
		}
	}
	return s
}

func apSettings(ssid string) nmSettings {
	return nmSettings{
		"connection": {
			"id":          nmAPID,
			"type":        "802-11-wireless",
			"autoconnect": false,
		},
		"802-11-wireless": {
			"ssid": []byte(ssid),
			"mode": "ap",
		},
		"ipv4": {"method": "shared"},
		"ipv6": {"method": "ignore"},
	}
}

// ---- D-Bus ----

type dbusLink struct {
	nm   gonm.NetworkManager
	dev  gonm.Device
	wifi gonm.DeviceWireless
}

func openNMLink(iface string) (*dbusLink, error) {
	nm, err := gonm.NewNetworkManager()
	if err != nil {
		return nil, fmt.Errorf("wlan nm: connect: %w", err)
	}
	devs, err := nm.GetDevices()
	if err != nil {
		return nil, fmt.Errorf("wlan nm: list devices: %w", err)
	}

	for _, d := range devs {
		kind, err := d.GetPropertyDeviceType()
		if err != nil || kind != gonm.NmDeviceTypeWifi {
			continue
		}
		if iface != "" {
			name, err := d.GetPropertyInterface()
			if err != nil || name != iface {
				continue
			}
		}
		w, err := gonm.NewDeviceWireless(d.GetPath())
		if err != nil {
			return nil, fmt.Errorf("wlan nm: wireless device: %w", err)
		}
		return &dbusLink{nm: nm, dev: d, wifi: w}, nil
	}

	if iface != "" {
		return nil, fmt.Errorf("wlan nm: no wifi device %q", iface)
	}
	return nil, errors.New("wlan nm: no wifi device")
}

func (l *dbusLink) activate(s nmSettings) (gonm.ActiveConnection, error) {
	return l.nm.AddAndActivateConnection(s, l.dev)
}

// deactivate drops the active connection and deletes its profile, so
// repeated Begin calls do not pile up saved connections.
func (l *dbusLink) deactivate(c gonm.ActiveConnection) error {
	if c == nil {
		return nil
	}
	profile, perr := c.GetPropertyConnection()
	if err := l.nm.DeactivateConnection(c); err != nil {
		return err
	}
	if perr == nil && profile != nil {
		return profile.Delete()
	}
	return nil
}

func (l *dbusLink) activated() (bool, error) {
	st, err := l.dev.GetPropertyState()
	if err != nil {
		return false, err
	}
	return st == gonm.NmDeviceStateActivated, nil
}

func (l *dbusLink) activeSSID() (string, error) {
	ap, err := l.wifi.GetPropertyActiveAccessPoint()
	if err != nil {
		return "", err
	}
	if ap == nil {
		return "", nil
	}
	return ap.GetPropertySSID()
}

func (l *dbusLink) address() (string, error) {
	cfg, err := l.dev.GetPropertyIP4Config()
	if err != nil {
		return "", err
	}
	if cfg == nil {
		return "", nil
	}
	data, err := cfg.GetPropertyAddressData()
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}
	return data[0].Address, nil
}
