// internal/wlan/wlan.go
package wlan

import "fmt"

// DefaultAPSSID is the access point name used for on-site configuration.
const DefaultAPSSID = "oubs-vmix-tally"

// Station is the WLAN client side.
//
// Begin starts an association attempt and returns without waiting for it.
// Connected is polled for the outcome and for later link loss.
type Station interface {
	Begin(ssid, pass string) error
	Connected() bool
	Disconnect() error
}

// AccessPoint is the configuration hotspot.
// Start returns the address clients reach the device on.
type AccessPoint interface {
	Start(ssid string) (string, error)
	Stop() error
}

// Backends selectable by configuration.
const (
	// BackendNM drives a wifi device through NetworkManager.
	BackendNM = "nm"
	// BackendExternal leaves the link to something else and only watches it.
	BackendExternal = "external"
)

// Adapter is one backend serving both roles.
type Adapter interface {
	Station
	AccessPoint
}

// Open selects a backend. iface restricts it to one interface ("" for any).
func Open(backend, iface string) (Adapter, error) {
	switch backend {
	case BackendNM, "":
		return NewNM(iface)
	case BackendExternal:
		return NewExternal(iface), nil
	default:
		return nil, fmt.Errorf("wlan: unknown backend %q", backend)
	}
}
