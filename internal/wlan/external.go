// internal/wlan/external.go
package wlan

import (
	"errors"
	"net"
	"sync"
)

// External adapts a machine whose network link is managed outside this
// process (wpa_supplicant, a wired port on the bench).
//
// Credentials passed to Begin are not applied to any network stack.
// Association is reported as "some non-loopback interface is up and has an
// address", optionally restricted to one named interface. No access point
// is brought up; Start only reports the address the portal is reachable on.
type External struct {
	// Interface restricts link checks to one interface name. Empty means any.
	Interface string

	mu    sync.Mutex
	ssid  string
	began bool

	// interfaces is swapped in tests.
	interfaces func() ([]net.Interface, error)
}

// NewExternal returns an External watching iface ("" for any).
func NewExternal(iface string) *External {
	return &External{Interface: iface, interfaces: net.Interfaces}
}

// Begin records the requested network. The host link is not reconfigured.
func (h *External) Begin(ssid, pass string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ssid = ssid
	h.began = true
	return nil
}

// SSID is the last network passed to Begin.
func (h *External) SSID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ssid
}

func (h *External) Connected() bool {
	h.mu.Lock()
	began := h.began
	h.mu.Unlock()
	if !began {
		return false
	}
	_, ok := h.address()
	return ok
}

func (h *External) Disconnect() error {
	h.mu.Lock()
	h.began = false
	h.mu.Unlock()
	return nil
}

// Start reports the first usable interface address.
func (h *External) Start(ssid string) (string, error) {
	ip, ok := h.address()
	if !ok {
		return "", errors.New("wlan external: no interface with an address")
	}
	return ip.String(), nil
}

func (h *External) Stop() error { return nil }

func (h *External) address() (net.IP, bool) {
	list := h.interfaces
	if list == nil {
		list = net.Interfaces
	}
	ifs, err := list()
	if err != nil {
		return nil, false
	}

	for _, ifc := range ifs {
		if h.Interface != "" && ifc.Name != h.Interface {
			continue
		}
		if ifc.Flags&net.FlagUp == 0 || ifc.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := ifc.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipn, ok := a.(*net.IPNet); ok && ipn.IP.To4() != nil {
				return ipn.IP, true
			}
		}
	}
	return nil, false
}
