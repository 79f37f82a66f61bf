// internal/wlan/fake.go
package wlan

import (
	"errors"
	"sync"
)

// Fake is a scripted Station and AccessPoint for tests and bench runs.
type Fake struct {
	mu sync.Mutex

	// station
	link     bool
	joinOK   bool
	begins   []string
	beginErr error

	// access point
	apUp     bool
	apSSID   string
	apAddr   string
	starts   int
	stops    int
	startErr error
}

// NewFake returns a fake whose Begin brings the link up immediately.
func NewFake() *Fake {
	return &Fake{joinOK: true, apAddr: "192.168.4.1"}
}

// SetJoin controls whether the next Begin brings the link up.
func (f *Fake) SetJoin(ok bool) {
	f.mu.Lock()
	f.joinOK = ok
	f.mu.Unlock()
}

// SetLink forces the station link state.
func (f *Fake) SetLink(up bool) {
	f.mu.Lock()
	f.link = up
	f.mu.Unlock()
}

// FailBegin makes Begin return err (nil clears it).
func (f *Fake) FailBegin(err error) {
	f.mu.Lock()
	f.beginErr = err
	f.mu.Unlock()
}

// FailStart makes AccessPoint.Start return err (nil clears it).
func (f *Fake) FailStart(err error) {
	f.mu.Lock()
	f.startErr = err
	f.mu.Unlock()
}

func (f *Fake) Begin(ssid, pass string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.begins = append(f.begins, ssid)
	if f.beginErr != nil {
		return f.beginErr
	}
	f.link = f.joinOK
	return nil
}

func (f *Fake) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.link
}

func (f *Fake) Disconnect() error {
	f.mu.Lock()
	f.link = false
	f.mu.Unlock()
	return nil
}

// Begins returns the SSIDs passed to Begin, in order.
func (f *Fake) Begins() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.begins...)
}

func (f *Fake) Start(ssid string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	if f.apUp {
		return "", errors.New("wlan fake: access point already up")
	}
	f.apUp = true
	f.apSSID = ssid
	f.starts++
	return f.apAddr, nil
}

func (f *Fake) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apUp = false
	f.stops++
	return nil
}

// AP reports whether the access point is up and with which SSID.
func (f *Fake) AP() (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.apUp, f.apSSID
}

// APCycles reports how many times the access point was started and stopped.
func (f *Fake) APCycles() (starts, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}
