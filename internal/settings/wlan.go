// internal/settings/wlan.go
package settings

import "bytes"

// Field capacities in bytes, including the terminating NUL.
const (
	SSIDCapacity = 33
	PassCapacity = 64
	HostCapacity = 64
)

// WlanCredentials holds what the device needs to reach vMix.
// Fields are fixed-capacity and always NUL terminated. Two values are equal
// when every byte of every field is equal, trailing bytes included.
type WlanCredentials struct {
	SSID [SSIDCapacity]byte
	Pass [PassCapacity]byte
	Host [HostCapacity]byte
}

// putField copies v into dst if it fits with its NUL terminator.
// On overflow dst is left untouched and false is returned.
func putField(dst []byte, v string) bool {
	if len(v)+1 > len(dst) {
		return false
	}
	n := copy(dst, v)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return true
}

func getField(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		return string(src[:i])
	}
	return string(src)
}

// SetSSID stores v, or reports false and keeps the old value if v is too long.
func (w *WlanCredentials) SetSSID(v string) bool { return putField(w.SSID[:], v) }

// SetPass stores v, or reports false and keeps the old value if v is too long.
func (w *WlanCredentials) SetPass(v string) bool { return putField(w.Pass[:], v) }

// SetHost stores v, or reports false and keeps the old value if v is too long.
func (w *WlanCredentials) SetHost(v string) bool { return putField(w.Host[:], v) }

// SSIDString returns the network name up to its terminator.
func (w WlanCredentials) SSIDString() string { return getField(w.SSID[:]) }

// PassString returns the passphrase up to its terminator.
func (w WlanCredentials) PassString() string { return getField(w.Pass[:]) }

// HostString returns the vMix host name up to its terminator.
func (w WlanCredentials) HostString() string { return getField(w.Host[:]) }

// terminate forces the last byte of every field to NUL.
func (w *WlanCredentials) terminate() {
	w.SSID[SSIDCapacity-1] = 0
	w.Pass[PassCapacity-1] = 0
	w.Host[HostCapacity-1] = 0
}
