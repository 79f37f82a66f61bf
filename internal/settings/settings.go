// internal/settings/settings.go
package settings

import "encoding/binary"

// DeviceSettings is everything the user can change on the device.
type DeviceSettings struct {
	Wlan       WlanCredentials
	LightAreas LightAreas
	Brightness Brightness
	Input      Input
}

// Defaults returns the settings of a fresh device.
func Defaults() DeviceSettings {
	return DeviceSettings{
		LightAreas: DefaultLightAreas,
		Brightness: DefaultBrightness,
		Input:      DefaultInput,
	}
}

// ---- persistence keys ----

const (
	KeyWlan       = "wlan"
	KeyLightAreas = "light_areas"
	KeyBrightness = "brightness"
	KeyInput      = "input"
)

// wlanBlobSize is SSID + Pass + Host, laid out back to back.
const wlanBlobSize = SSIDCapacity + PassCapacity + HostCapacity

// ---- blob codecs ----

func encodeWlan(w WlanCredentials) []byte {
	out := make([]byte, 0, wlanBlobSize)
	out = append(out, w.SSID[:]...)
	out = append(out, w.Pass[:]...)
	out = append(out, w.Host[:]...)
	return out
}

func decodeWlan(b []byte) (WlanCredentials, bool) {
	var w WlanCredentials
	if len(b) != wlanBlobSize {
		return w, false
	}
	copy(w.SSID[:], b[:SSIDCapacity])
	copy(w.Pass[:], b[SSIDCapacity:SSIDCapacity+PassCapacity])
	copy(w.Host[:], b[SSIDCapacity+PassCapacity:])
	w.terminate()
	return w, true
}

func encodeU8(v uint8) []byte { return []byte{v} }

func decodeU8(b []byte) (int, bool) {
	if len(b) != 1 {
		return 0, false
	}
	return int(b[0]), true
}

func encodeU16(v uint16) []byte {
	out := make([]byte, 2)
	binary.LittleEndian.PutUint16(out, v)
	return out
}

func decodeU16(b []byte) (int, bool) {
	if len(b) != 2 {
		return 0, false
	}
	return int(binary.LittleEndian.Uint16(b)), true
}
