// internal/status/encode.go
package status

// Image is the flat, register-shaped form of a ConnectionStatus.
// Layout is protocol-locked for the mirrors.
type Image struct {
	Flags   uint16
	Program []bool
	Preview []bool
}

// Encode converts a status into an Image covering the first n sources.
// n is clamped to [0, MaxSources].
// No IO. No side effects.
func Encode(s ConnectionStatus, n int) Image {
	if n < 0 {
		n = 0
	}
	if n > MaxSources {
		n = MaxSources
	}

	img := Image{
		Program: make([]bool, n),
		Preview: make([]bool, n),
	}

	if s.WifiConnected {
		img.Flags |= FlagWifiConnected
	}
	if s.VmixConnected {
		img.Flags |= FlagVmixConnected
	}
	if s.APActive {
		img.Flags |= FlagAPActive
	}

	for i := 0; i < n; i++ {
		switch s.Tally(i) {
		case TallyProgram:
			img.Program[i] = true
		case TallyPreview:
			img.Preview[i] = true
		}
	}

	return img
}

// View is the JSON form of a ConnectionStatus used by the monitor and MQTT.
type View struct {
	WifiConnected bool  `json:"wifi_connected"`
	VmixConnected bool  `json:"vmix_connected"`
	APActive      bool  `json:"ap_active"`
	Program       []int `json:"program"`
	Preview       []int `json:"preview"`
}

// ToView builds the JSON view. Indices are listed in ascending order and a
// source on program is never listed on preview.
func ToView(s ConnectionStatus) View {
	v := View{
		WifiConnected: s.WifiConnected,
		VmixConnected: s.VmixConnected,
		APActive:      s.APActive,
		Program:       []int{},
		Preview:       []int{},
	}
	v.Program = append(v.Program, s.Program.Indices()...)
	for _, i := range s.Preview.Indices() {
		if !s.Program.Test(i) {
			v.Preview = append(v.Preview, i)
		}
	}
	return v
}
