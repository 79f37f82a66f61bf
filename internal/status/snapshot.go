// internal/status/snapshot.go
package status

// ConnectionStatus is the connectivity and tally state published by the
// connection manager. It is always replaced as a whole, never patched.
type ConnectionStatus struct {
	WifiConnected bool
	VmixConnected bool
	APActive      bool

	Program Bitset
	Preview Bitset
}

// ---- phase constructors ----

// Connecting is published while associating to the WLAN.
func Connecting() ConnectionStatus {
	return ConnectionStatus{}
}

// APActive is published once the configuration access point is serving.
func APActive() ConnectionStatus {
	return ConnectionStatus{APActive: true}
}

// WifiConnected is published once the station link is up.
func WifiConnected() ConnectionStatus {
	return ConnectionStatus{WifiConnected: true}
}

// VmixConnected is published once the tally TCP connection is up,
// before the first tally report arrives.
func VmixConnected() ConnectionStatus {
	return ConnectionStatus{WifiConnected: true, VmixConnected: true}
}

// TallyReport is published for every decoded tally line.
func TallyReport(program, preview Bitset) ConnectionStatus {
	return ConnectionStatus{
		WifiConnected: true,
		VmixConnected: true,
		Program:       program,
		Preview:       preview,
	}
}

// IsConnected reports whether any upstream link is up.
func (s ConnectionStatus) IsConnected() bool {
	return s.WifiConnected || s.VmixConnected
}

// Tally classifies source i. Program wins over preview.
func (s ConnectionStatus) Tally(i int) Tally {
	if i < 0 || i >= MaxSources {
		return TallyInactive
	}
	if s.Program.Test(i) {
		return TallyProgram
	}
	if s.Preview.Test(i) {
		return TallyPreview
	}
	return TallyInactive
}
