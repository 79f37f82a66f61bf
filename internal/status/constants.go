// internal/status/constants.go
package status

// Tally geometry constants.
// These values are shared with the vMix protocol decoder and the settings
// store and MUST NOT be configurable at runtime.

// ---- SOURCES ----

// MaxSources is the number of vMix inputs tracked for tally status.
const MaxSources = 1000

// bitsetWords is the number of 64-bit words needed for MaxSources bits.
const bitsetWords = (MaxSources + 63) / 64

// ---- TALLY CLASSES ----

// Tally is the tri-state classification of one source.
type Tally uint8

// TallyInactive means the source is neither on program nor on preview.
const TallyInactive Tally = 0

// TallyProgram means the source is live.
const TallyProgram Tally = 1

// TallyPreview means the source is queued next.
const TallyPreview Tally = 2

func (t Tally) String() string {
	switch t {
	case TallyProgram:
		return "program"
	case TallyPreview:
		return "preview"
	default:
		return "inactive"
	}
}

// ---- FLAG BITS ----

// Flag bits used by Encode for the connectivity word.
const (
	FlagWifiConnected uint16 = 1 << 0
	FlagVmixConnected uint16 = 1 << 1
	FlagAPActive      uint16 = 1 << 2
)
