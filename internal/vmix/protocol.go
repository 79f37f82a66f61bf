// internal/vmix/protocol.go
package vmix

import (
	"strings"

	"github.com/tamzrod/vmix-tally/internal/status"
)

// Protocol constants of the vMix TCP API tally subscription.
const (
	// Port is the fixed vMix TCP API port.
	Port = 8099

	// SubscribeCommand is sent once right after connect.
	SubscribeCommand = "SUBSCRIBE TALLY\r\n"

	// TallyPrefix starts every tally report line.
	TallyPrefix = "TALLY OK "

	// SubscribeOK is the server's acknowledgement. It carries no state.
	SubscribeOK = "SUBSCRIBE OK TALLY"
)

// Per-source status characters.
const (
	charProgram = '1'
	charPreview = '2'
)

// ParseTally decodes one protocol line.
//
// Lines not starting with TallyPrefix are reported as !ok and must be
// ignored. For a tally report, character i (while it exists and
// i < status.MaxSources) marks source i: '1' program, '2' preview, anything
// else inactive. The bitsets are always freshly built: sources beyond the
// end of the line are inactive, characters beyond MaxSources are ignored.
func ParseTally(line string) (program, preview status.Bitset, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, TallyPrefix) {
		return program, preview, false
	}

	states := line[len(TallyPrefix):]
	for i := 0; i < len(states) && i < status.MaxSources; i++ {
		switch states[i] {
		case charProgram:
			program.Set(i)
		case charPreview:
			preview.Set(i)
		}
	}

	return program, preview, true
}

// FormatTally builds a tally report line (without line terminator) for the
// given per-source states.
func FormatTally(states string) string {
	return TallyPrefix + states
}
