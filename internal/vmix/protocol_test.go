// internal/vmix/protocol_test.go
package vmix

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/tamzrod/vmix-tally/internal/status"
)

func TestParseTally_Basic(t *testing.T) {
	program, preview, ok := ParseTally("TALLY OK 210\r\n")
	if !ok {
		t.Fatalf("expected tally line")
	}

	if !preview.Test(0) || program.Test(0) {
		t.Fatalf("source 0 should be preview only")
	}
	if !program.Test(1) || preview.Test(1) {
		t.Fatalf("source 1 should be program only")
	}
	if program.Test(2) || preview.Test(2) {
		t.Fatalf("source 2 should be inactive")
	}
	if program.Test(3) || preview.Test(3) {
		t.Fatalf("sources past line end must be inactive")
	}
}

func TestParseTally_IgnoresOtherLines(t *testing.T) {
	for _, line := range []string{
		"VERSION OK 23.0.0.35",
		"SUBSCRIBE OK TALLY",
		"TALLY 120",
		"",
	} {
		if _, _, ok := ParseTally(line); ok {
			t.Fatalf("line %q must be ignored", line)
		}
	}
}

func TestParseTally_BarePrefixIsIgnored(t *testing.T) {
	// trimming leaves "TALLY OK" which no longer carries the prefix
	if _, _, ok := ParseTally("TALLY OK \r\n"); ok {
		t.Fatalf("bare prefix must be ignored")
	}
}

func TestParseTally_ReportIsFresh(t *testing.T) {
	program, preview, ok := ParseTally("TALLY OK 0")
	if !ok {
		t.Fatalf("expected tally line")
	}
	if !program.Empty() || !preview.Empty() {
		t.Fatalf("all-inactive report must leave everything inactive")
	}
}

func TestParseTally_UnknownCharIsInactive(t *testing.T) {
	program, preview, ok := ParseTally("TALLY OK 1x2")
	if !ok {
		t.Fatalf("expected tally line")
	}
	if program.Test(1) || preview.Test(1) {
		t.Fatalf("unknown char must be inactive")
	}
	if !program.Test(0) || !preview.Test(2) {
		t.Fatalf("neighbours decoded wrong")
	}
}

func TestParseTally_TruncatesAtMaxSources(t *testing.T) {
	line := TallyPrefix + strings.Repeat("0", status.MaxSources-1) + "1" + "1111"
	program, _, ok := ParseTally(line)
	if !ok {
		t.Fatalf("expected tally line")
	}
	got := program.Indices()
	if len(got) != 1 || got[0] != status.MaxSources-1 {
		t.Fatalf("expected only last in-range source, got %v", got)
	}
}

func TestRandomState_HasProgram(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		s := RandomState(rnd, 3)
		if len(s) != 3 || !strings.Contains(s, "1") {
			t.Fatalf("bad state %q", s)
		}
	}
	if RandomState(rnd, 0) != "" {
		t.Fatalf("zero inputs should give empty state")
	}
}
