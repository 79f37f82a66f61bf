// internal/mirror/modbus_sink.go
package mirror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/vmix-tally/internal/status"
)

// ModbusMaxSources is the largest coil range one write request carries.
const ModbusMaxSources = 1968

// coilClient is the write surface a Modbus sink needs.
type coilClient interface {
	WriteCoils(addr uint16, bits []bool) error
	WriteRegisters(addr uint16, regs []uint16) error
	Close() error
}

// ModbusLayout places the status image in the server's address space.
type ModbusLayout struct {
	FlagsRegister uint16
	ProgramCoil   uint16
	PreviewCoil   uint16
	Sources       int
}

// ModbusSink mirrors the status image as one holding register of flags plus
// two coil ranges. After any failed write the next publish re-asserts the
// whole image; otherwise only changed regions are written.
type ModbusSink struct {
	cli    coilClient
	layout ModbusLayout

	needFull bool
	last     status.Image
}

// NewModbusSink validates the layout.
func NewModbusSink(cli coilClient, layout ModbusLayout) (*ModbusSink, error) {
	if cli == nil {
		return nil, errors.New("mirror modbus: client required")
	}
	if layout.Sources < 0 || layout.Sources > ModbusMaxSources || layout.Sources > status.MaxSources {
		return nil, fmt.Errorf("mirror modbus: sources %d out of range", layout.Sources)
	}
	if overlaps(layout.ProgramCoil, layout.PreviewCoil, layout.Sources) {
		return nil, errors.New("mirror modbus: program and preview coil ranges overlap")
	}
	return &ModbusSink{cli: cli, layout: layout, needFull: true}, nil
}

func overlaps(a, b uint16, n int) bool {
	if n == 0 {
		return false
	}
	lo, hi := int(a), int(b)
	if lo > hi {
		lo, hi = hi, lo
	}
	return hi < lo+n
}

func (m *ModbusSink) Name() string { return "modbus" }

func (m *ModbusSink) Close() error { return m.cli.Close() }

// Publish writes s.
func (m *ModbusSink) Publish(s status.ConnectionStatus) error {
	img := status.Encode(s, m.layout.Sources)

	// ------------------------------------------------------------
	// Full image write (re-assert)
	// ------------------------------------------------------------
	if m.needFull {
		if err := m.writeFull(img); err != nil {
			return fmt.Errorf("mirror modbus: full write failed: %w", err)
		}
		m.needFull = false
		m.last = img
		return nil
	}

	var errs []string

	if m.last.Flags != img.Flags {
		if err := m.cli.WriteRegisters(m.layout.FlagsRegister, []uint16{img.Flags}); err != nil {
			errs = append(errs, fmt.Sprintf("flags write failed: %v", err))
		} else {
			m.last.Flags = img.Flags
		}
	}

	if !equalBits(m.last.Program, img.Program) {
		if err := m.cli.WriteCoils(m.layout.ProgramCoil, img.Program); err != nil {
			errs = append(errs, fmt.Sprintf("program coils write failed: %v", err))
		} else {
			m.last.Program = img.Program
		}
	}

	if !equalBits(m.last.Preview, img.Preview) {
		if err := m.cli.WriteCoils(m.layout.PreviewCoil, img.Preview); err != nil {
			errs = append(errs, fmt.Sprintf("preview coils write failed: %v", err))
		} else {
			m.last.Preview = img.Preview
		}
	}

	if len(errs) > 0 {
		m.needFull = true
		return errors.New("mirror modbus: " + strings.Join(errs, " | "))
	}
	return nil
}

func (m *ModbusSink) writeFull(img status.Image) error {
	if err := m.cli.WriteRegisters(m.layout.FlagsRegister, []uint16{img.Flags}); err != nil {
		return err
	}
	if m.layout.Sources == 0 {
		return nil
	}
	if err := m.cli.WriteCoils(m.layout.ProgramCoil, img.Program); err != nil {
		return err
	}
	return m.cli.WriteCoils(m.layout.PreviewCoil, img.Preview)
}

func equalBits(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
