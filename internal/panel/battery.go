// internal/panel/battery.go
package panel

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SysfsBattery reads a power supply voltage_now file (microvolts).
type SysfsBattery struct {
	Path string
}

func (b SysfsBattery) Voltage() (float64, error) {
	raw, err := os.ReadFile(b.Path)
	if err != nil {
		return 0, err
	}
	uv, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("panel: battery %s: %w", b.Path, err)
	}
	return uv / 1e6, nil
}
