// internal/status/register.go
package status

import "sync"

// Register is the single authoritative ConnectionStatus cell.
// Readers always get a whole copy; writers only ever replace the whole value.
type Register struct {
	mu  sync.Mutex
	cur ConnectionStatus
}

// NewRegister returns a register holding the Connecting status.
func NewRegister() *Register {
	return &Register{cur: Connecting()}
}

// Get returns a copy of the current status.
func (r *Register) Get() ConnectionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur
}

// Replace publishes s as the current status.
func (r *Register) Replace(s ConnectionStatus) {
	r.mu.Lock()
	r.cur = s
	r.mu.Unlock()
}
