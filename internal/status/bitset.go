// internal/status/bitset.go
package status

// Bitset is a fixed-width set of source indices.
// It is a plain value: assignment copies it, == compares it.
type Bitset [bitsetWords]uint64

// Set marks index i. Out-of-range indices are ignored.
func (b *Bitset) Set(i int) {
	if i < 0 || i >= MaxSources {
		return
	}
	b[i/64] |= 1 << uint(i%64)
}

// Clear unmarks index i. Out-of-range indices are ignored.
func (b *Bitset) Clear(i int) {
	if i < 0 || i >= MaxSources {
		return
	}
	b[i/64] &^= 1 << uint(i%64)
}

// Test reports whether index i is marked.
func (b Bitset) Test(i int) bool {
	if i < 0 || i >= MaxSources {
		return false
	}
	return b[i/64]&(1<<uint(i%64)) != 0
}

// Empty reports whether no index is marked.
func (b Bitset) Empty() bool {
	for _, w := range b {
		if w != 0 {
			return false
		}
	}
	return true
}

// Indices returns the marked indices in ascending order.
func (b Bitset) Indices() []int {
	var out []int
	for wi, w := range b {
		for bit := 0; w != 0 && bit < 64; bit++ {
			if w&(1<<uint(bit)) != 0 {
				out = append(out, wi*64+bit)
			}
		}
	}
	return out
}
