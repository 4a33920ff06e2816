package synth

import "math"

// Table is a single sine cycle, shifted to be non-negative. It is never
// written after BuildTable returns.
type Table []uint16

// BuildTable returns size samples of one sine period scaled into
// [0, amplitude]. Index 0 sits at mid-scale, amplitude/2.
func BuildTable(size int, amplitude uint16) Table {
	half := float64(amplitude / 2)
	t := make(Table, size)
	for i := range t {
		angle := 2 * math.Pi * float64(i) / float64(size)
		v := math.Round(half * (math.Sin(angle) + 1))
		// Guard against tiny negative results of sin near 3π/2.
		t[i] = uint16(max(0, min(v, float64(amplitude))))
	}
	return t
}

// Len returns the table period.
func (t Table) Len() int {
	return len(t)
}

