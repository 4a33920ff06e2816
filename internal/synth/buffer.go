package synth

// Half selects one side of the double buffer.
type Half int

const (
	FirstHalf Half = iota
	SecondHalf
)

func (h Half) String() string {
	if h == SecondHalf {
		return "second"
	}
	return "first"
}

// Buffer is the cyclic output buffer shared between the generator and the
// transfer engine. It is allocated once and never resized.
type Buffer struct {
	data []uint16
}

// NewBuffer returns a buffer of size samples, each set to fill.
func NewBuffer(size int, fill uint16) *Buffer {
	b := &Buffer{data: make([]uint16, size)}
	for i := range b.data {
		b.data[i] = fill
	}
	return b
}

// Len returns the buffer length in samples.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Half returns the slots belonging to h. The slice aliases the buffer.
func (b *Buffer) Half(h Half) []uint16 {
	mid := len(b.data) / 2
	if h == SecondHalf {
		return b.data[mid:]
	}
	return b.data[:mid]
}
