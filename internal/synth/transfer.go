package synth

// Transfer is a software cyclic transfer: it reads the output buffer one
// slot per sample-clock tick, forever, and raises the half/full events.
// Drivers own one Transfer and call it from their streaming context only.
type Transfer struct {
	buf    *Buffer
	n      Notifier
	cursor int
	mid    int
}

// NewTransfer returns a transfer positioned at slot 0.
func NewTransfer(buf *Buffer, n Notifier) *Transfer {
	return &Transfer{
		buf: buf,
		n:   n,
		mid: buf.Len() / 2,
	}
}

// Next consumes one slot. The notification for a crossing runs before Next
// returns.
func (t *Transfer) Next() uint16 {
	v := t.buf.data[t.cursor]
	t.cursor++
	switch t.cursor {
	case t.mid:
		t.n.HalfConsumed()
	case len(t.buf.data):
		t.cursor = 0
		t.n.FullConsumed()
	}
	return v
}

// Drain consumes len(dst) slots into dst.
func (t *Transfer) Drain(dst []uint16) {
	for i := range dst {
		dst[i] = t.Next()
	}
}

