package synth

// Generator mixes the active voices of a bank into one buffer half at a time.
type Generator struct {
	bank    *Bank
	table   Table
	buf     *Buffer
	silence uint16
}

// NewGenerator wires a generator over shared state. The table length must
// match the bank's table size.
func NewGenerator(bank *Bank, table Table, buf *Buffer, silence uint16) *Generator {
	return &Generator{
		bank:    bank,
		table:   table,
		buf:     buf,
		silence: silence,
	}
}

// GenerateHalf rewrites every slot of half h. The active set is read again
// for each slot, so a toggle lands on the very next sample.
func (g *Generator) GenerateHalf(h Half) {
	dst := g.buf.Half(h)
	for s := range dst {
		dst[s] = g.mix()
	}
}

// mix produces one output sample and advances the active phases.
func (g *Generator) mix() uint16 {
	var sum, count uint32
	oscs := g.bank.oscs
	for j := range oscs {
		o := &oscs[j]
		if !o.active.Load() {
			continue
		}
		sum += uint32(g.table[int(o.phase)])
		o.advance(g.bank.tableSize)
		count++
	}
	switch count {
	case 0:
		return g.silence
	case 1:
		return uint16(sum)
	default:
		return uint16(sum / count)
	}
}
