package synth

import (
	"fmt"
	"sync/atomic"
)

// Oscillator is one phase-accumulator voice.
type Oscillator struct {
	frequency float64
	phaseStep float64

	// phase is owned by the notification context. Always in [0, tableSize).
	phase float64
	// active is written by the foreground and read by the notification
	// context without any other synchronization.
	active atomic.Bool
}

// Bank holds the fixed set of voices, one per note.
type Bank struct {
	oscs      []Oscillator
	tableSize float64
}

// NewBank derives every note's frequency and phase step from cfg. All voices
// start silent at phase zero.
func NewBank(cfg Config) (*Bank, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Bank{
		oscs:      make([]Oscillator, cfg.NoteCount),
		tableSize: float64(cfg.TableSize),
	}
	for i := range b.oscs {
		o := &b.oscs[i]
		o.frequency = cfg.NoteFrequency(i)
		o.phaseStep = cfg.PhaseStep(o.frequency)
	}
	return b, nil
}

// Len returns the number of voices.
func (b *Bank) Len() int {
	return len(b.oscs)
}

// SetActive toggles whether a note contributes to the mix. It never blocks
// and leaves the note's phase untouched.
func (b *Bank) SetActive(note int, on bool) error {
	if note < 0 || note >= len(b.oscs) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrNoteOutOfRange, note, len(b.oscs))
	}
	b.oscs[note].active.Store(on)
	return nil
}

// Active reports whether a note is sounding. Out-of-range notes are never active.
func (b *Bank) Active(note int) bool {
	if note < 0 || note >= len(b.oscs) {
		return false
	}
	return b.oscs[note].active.Load()
}

// ActiveNotes returns the indices of the sounding notes, in order.
func (b *Bank) ActiveNotes() []int {
	var notes []int
	for i := range b.oscs {
		if b.oscs[i].active.Load() {
			notes = append(notes, i)
		}
	}
	return notes
}

// Frequency returns the note's frequency in Hz.
func (b *Bank) Frequency(note int) float64 {
	return b.oscs[note].frequency
}

// PhaseStep returns the note's table advance per sample.
func (b *Bank) PhaseStep(note int) float64 {
	return b.oscs[note].phaseStep
}

// Phase returns the note's accumulator. Only safe from the notification
// context or while no driver is running.
func (b *Bank) Phase(note int) float64 {
	return b.oscs[note].phase
}

// advance moves the accumulator one sample forward, wrapping once.
func (o *Oscillator) advance(tableSize float64) {
	o.phase += o.phaseStep
	if o.phase >= tableSize {
		o.phase -= tableSize
	}
}
