package synth

import (
	"errors"
	"fmt"
	"math"
)

// Defaults for the 12-bit, 48kHz single-octave instrument.
const (
	DefaultNoteCount          = 12
	DefaultTableSize          = 256
	DefaultSampleRate         = 48000
	DefaultBufferSize         = 256
	DefaultReferenceFrequency = 440.0
	DefaultReferenceIndex     = 9
	DefaultMaxOutputValue     = 4095
)

var (
	// ErrInvalidConfig is returned for structurally invalid configurations.
	ErrInvalidConfig = errors.New("invalid synth config")
	// ErrPhaseStepTooLarge is returned when a note would advance a full table
	// cycle or more per sample, which breaks the single-subtraction phase wrap.
	ErrPhaseStepTooLarge = errors.New("phase step must be less than table size")
	// ErrNoteOutOfRange is returned for note indices outside the bank.
	ErrNoteOutOfRange = errors.New("note index out of range")
)

// Config fixes every derived quantity of the instrument. It is consumed once
// by New and never mutated afterwards.
type Config struct {
	NoteCount          int
	TableSize          int
	SampleRate         int
	BufferSize         int
	ReferenceFrequency float64
	ReferenceIndex     int
	MaxOutputValue     uint16
}

// DefaultConfig returns the stock instrument configuration.
func DefaultConfig() Config {
	return Config{
		NoteCount:          DefaultNoteCount,
		TableSize:          DefaultTableSize,
		SampleRate:         DefaultSampleRate,
		BufferSize:         DefaultBufferSize,
		ReferenceFrequency: DefaultReferenceFrequency,
		ReferenceIndex:     DefaultReferenceIndex,
		MaxOutputValue:     DefaultMaxOutputValue,
	}
}

// NoteFrequency returns the equal-tempered frequency of note i.
func (c Config) NoteFrequency(i int) float64 {
	return c.ReferenceFrequency * math.Pow(2, float64(i-c.ReferenceIndex)/float64(c.NoteCount))
}

// PhaseStep returns the table advance per sample for a given frequency.
func (c Config) PhaseStep(freq float64) float64 {
	return freq * float64(c.TableSize) / float64(c.SampleRate)
}

// Silence is the mid-scale output value.
func (c Config) Silence() uint16 {
	return c.MaxOutputValue / 2
}

// Validate rejects configurations that would violate the phase-wrap or
// buffer-halving invariants.
func (c Config) Validate() error {
	switch {
	case c.NoteCount <= 0:
		return fmt.Errorf("%w: note count must be positive, got %d", ErrInvalidConfig, c.NoteCount)
	case c.TableSize <= 0:
		return fmt.Errorf("%w: table size must be positive, got %d", ErrInvalidConfig, c.TableSize)
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, c.SampleRate)
	case c.BufferSize < 2 || c.BufferSize%2 != 0:
		return fmt.Errorf("%w: buffer size must be even and at least 2, got %d", ErrInvalidConfig, c.BufferSize)
	case c.ReferenceFrequency <= 0 || math.IsInf(c.ReferenceFrequency, 0) || math.IsNaN(c.ReferenceFrequency):
		return fmt.Errorf("%w: reference frequency must be positive, got %v", ErrInvalidConfig, c.ReferenceFrequency)
	case c.ReferenceIndex < 0 || c.ReferenceIndex >= c.NoteCount:
		return fmt.Errorf("%w: reference index %d outside [0, %d)", ErrInvalidConfig, c.ReferenceIndex, c.NoteCount)
	case c.MaxOutputValue < 2:
		return fmt.Errorf("%w: max output value too small: %d", ErrInvalidConfig, c.MaxOutputValue)
	}

	for i := range c.NoteCount {
		freq := c.NoteFrequency(i)
		if step := c.PhaseStep(freq); step >= float64(c.TableSize) {
			return fmt.Errorf("%w: note %d at %.2f Hz has step %.3f >= %d (sample rate %d)",
				ErrPhaseStepTooLarge, i, freq, step, c.TableSize, c.SampleRate)
		}
	}
	return nil
}
