package synth

import (
	"errors"
	"math"
	"testing"
)

func mustBank(t *testing.T, cfg Config) *Bank {
	t.Helper()
	b, err := NewBank(cfg)
	if err != nil {
		t.Fatalf("NewBank: %v", err)
	}
	return b
}

func TestBankFrequencies(t *testing.T) {
	b := mustBank(t, DefaultConfig())
	if b.Len() != DefaultNoteCount {
		t.Fatalf("len = %d, want %d", b.Len(), DefaultNoteCount)
	}

	// C4 through B4, as listed alongside the original note table.
	want := []float64{261.63, 277.18, 293.66, 311.13, 329.63, 349.23, 369.99, 392.00, 415.30, 440.00, 466.16, 493.88}
	for i, w := range want {
		if got := b.Frequency(i); math.Abs(got-w) > 0.01 {
			t.Errorf("note %d (%s): frequency = %.3f, want %.2f", i, NoteName(i), got, w)
		}
	}
	if b.Frequency(DefaultReferenceIndex) != DefaultReferenceFrequency {
		t.Errorf("reference note = %v, want exactly %v", b.Frequency(DefaultReferenceIndex), DefaultReferenceFrequency)
	}
}

func TestBankPhaseSteps(t *testing.T) {
	b := mustBank(t, DefaultConfig())
	for i := range b.Len() {
		want := b.Frequency(i) * DefaultTableSize / DefaultSampleRate
		if got := b.PhaseStep(i); got != want {
			t.Errorf("note %d: phase step = %v, want %v", i, got, want)
		}
		if b.PhaseStep(i) >= DefaultTableSize {
			t.Errorf("note %d: phase step %v not below table size", i, b.PhaseStep(i))
		}
		if b.Phase(i) != 0 || b.Active(i) {
			t.Errorf("note %d: want phase 0 and inactive, got %v %v", i, b.Phase(i), b.Active(i))
		}
	}
}

func TestBankRejectsLargePhaseStep(t *testing.T) {
	for _, tc := range []struct {
		name       string
		sampleRate int
	}{
		{"below highest note", 480},
		{"equal to reference", 440},
		{"far below", 100},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.SampleRate = tc.sampleRate
			if _, err := NewBank(cfg); !errors.Is(err, ErrPhaseStepTooLarge) {
				t.Fatalf("NewBank error = %v, want %v", err, ErrPhaseStepTooLarge)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.SampleRate = 500
	if _, err := NewBank(cfg); err != nil {
		t.Fatalf("sample rate above every note should be accepted: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero notes", func(c *Config) { c.NoteCount = 0 }},
		{"zero table", func(c *Config) { c.TableSize = 0 }},
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"odd buffer", func(c *Config) { c.BufferSize = 255 }},
		{"tiny buffer", func(c *Config) { c.BufferSize = 0 }},
		{"negative reference", func(c *Config) { c.ReferenceFrequency = -440 }},
		{"NaN reference", func(c *Config) { c.ReferenceFrequency = math.NaN() }},
		{"reference index high", func(c *Config) { c.ReferenceIndex = 12 }},
		{"reference index negative", func(c *Config) { c.ReferenceIndex = -1 }},
		{"max output", func(c *Config) { c.MaxOutputValue = 1 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want %v", err, ErrInvalidConfig)
			}
		})
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestSetActive(t *testing.T) {
	b := mustBank(t, DefaultConfig())
	for _, note := range []int{-1, 12, 100} {
		if err := b.SetActive(note, true); !errors.Is(err, ErrNoteOutOfRange) {
			t.Errorf("SetActive(%d) = %v, want %v", note, err, ErrNoteOutOfRange)
		}
		if b.Active(note) {
			t.Errorf("Active(%d) = true for out-of-range note", note)
		}
	}

	if err := b.SetActive(9, true); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if err := b.SetActive(4, true); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if got := b.ActiveNotes(); len(got) != 2 || got[0] != 4 || got[1] != 9 {
		t.Fatalf("ActiveNotes() = %v, want [4 9]", got)
	}
	if err := b.SetActive(9, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if b.Active(9) || !b.Active(4) {
		t.Fatalf("unexpected active set %v", b.ActiveNotes())
	}
}

func TestPhaseStaysInRange(t *testing.T) {
	b := mustBank(t, DefaultConfig())
	for i := range b.Len() {
		for range 100000 {
			b.oscs[i].advance(b.tableSize)
			if p := b.Phase(i); p < 0 || p >= DefaultTableSize {
				t.Fatalf("note %d: phase %v out of [0, %d)", i, p, DefaultTableSize)
			}
		}
	}
}

func TestPhaseStaysInRangeNearLimit(t *testing.T) {
	// Highest note just under one table per sample.
	cfg := DefaultConfig()
	cfg.SampleRate = 494
	b := mustBank(t, cfg)
	top := b.Len() - 1
	if s := b.PhaseStep(top); s < 255 || s >= 256 {
		t.Fatalf("unexpected step %v", s)
	}
	for range 100000 {
		b.oscs[top].advance(b.tableSize)
		if p := b.Phase(top); p < 0 || p >= 256 {
			t.Fatalf("phase %v out of range", p)
		}
	}
}
