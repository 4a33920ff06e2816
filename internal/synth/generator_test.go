package synth

import "testing"

func newTestSynth(t *testing.T, cfg Config) *Synth {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// step mirrors the accumulator update for expected-value bookkeeping.
func step(phase, inc, size float64) float64 {
	phase += inc
	if phase >= size {
		phase -= size
	}
	return phase
}

func TestGenerateHalfSilence(t *testing.T) {
	s := newTestSynth(t, DefaultConfig())
	bank := s.Bank()

	// Move some phases away from zero, then release everything.
	for _, n := range []int{2, 7} {
		if err := bank.SetActive(n, true); err != nil {
			t.Fatal(err)
		}
	}
	s.gen.GenerateHalf(FirstHalf)
	s.Silence()

	before := make([]float64, bank.Len())
	for i := range before {
		before[i] = bank.Phase(i)
	}

	for _, h := range []Half{FirstHalf, SecondHalf} {
		s.gen.GenerateHalf(h)
		for i, v := range s.Buffer().Half(h) {
			if v != 2047 {
				t.Fatalf("%s half slot %d = %d, want 2047", h, i, v)
			}
		}
	}
	for i := range before {
		if bank.Phase(i) != before[i] {
			t.Errorf("note %d phase moved from %v to %v while silent", i, before[i], bank.Phase(i))
		}
	}
}

func TestGenerateHalfSingleVoice(t *testing.T) {
	s := newTestSynth(t, DefaultConfig())
	bank, table := s.Bank(), s.Table()
	const k = 9
	if err := s.SetActive(k, true); err != nil {
		t.Fatal(err)
	}

	phase := bank.Phase(k)
	for round := range 5 {
		h := Half(round % 2)
		s.gen.GenerateHalf(h)
		for i, v := range s.Buffer().Half(h) {
			want := table[int(phase)]
			if v != want {
				t.Fatalf("round %d slot %d = %d, want %d", round, i, v, want)
			}
			phase = step(phase, bank.PhaseStep(k), DefaultTableSize)
		}
		if bank.Phase(k) != phase {
			t.Fatalf("round %d: phase = %v, want %v", round, bank.Phase(k), phase)
		}
	}
	for i := range bank.Len() {
		if i != k && bank.Phase(i) != 0 {
			t.Errorf("inactive note %d advanced to %v", i, bank.Phase(i))
		}
	}
}

func TestGenerateHalfTwoVoices(t *testing.T) {
	s := newTestSynth(t, DefaultConfig())
	bank, table := s.Bank(), s.Table()
	const a, b = 0, 4
	for _, n := range []int{a, b} {
		if err := s.SetActive(n, true); err != nil {
			t.Fatal(err)
		}
	}

	pa, pb := 0.0, 0.0
	for round := range 4 {
		h := Half(round % 2)
		s.gen.GenerateHalf(h)
		for i, v := range s.Buffer().Half(h) {
			// Integer floor division of the summed table values.
			want := uint16((uint32(table[int(pa)]) + uint32(table[int(pb)])) / 2)
			if v != want {
				t.Fatalf("round %d slot %d = %d, want %d", round, i, v, want)
			}
			pa = step(pa, bank.PhaseStep(a), DefaultTableSize)
			pb = step(pb, bank.PhaseStep(b), DefaultTableSize)
		}
	}
}

func TestGenerateAllVoicesInRange(t *testing.T) {
	s := newTestSynth(t, DefaultConfig())
	for i := range s.Bank().Len() {
		if err := s.SetActive(i, true); err != nil {
			t.Fatal(err)
		}
	}
	for round := range 200 {
		h := Half(round % 2)
		s.gen.GenerateHalf(h)
		for i, v := range s.Buffer().Half(h) {
			if v > DefaultMaxOutputValue {
				t.Fatalf("round %d slot %d = %d out of range", round, i, v)
			}
		}
	}
}

func TestToggleMidHalf(t *testing.T) {
	s := newTestSynth(t, DefaultConfig())
	bank, table := s.Bank(), s.Table()
	const lead, held = 9, 4
	for _, n := range []int{lead, held} {
		if err := s.SetActive(n, true); err != nil {
			t.Fatal(err)
		}
	}
	for range 10 {
		s.gen.mix()
	}

	if err := s.SetActive(held, false); err != nil {
		t.Fatal(err)
	}
	heldPhase := bank.Phase(held)
	leadPhase := bank.Phase(lead)

	// The very next slot carries only the lead voice, undivided.
	if got, want := s.gen.mix(), table[int(leadPhase)]; got != want {
		t.Fatalf("slot after release = %d, want %d", got, want)
	}
	for range 20 {
		s.gen.mix()
	}
	if bank.Phase(held) != heldPhase {
		t.Fatalf("released note advanced from %v to %v", heldPhase, bank.Phase(held))
	}

	if err := s.SetActive(held, true); err != nil {
		t.Fatal(err)
	}
	leadPhase = bank.Phase(lead)
	want := uint16((uint32(table[int(leadPhase)]) + uint32(table[int(heldPhase)])) / 2)
	if got := s.gen.mix(); got != want {
		t.Fatalf("slot after re-press = %d, want %d", got, want)
	}
	if got, want := bank.Phase(held), step(heldPhase, bank.PhaseStep(held), DefaultTableSize); got != want {
		t.Fatalf("re-pressed note resumed at %v, want %v", got, want)
	}
}

func TestIntegerStepReturnsToStart(t *testing.T) {
	// 440 Hz * 256 / 28160 Hz is exactly four table entries per sample.
	cfg := DefaultConfig()
	cfg.SampleRate = 28160
	s := newTestSynth(t, cfg)
	bank, table := s.Bank(), s.Table()
	const k = 9
	if bank.PhaseStep(k) != 4 {
		t.Fatalf("phase step = %v, want 4", bank.PhaseStep(k))
	}
	if err := s.SetActive(k, true); err != nil {
		t.Fatal(err)
	}

	period := DefaultTableSize / 4
	for n := 1; n <= period; n++ {
		if got, want := s.gen.mix(), table[(n-1)*4]; got != want {
			t.Fatalf("sample %d = %d, want %d", n-1, got, want)
		}
		if n < period && bank.Phase(k) == 0 {
			t.Fatalf("phase returned to start early, after %d samples", n)
		}
	}
	if bank.Phase(k) != 0 {
		t.Fatalf("phase after %d samples = %v, want 0", period, bank.Phase(k))
	}

	// A whole half is two exact table cycles.
	s.gen.GenerateHalf(SecondHalf)
	for i, v := range s.Buffer().Half(SecondHalf) {
		if want := table[(i*4)%DefaultTableSize]; v != want {
			t.Fatalf("slot %d = %d, want %d", i, v, want)
		}
	}
	if bank.Phase(k) != 0 {
		t.Fatalf("phase after half = %v, want 0", bank.Phase(k))
	}
}
