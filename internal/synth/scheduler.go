package synth

import (
	"sync/atomic"
	"time"
)

// Notifier receives the transfer engine's position events. Implementations
// run in the streaming context: they must not block or allocate.
type Notifier interface {
	// HalfConsumed fires when the read cursor enters the second half.
	HalfConsumed()
	// FullConsumed fires when the read cursor wraps to the first half.
	FullConsumed()
}

// refillHistory is how many recent refill durations are kept.
const refillHistory = 64

// Scheduler refills whichever half the transfer engine just vacated.
type Scheduler struct {
	gen    *Generator
	budget time.Duration

	refills atomic.Uint64
	misses  atomic.Uint64
	// durations is written only from the notification context.
	durations *RingBuffer
}

// Stats summarizes refill timing against the half-buffer deadline.
type Stats struct {
	Refills    uint64
	Misses     uint64
	Budget     time.Duration
	MeanRefill time.Duration
	MaxRefill  time.Duration
}

// NewScheduler returns a scheduler for gen. budget is the time the transfer
// engine takes to play one half, i.e. the refill deadline.
func NewScheduler(gen *Generator, budget time.Duration) *Scheduler {
	return &Scheduler{
		gen:       gen,
		budget:    budget,
		durations: NewRingBuffer(refillHistory),
	}
}

// HalfConsumed regenerates the first half.
func (s *Scheduler) HalfConsumed() {
	s.refill(FirstHalf)
}

// FullConsumed regenerates the second half.
func (s *Scheduler) FullConsumed() {
	s.refill(SecondHalf)
}

func (s *Scheduler) refill(h Half) {
	start := time.Now()
	s.gen.GenerateHalf(h)
	elapsed := time.Since(start)

	s.durations.Insert(int64(elapsed))
	s.refills.Add(1)
	if elapsed > s.budget {
		s.misses.Add(1)
	}
}

// Refills returns how many halves have been regenerated.
func (s *Scheduler) Refills() uint64 {
	return s.refills.Load()
}

// Misses returns how many refills overran the deadline.
func (s *Scheduler) Misses() uint64 {
	return s.misses.Load()
}

// Stats reports refill timing. The duration figures are only meaningful once
// the driver has stopped.
func (s *Scheduler) Stats() Stats {
	st := Stats{
		Refills:   s.refills.Load(),
		Misses:    s.misses.Load(),
		Budget:    s.budget,
		MaxRefill: time.Duration(s.durations.Max()),
	}
	if avg, err := s.durations.Average(); err == nil {
		st.MeanRefill = time.Duration(avg)
	}
	return st
}
