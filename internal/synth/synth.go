// Package synth implements a multi-voice additive sine synthesizer that
// streams through a double-buffered cyclic transfer.
//
// A Driver drains the output Buffer one sample per clock tick and calls back
// into a Scheduler when either half has been played; the Scheduler has the
// Generator rewrite that half from the Bank's active voices. Foreground code
// only ever calls SetActive.
package synth

import (
	"errors"
	"fmt"
	"math/bits"
)

// Synth owns the table, voices, buffer and refill path of one instrument.
type Synth struct {
	cfg       Config
	table     Table
	bank      *Bank
	buf       *Buffer
	gen       *Generator
	scheduler *Scheduler

	driver Driver
}

// New validates cfg and builds everything the notification path needs, so
// nothing is allocated once streaming starts.
func New(cfg Config) (*Synth, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table := BuildTable(cfg.TableSize, cfg.MaxOutputValue)
	bank, err := NewBank(cfg)
	if err != nil {
		return nil, err
	}
	buf := NewBuffer(cfg.BufferSize, cfg.Silence())
	gen := NewGenerator(bank, table, buf, cfg.Silence())
	return &Synth{
		cfg:       cfg,
		table:     table,
		bank:      bank,
		buf:       buf,
		gen:       gen,
		scheduler: NewScheduler(gen, halfPeriod(cfg.BufferSize, cfg.SampleRate)),
	}, nil
}

// Config returns the configuration the synth was built with.
func (s *Synth) Config() Config { return s.cfg }

// Bank returns the voices.
func (s *Synth) Bank() *Bank { return s.bank }

// Table returns the waveform table.
func (s *Synth) Table() Table { return s.table }

// Buffer returns the shared output buffer.
func (s *Synth) Buffer() *Buffer { return s.buf }

// Scheduler returns the refill scheduler.
func (s *Synth) Scheduler() *Scheduler { return s.scheduler }

// TransferConfig returns what a driver needs to stream this synth.
func (s *Synth) TransferConfig() TransferConfig {
	return TransferConfig{
		Buffer:      s.buf,
		SampleRate:  s.cfg.SampleRate,
		ElementBits: bits.Len16(s.cfg.MaxOutputValue),
		MaxValue:    s.cfg.MaxOutputValue,
		Circular:    true,
		HalfNotify:  true,
		Notifier:    s.scheduler,
	}
}

// SetActive turns a note on or off. Safe to call at any time from any
// goroutine.
func (s *Synth) SetActive(note int, on bool) error {
	return s.bank.SetActive(note, on)
}

// Silence turns every note off.
func (s *Synth) Silence() {
	for i := range s.bank.Len() {
		_ = s.bank.SetActive(i, false)
	}
}

// Start configures d for this synth's buffer and starts streaming.
func (s *Synth) Start(d Driver) error {
	if s.driver != nil {
		return errors.New("synth already started")
	}
	if err := d.Configure(s.TransferConfig()); err != nil {
		return fmt.Errorf("failed to configure output driver: %w", err)
	}
	if err := d.Start(); err != nil {
		return fmt.Errorf("failed to start output driver: %w", err)
	}
	s.driver = d
	return nil
}

// Stop halts the driver, if running.
func (s *Synth) Stop() error {
	if s.driver == nil {
		return nil
	}
	d := s.driver
	s.driver = nil
	if err := d.Stop(); err != nil {
		return fmt.Errorf("failed to stop output driver: %w", err)
	}
	return nil
}

// Stats reports refill timing. Call after Stop for exact duration figures.
func (s *Synth) Stats() Stats {
	return s.scheduler.Stats()
}
