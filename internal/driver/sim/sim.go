// Package sim is a software transfer engine: a goroutine plays the role of
// the sample clock and the cyclic transfer, and the drained samples go to a
// Sink.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/golang/glog"

	"github.com/lozord/dreamrug-synth/internal/synth"
)

// DefaultTick is how often the paced clock wakes up to catch up.
const DefaultTick = time.Millisecond

// ErrUnsupported is returned by Configure for transfers this engine cannot run.
var ErrUnsupported = errors.New("unsupported transfer configuration")

// Sink receives drained samples, in order, from the streaming goroutine.
type Sink interface {
	Write(samples []uint16) error
	Close() error
}

// Discard is a Sink that drops everything.
type Discard struct{}

func (Discard) Write([]uint16) error { return nil }
func (Discard) Close() error { return nil }

// Engine drains a synth buffer either paced to wall-clock time or, when a
// sample limit is set, as fast as possible.
type Engine struct {
	tick    time.Duration
	offline bool
	limit   int64
	sink    Sink

	sampleRate int
	transfer   *synth.Transfer
	chunk      []uint16

	produced atomic.Int64
	cancel   context.CancelFunc
	done     chan struct{}
	err      error
}

// Option configures an Engine.
type Option func(*Engine)

// WithTick sets the paced clock's wake-up period.
func WithTick(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tick = d
		}
	}
}

// WithSink sends drained samples to s instead of discarding them.
func WithSink(s Sink) Option {
	return func(e *Engine) {
		if s != nil {
			e.sink = s
		}
	}
}

// Offline renders exactly n samples without pacing, then finishes. Configure
// rejects n < 1.
func Offline(n int64) Option {
	return func(e *Engine) {
		e.offline = true
		e.limit = n
	}
}

// New returns an unconfigured engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		tick: DefaultTick,
		sink: Discard{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Configure implements synth.Driver.
func (e *Engine) Configure(cfg synth.TransferConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	if e.offline && e.limit < 1 {
		return fmt.Errorf("%w: offline render of %d samples", ErrUnsupported, e.limit)
	}
	if half := cfg.HalfPeriod(); !e.offline && e.tick > half {
		log.Warningf("sim tick %v is longer than the %v half period; output will be bursty", e.tick, half)
	}
	e.sampleRate = cfg.SampleRate
	e.transfer = synth.NewTransfer(cfg.Buffer, cfg.Notifier)
	e.chunk = make([]uint16, cfg.Buffer.Len()/2)
	return nil
}

// Start implements synth.Driver.
func (e *Engine) Start() error {
	if e.transfer == nil {
		return errors.New("sim engine not configured")
	}
	if e.done != nil {
		return errors.New("sim engine already started")
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	go func() {
		defer close(e.done)
		if e.offline {
			e.err = e.runOffline(ctx)
		} else {
			e.err = e.runPaced(ctx)
		}
	}()
	log.Infof("sim transfer engine started at %d Hz (offline limit %d)", e.sampleRate, e.limit)
	return nil
}

// Stop implements synth.Driver. It closes the sink.
func (e *Engine) Stop() error {
	var err error
	if e.done != nil {
		e.cancel()
		<-e.done
		err = e.err
	}
	if cerr := e.sink.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close sink: %w", cerr)
	}
	log.Infof("sim transfer engine stopped after %d samples", e.produced.Load())
	return err
}

// Done is closed once streaming ends: an offline render finished, a sink
// failed, or Stop was called. It is nil before Start.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Produced returns how many samples have been drained so far.
func (e *Engine) Produced() int64 {
	return e.produced.Load()
}

// Pump synchronously drains n samples. It must not be used while the engine
// is started.
func (e *Engine) Pump(n int64) error {
	if e.transfer == nil {
		return errors.New("sim engine not configured")
	}
	if e.done != nil {
		return errors.New("sim engine is streaming")
	}
	return e.pump(n)
}

func (e *Engine) pump(n int64) error {
	for n > 0 {
		k := min(n, int64(len(e.chunk)))
		out := e.chunk[:k]
		e.transfer.Drain(out)
		if err := e.sink.Write(out); err != nil {
			return fmt.Errorf("sink write failed: %w", err)
		}
		e.produced.Add(k)
		n -= k
	}
	return nil
}

func (e *Engine) runOffline(ctx context.Context) error {
	for e.produced.Load() < e.limit {
		if ctx.Err() != nil {
			return nil
		}
		if err := e.pump(min(e.limit-e.produced.Load(), int64(len(e.chunk)))); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runPaced(ctx context.Context) error {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		due := int64(time.Since(start)/time.Microsecond) * int64(e.sampleRate) / int64(time.Second/time.Microsecond)
		if err := e.pump(due - e.produced.Load()); err != nil {
			return err
		}
	}
}
