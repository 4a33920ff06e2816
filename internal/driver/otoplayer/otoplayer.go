// Package otoplayer streams a synth buffer through an oto player. The player's
// Read is the notification context.
package otoplayer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	log "github.com/golang/glog"

	"github.com/lozord/dreamrug-synth/internal/pcm"
	"github.com/lozord/dreamrug-synth/internal/synth"
)

const bytesPerSample = 4

// Driver is a synth.Driver backed by oto.
type Driver struct {
	latency time.Duration
	gain    float64

	ctx      *oto.Context
	player   *oto.Player
	frames   int
	transfer *synth.Transfer
	conv     *pcm.Converter
	raw      []uint16
	samples  []float32

	mu      sync.Mutex // Only for setup/control operations
	started bool
}

// New returns a driver with the given latency and output gain. The latency
// sizes both the device buffer and each player read; 0 reads one synth buffer
// at a time and leaves the device buffer to oto.
func New(latency time.Duration, gain float64) *Driver {
	return &Driver{latency: latency, gain: gain}
}

// Configure creates the oto context for a mono float32 stream. oto allows
// one context per process.
func (d *Driver) Configure(cfg synth.TransferConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("oto driver: %w", err)
	}
	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   d.latency,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctx = ctx
	d.attach(cfg)
	d.player = ctx.NewPlayer(d)
	// oto's default player buffer is half a second, far behind SetActive.
	d.player.SetBufferSize(d.frames * bytesPerSample)
	log.Infof("oto context ready: %d Hz, %d samples per read", cfg.SampleRate, d.frames)
	return nil
}

// attach sets up the transfer cursor and conversion buffers, sized for the
// reads the player is configured to make.
func (d *Driver) attach(cfg synth.TransferConfig) {
	d.frames = readFrames(d.latency, cfg)
	d.transfer = synth.NewTransfer(cfg.Buffer, cfg.Notifier)
	d.conv = pcm.NewConverter(cfg.MaxValue, cfg.SampleRate, d.gain, d.frames)
	d.raw = make([]uint16, d.frames)
	d.samples = make([]float32, d.frames)
}

func readFrames(latency time.Duration, cfg synth.TransferConfig) int {
	if n := int(math.Ceil(latency.Seconds() * float64(cfg.SampleRate))); n > 0 {
		return n
	}
	return cfg.Buffer.Len()
}

// Read implements io.Reader for the oto player.
func (d *Driver) Read(p []byte) (int, error) {
	n := len(p) / bytesPerSample
	if n > len(d.raw) {
		// Only if oto ignores SetBufferSize.
		d.raw = make([]uint16, n)
		d.samples = make([]float32, n)
	}
	raw, samples := d.raw[:n], d.samples[:n]
	d.transfer.Drain(raw)
	if err := d.conv.Float32(samples, raw); err != nil {
		clear(samples)
	}
	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(v))
	}
	return n * bytesPerSample, nil
}

// Start implements synth.Driver.
func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player == nil {
		return errors.New("oto driver not configured")
	}
	if !d.started {
		d.player.Play()
		d.started = true
	}
	return nil
}

// Stop implements synth.Driver.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player == nil {
		return nil
	}
	d.player.Pause()
	err := d.player.Close()
	d.player = nil
	d.started = false
	log.Info("oto player closed")
	if err != nil {
		return fmt.Errorf("failed to close oto player: %w", err)
	}
	return nil
}
