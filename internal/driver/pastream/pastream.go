// Package pastream streams a synth buffer to the default output device.
// The PortAudio stream callback is the notification context: it advances the
// transfer cursor, which refills buffer halves synchronously.
package pastream

import (
	"errors"
	"fmt"

	log "github.com/golang/glog"
	"github.com/gordonklaus/portaudio"

	"github.com/lozord/dreamrug-synth/internal/pcm"
	"github.com/lozord/dreamrug-synth/internal/synth"
)

// maxHostFrames sizes the callback buffers when PortAudio picks the block
// size. Larger host blocks still work but allocate on the callback thread.
const maxHostFrames = 8192

// Driver is a synth.Driver backed by a PortAudio output stream.
type Driver struct {
	framesPerBuffer int
	gain            float64

	stream   *portaudio.Stream
	transfer *synth.Transfer
	conv     *pcm.Converter
	raw      []uint16
}

// New returns a driver asking PortAudio for framesPerBuffer frames per
// callback (0 lets PortAudio choose) and scaling output by gain.
func New(framesPerBuffer int, gain float64) *Driver {
	return &Driver{framesPerBuffer: framesPerBuffer, gain: gain}
}

// Configure initializes PortAudio and opens a mono float32 stream at the
// transfer's sample rate.
func (d *Driver) Configure(cfg synth.TransferConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("portaudio driver: %w", err)
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	d.attach(cfg)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(cfg.SampleRate), d.framesPerBuffer, d.process)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	d.stream = stream
	if d.framesPerBuffer <= 0 {
		log.Infof("portaudio stream opened: %d Hz, host-chosen block size up to %d frames", cfg.SampleRate, maxHostFrames)
	} else {
		log.Infof("portaudio stream opened: %d Hz, %d frames per buffer", cfg.SampleRate, d.framesPerBuffer)
	}
	return nil
}

func (d *Driver) attach(cfg synth.TransferConfig) {
	capacity := d.framesPerBuffer
	if capacity <= 0 {
		capacity = maxHostFrames
	}
	d.transfer = synth.NewTransfer(cfg.Buffer, cfg.Notifier)
	d.conv = pcm.NewConverter(cfg.MaxValue, cfg.SampleRate, d.gain, capacity)
	d.raw = make([]uint16, capacity)
}

// process runs on PortAudio's callback thread.
func (d *Driver) process(out []float32) {
	if len(out) > len(d.raw) {
		// Only when the host block exceeds what attach sized for.
		d.raw = make([]uint16, len(out))
	}
	raw := d.raw[:len(out)]
	d.transfer.Drain(raw)
	if err := d.conv.Float32(out, raw); err != nil {
		clear(out)
	}
}

// Start implements synth.Driver.
func (d *Driver) Start() error {
	if d.stream == nil {
		return errors.New("portaudio driver not configured")
	}
	if err := d.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}
	return nil
}

// Stop implements synth.Driver. It closes the stream and terminates
// PortAudio.
func (d *Driver) Stop() error {
	if d.stream == nil {
		return nil
	}
	var errs []error
	if err := d.stream.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop portaudio stream: %w", err))
	}
	if err := d.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close portaudio stream: %w", err))
	}
	if err := portaudio.Terminate(); err != nil {
		errs = append(errs, fmt.Errorf("failed to terminate portaudio: %w", err))
	}
	d.stream = nil
	log.Info("portaudio stream closed")
	return errors.Join(errs...)
}
