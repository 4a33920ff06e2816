// Package wavsink records drained output samples to a 16-bit mono WAV file.
package wavsink

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/lozord/dreamrug-synth/internal/pcm"
)

const (
	bitDepth     = 16
	pcmFormatTag = 1
)

// Sink is a sim.Sink backed by a WAV encoder.
type Sink struct {
	path string
	f    *os.File
	enc  *wav.Encoder
	conv *pcm.Converter
	out  *audio.IntBuffer
}

// Create opens path for writing. Codes up to maxValue are centered and
// scaled by gain before being written.
func Create(path string, sampleRate int, maxValue uint16, gain float64) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create wav file at %q: %w", path, err)
	}
	format := &audio.Format{NumChannels: 1, SampleRate: sampleRate}
	return &Sink{
		path: path,
		f:    f,
		enc:  wav.NewEncoder(f, sampleRate, bitDepth, 1, pcmFormatTag),
		conv: pcm.NewConverter(maxValue, sampleRate, gain, 0),
		out:  &audio.IntBuffer{Format: format, SourceBitDepth: bitDepth},
	}, nil
}

// Write encodes samples.
func (s *Sink) Write(samples []uint16) error {
	if err := s.conv.Int(s.out, samples, bitDepth); err != nil {
		return err
	}
	if err := s.enc.Write(s.out); err != nil {
		return fmt.Errorf("failed to write wav data to %q: %w", s.path, err)
	}
	return nil
}

// Close finalizes the WAV headers and closes the file.
func (s *Sink) Close() error {
	if err := s.enc.Close(); err != nil {
		s.f.Close()
		return fmt.Errorf("failed to finalize wav file %q: %w", s.path, err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("failed to close wav file %q: %w", s.path, err)
	}
	return nil
}
