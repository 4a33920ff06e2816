// Package pcm turns unsigned output codes into the signed sample formats
// host audio APIs and files expect.
package pcm

import (
	"fmt"

	"github.com/go-audio/audio"
	"github.com/go-audio/transforms"
)

// Converter maps codes in [0, max] around the mid-scale value max/2 to
// floats in [-1, 1), with a gain applied on top. It reuses its buffer, so a
// Converter must not be shared between goroutines.
type Converter struct {
	center float64
	scale  float64
	gain   float64
	buf    *audio.FloatBuffer
}

// NewConverter returns a converter for codes up to maxValue, sized for
// capacity samples per call. Larger calls grow the buffer once.
func NewConverter(maxValue uint16, sampleRate int, gain float64, capacity int) *Converter {
	half := maxValue / 2
	return &Converter{
		center: float64(half),
		scale:  1 / float64(half+1),
		gain:   gain,
		buf: &audio.FloatBuffer{
			Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			Data:   make([]float64, 0, capacity),
		},
	}
}

// Float converts src into the converter's float buffer and returns it. The
// returned buffer is overwritten by the next call.
func (c *Converter) Float(src []uint16) (*audio.FloatBuffer, error) {
	if cap(c.buf.Data) < len(src) {
		c.buf.Data = make([]float64, len(src))
	}
	c.buf.Data = c.buf.Data[:len(src)]
	for i, v := range src {
		c.buf.Data[i] = float64(v) - c.center
	}
	if err := transforms.Gain(c.buf, c.scale*c.gain); err != nil {
		return nil, fmt.Errorf("failed to apply gain: %w", err)
	}
	return c.buf, nil
}

// Float32 converts src into dst, which must be at least as long.
func (c *Converter) Float32(dst []float32, src []uint16) error {
	buf, err := c.Float(src)
	if err != nil {
		return err
	}
	for i, v := range buf.Data {
		dst[i] = float32(v)
	}
	return nil
}

// Int converts src into dst as signed PCM of the given bit depth, clamping at
// full scale. dst.Data is resized to len(src).
func (c *Converter) Int(dst *audio.IntBuffer, src []uint16, bitDepth int) error {
	buf, err := c.Float(src)
	if err != nil {
		return err
	}
	if err := transforms.PCMScale(buf, bitDepth); err != nil {
		return fmt.Errorf("failed to scale to %d-bit PCM: %w", bitDepth, err)
	}
	if cap(dst.Data) < len(src) {
		dst.Data = make([]int, len(src))
	}
	dst.Data = dst.Data[:len(src)]
	hi := audio.IntMaxSignedValue(bitDepth)
	lo := -hi - 1
	for i, v := range buf.Data {
		dst.Data[i] = min(max(int(v), lo), hi)
	}
	return nil
}
