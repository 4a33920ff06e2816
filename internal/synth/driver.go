package synth

import (
	"errors"
	"fmt"
	"math/bits"
	"time"
)

// ErrUnsupportedTransfer is returned by TransferConfig.Validate.
var ErrUnsupportedTransfer = errors.New("unsupported transfer configuration")

// TransferConfig describes the cyclic transfer a driver must run: where the
// samples live, how wide they are, and who to tell when a half is played.
type TransferConfig struct {
	Buffer      *Buffer
	SampleRate  int
	ElementBits int
	MaxValue    uint16
	Circular    bool
	HalfNotify  bool
	Notifier    Notifier
}

// Validate reports whether a driver can run the transfer: a circular buffer
// with half/full notifications and elements of at most 16 bits that hold
// MaxValue.
func (c TransferConfig) Validate() error {
	switch {
	case c.Buffer == nil || c.Buffer.Len() < 2:
		return fmt.Errorf("%w: missing buffer", ErrUnsupportedTransfer)
	case c.Notifier == nil:
		return fmt.Errorf("%w: missing notifier", ErrUnsupportedTransfer)
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrUnsupportedTransfer, c.SampleRate)
	case !c.Circular || !c.HalfNotify:
		return fmt.Errorf("%w: need circular mode with half/full notifications", ErrUnsupportedTransfer)
	case c.ElementBits < 1 || c.ElementBits > 16:
		return fmt.Errorf("%w: %d-bit elements", ErrUnsupportedTransfer, c.ElementBits)
	case bits.Len16(c.MaxValue) > c.ElementBits:
		return fmt.Errorf("%w: max value %d does not fit %d bits", ErrUnsupportedTransfer, c.MaxValue, c.ElementBits)
	}
	return nil
}

// HalfPeriod returns how long the engine takes to play one buffer half.
func (c TransferConfig) HalfPeriod() time.Duration {
	return halfPeriod(c.Buffer.Len(), c.SampleRate)
}

// Driver is the output peripheral: analog output, cyclic transfer engine and
// sample clock. The core depends on nothing else about the target.
type Driver interface {
	// Configure sets up the output and transfer. It does not start streaming.
	Configure(cfg TransferConfig) error
	// Start begins draining the buffer at the sample rate.
	Start() error
	// Stop halts streaming and releases the output. Notifications have
	// finished by the time it returns.
	Stop() error
}

func halfPeriod(bufferSize, sampleRate int) time.Duration {
	return time.Duration(bufferSize/2) * time.Second / time.Duration(sampleRate)
}
