package synth

import "fmt"

// RingBuffer is a circular buffer of integer observations, used to keep the
// most recent refill durations in nanoseconds.
type RingBuffer struct {
	data  []int64
	head  int
	size  int
	count int
}

// NewRingBuffer returns a new RingBuffer.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		data: make([]int64, size),
		head: 0,
		size: size,
	}
}

// Insert inserts the new value into the buffer and advances the head.
func (b *RingBuffer) Insert(val int64) {
	b.data[b.head] = val
	b.head = (b.head + 1) % b.size
	if b.count < b.size {
		b.count++
	}
}

// Len returns how many slots hold observations.
func (b *RingBuffer) Len() int {
	return b.count
}

// Get returns the value at index relative to the oldest observation.
func (b *RingBuffer) Get(index int) int64 {
	start := b.head - b.count
	if start < 0 {
		start += b.size
	}
	return b.data[(start+index)%b.size]
}

// Average returns the mean of the stored observations.
func (b *RingBuffer) Average() (float64, error) {
	if b.size < 1 {
		return 0, fmt.Errorf("buffer has bad size < 1: %d", b.size)
	}
	if b.count == 0 {
		return 0, nil
	}

	var sum int64
	for i := range b.count {
		sum += b.Get(i)
	}

	return float64(sum) / float64(b.count), nil
}

// Max returns the largest stored observation, or 0 when empty.
func (b *RingBuffer) Max() int64 {
	var m int64
	for i := range b.count {
		m = max(m, b.Get(i))
	}
	return m
}
