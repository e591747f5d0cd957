// Package audio defines the sample buffer passed between decoders,
// DSPs, outputs, and analyzers.
package audio

// Buffer holds a block of decoded stereo samples. Samples follow the
// beep convention: one [2]float64 per frame, values in [-1, 1].
type Buffer struct {
	Samples    [][2]float64
	SampleRate int
	Channels   int
}

// NewBuffer allocates a buffer of the given frame capacity.
func NewBuffer(frames, sampleRate, channels int) *Buffer {
	return &Buffer{
		Samples:    make([][2]float64, frames),
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	return len(b.Samples)
}

// Clone returns an independent copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	samples := make([][2]float64, len(b.Samples))
	copy(samples, b.Samples)
	return &Buffer{Samples: samples, SampleRate: b.SampleRate, Channels: b.Channels}
}
