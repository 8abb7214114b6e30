package playback

import "context"

// WavePlayer is the contract consumed by Pipeline for audible output. Feed
// blocks until the previously fed chunk has started draining (a one-chunk
// lookahead); this blocking discipline is what lets the off-by-one
// lastIndex alignment in Pipeline.Deliver reflect what the listener is
// actually hearing at the moment each Feed call returns. Stop discards any
// queued audio and unblocks an in-flight Feed promptly.
type WavePlayer interface {
	// Feed appends chunk to the playback queue. It blocks until the
	// previously fed chunk has started draining.
	Feed(ctx context.Context, chunk []byte) error

	// Stop discards queued audio and unblocks any pending Feed call.
	Stop() error
}

// Config describes the fixed audio format produced by the engine callback
// and consumed by the wave player.
type Config struct {
	// Channels is the channel count; the driver's engine always produces
	// mono audio.
	Channels int

	// SampleRate is in Hz, nominally 22050.
	SampleRate int

	// BitsPerSample is the sample bit depth, nominally 16.
	BitsPerSample int

	// OutputDevice names the platform output device, or "" for the system
	// default.
	OutputDevice string

	// HeaderBytes is the fixed-length preamble stripped from every
	// callback buffer before feeding, nominally 44.
	HeaderBytes int
}

// BytesPerSample returns the sample size in bytes.
func (c Config) BytesPerSample() int {
	return c.BitsPerSample / 8
}

// BytesPerSecond returns sampleRate * bytesPerSample, the conversion factor
// from 100-ns marker offsets to byte offsets (mono; BitsPerSample/8).
func (c Config) BytesPerSecond() int64 {
	return int64(c.SampleRate) * int64(c.BytesPerSample())
}

// DefaultConfig returns the nominal OneCore audio format: mono, 22050 Hz,
// 16-bit, 44-byte header.
func DefaultConfig() Config {
	return Config{
		Channels:      1,
		SampleRate:    22050,
		BitsPerSample: 16,
		HeaderBytes:   44,
	}
}
