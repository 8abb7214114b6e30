package playback

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// AdvancedMockWavePlayer is a configurable WavePlayer test double, grounded
// on the AdvancedMockTTSProvider pattern: an embedded testify mock.Mock,
// functional MockOptions, and explicit accessors instead of sleep-based
// synchronization.
type AdvancedMockWavePlayer struct {
	mock.Mock
	mu      sync.Mutex
	fed     [][]byte
	stopped bool
	feedErr error
}

// MockOption configures an AdvancedMockWavePlayer.
type MockOption func(*AdvancedMockWavePlayer)

// WithFeedError makes every Feed call return err.
func WithFeedError(err error) MockOption {
	return func(m *AdvancedMockWavePlayer) { m.feedErr = err }
}

// NewAdvancedMockWavePlayer creates a mock WavePlayer with the given
// options applied.
func NewAdvancedMockWavePlayer(opts ...MockOption) *AdvancedMockWavePlayer {
	m := &AdvancedMockWavePlayer{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Feed records chunk (copied, since the caller retains ownership of its
// backing array) and returns the configured error, if any.
func (m *AdvancedMockWavePlayer) Feed(ctx context.Context, chunk []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	m.fed = append(m.fed, cp)
	return m.feedErr
}

// Stop marks the mock stopped.
func (m *AdvancedMockWavePlayer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return nil
}

// FedChunks returns every chunk passed to Feed, in call order.
func (m *AdvancedMockWavePlayer) FedChunks() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.fed))
	copy(out, m.fed)
	return out
}

// Stopped reports whether Stop has been called.
func (m *AdvancedMockWavePlayer) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}
