package playback

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingObserver logs every call in order so tests can assert the
// off-by-one feed/lastIndex alignment the spec requires.
type recordingObserver struct {
	events    []string
	cancelled bool
}

func (o *recordingObserver) WasCancelled() bool { return o.cancelled }

func (o *recordingObserver) SetLastIndex(name uint32) {
	o.events = append(o.events, fmt.Sprintf("lastIndex=%d", name))
}

func (o *recordingObserver) OnUtteranceEnd() {
	o.events = append(o.events, "utteranceEnd")
}

func bytesOfLen(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestDeliver_BoundaryLen44_SingleZeroLengthFeed(t *testing.T) {
	player := NewAdvancedMockWavePlayer()
	p := NewPipeline(DefaultConfig(), player)
	obs := &recordingObserver{}

	p.Deliver(context.Background(), bytesOfLen(44), "", obs)

	fed := player.FedChunks()
	require.Len(t, fed, 1)
	assert.Empty(t, fed[0])
	assert.Equal(t, []string{"utteranceEnd"}, obs.events)
}

func TestDeliver_NoMarkers_SingleFeedOfEntirePayload(t *testing.T) {
	cfg := DefaultConfig()
	payload := 100
	player := NewAdvancedMockWavePlayer()
	p := NewPipeline(cfg, player)
	obs := &recordingObserver{}

	p.Deliver(context.Background(), bytesOfLen(cfg.HeaderBytes+payload), "", obs)

	fed := player.FedChunks()
	require.Len(t, fed, 1)
	assert.Len(t, fed[0], payload)
}

func TestDeliver_MarkerOrdering_OffByOneLastIndex(t *testing.T) {
	cfg := DefaultConfig() // 22050 Hz, 16-bit -> 44100 bytes/sec
	// marker 1 at 5_000_000 (0.5s) -> byte 22050
	// marker 2 at 10_000_000 (1.0s) -> byte 44100
	payload := 44100
	player := NewAdvancedMockWavePlayer()
	p := NewPipeline(cfg, player)
	obs := &recordingObserver{}

	p.Deliver(context.Background(), bytesOfLen(cfg.HeaderBytes+payload), "1:5000000|2:10000000", obs)

	fed := player.FedChunks()
	require.Len(t, fed, 3)
	assert.Len(t, fed[0], 22050)
	assert.Len(t, fed[1], 44100-22050)
	assert.Len(t, fed[2], 0)

	// lastIndex=1 is reported only after the second feed (chunk following
	// marker 1) has been issued, and lastIndex=2 only after the third.
	assert.Equal(t, []string{"lastIndex=1", "lastIndex=2", "utteranceEnd"}, obs.events)
}

func TestDeliver_Scenario6_ClampsOversizedMarkerOffsets(t *testing.T) {
	cfg := DefaultConfig()
	payload := 8820
	player := NewAdvancedMockWavePlayer()
	p := NewPipeline(cfg, player)
	obs := &recordingObserver{}

	p.Deliver(context.Background(), bytesOfLen(cfg.HeaderBytes+payload), "1:5000000|2:10000000", obs)

	fed := player.FedChunks()
	// Every chunk boundary clamps to the delivered payload length; total
	// fed bytes must still cover [0, payload) exactly once, in order.
	total := 0
	for _, chunk := range fed {
		total += len(chunk)
	}
	assert.Equal(t, payload, total)
}

func TestDeliver_Cancellation_StopsFeedingAndSkipsFinalChunk(t *testing.T) {
	cfg := DefaultConfig()
	payload := 44100
	player := NewAdvancedMockWavePlayer()
	p := NewPipeline(cfg, player)
	obs := &recordingObserver{cancelled: true}

	p.Deliver(context.Background(), bytesOfLen(cfg.HeaderBytes+payload), "1:5000000|2:10000000", obs)

	fed := player.FedChunks()
	assert.Empty(t, fed)
	assert.Equal(t, []string{"utteranceEnd"}, obs.events)
}

func TestDeliver_InvalidMarkerString_FeedsWholeBufferAsOneChunk(t *testing.T) {
	cfg := DefaultConfig()
	payload := 100
	player := NewAdvancedMockWavePlayer()
	p := NewPipeline(cfg, player)
	obs := &recordingObserver{}

	p.Deliver(context.Background(), bytesOfLen(cfg.HeaderBytes+payload), "garbage", obs)

	fed := player.FedChunks()
	require.Len(t, fed, 1)
	assert.Len(t, fed[0], payload)
	assert.Equal(t, []string{"utteranceEnd"}, obs.events)
}

func TestDeliver_MarkerAtZero_EmptyLeadingChunk(t *testing.T) {
	cfg := DefaultConfig()
	payload := 100
	player := NewAdvancedMockWavePlayer()
	p := NewPipeline(cfg, player)
	obs := &recordingObserver{}

	p.Deliver(context.Background(), bytesOfLen(cfg.HeaderBytes+payload), "1:0", obs)

	fed := player.FedChunks()
	require.Len(t, fed, 2)
	assert.Empty(t, fed[0])
	assert.Len(t, fed[1], payload)
}

func TestByteOffset(t *testing.T) {
	bps := DefaultConfig().BytesPerSecond()
	assert.Equal(t, int64(22050), ByteOffset(5_000_000, bps))
	assert.Equal(t, int64(44100), ByteOffset(10_000_000, bps))
}

func TestParseMarkers_Empty(t *testing.T) {
	markers, err := ParseMarkers("")
	require.NoError(t, err)
	assert.Empty(t, markers)
}

func TestParseMarkers_Malformed(t *testing.T) {
	_, err := ParseMarkers("1:abc")
	assert.Error(t, err)
}
