package playback

import (
	"context"

	"github.com/pd360/onecoretts/o11y"
)

// Observer receives the side effects of a single Deliver call: whether the
// caller has cancelled, where to report the index most recently reached,
// and the utterance-complete hook. It is implemented by the driver's
// internal worker state (see pkg/driver) so Pipeline itself carries no
// knowledge of DriverCore's state machine.
type Observer interface {
	// WasCancelled reports whether cancellation has been requested for the
	// utterance currently in flight. Checked before every feed.
	WasCancelled() bool

	// SetLastIndex records the most recently reached marker name.
	SetLastIndex(name uint32)

	// OnUtteranceEnd is invoked exactly once per Deliver call, regardless
	// of whether the utterance completed normally or was cancelled.
	OnUtteranceEnd()
}

// Pipeline owns PCM feeding, marker-synchronized index reporting, and
// cancellation handling for a single engine callback invocation.
type Pipeline struct {
	cfg    Config
	player WavePlayer
	m      *metrics
}

// NewPipeline creates a Pipeline that feeds player using the given audio
// format.
func NewPipeline(cfg Config, player WavePlayer) *Pipeline {
	return &Pipeline{cfg: cfg, player: player, m: newMetrics()}
}

// Deliver processes one callback invocation: (raw, markersString). raw is
// the full buffer as received from the engine, header included; markers is
// the "name:pos|..." string, or empty. Deliver never returns an error to
// its caller — malformed marker strings and player errors are logged and
// recovered from internally, matching the engine-callback contract that no
// fault may propagate out (see onEngineCallback in pkg/driver/driver.go).
func (p *Pipeline) Deliver(ctx context.Context, raw []byte, markersString string, obs Observer) {
	ctx, span := o11y.StartSpan(ctx, "playback.Deliver", o11y.Attrs{"bytes": len(raw)})
	defer span.End()
	defer obs.OnUtteranceEnd()

	data := p.stripHeader(raw)

	markers, err := ParseMarkers(markersString)
	if err != nil {
		o11y.FromContext(ctx).Error(ctx, "invalid marker string, feeding buffer as one chunk",
			"error", err, "markers", markersString)
		p.m.recordInvalidMarkers(ctx)
		if !obs.WasCancelled() {
			p.feed(ctx, data)
		}
		return
	}

	p.feedMarkers(ctx, data, markers, obs)
}

func (p *Pipeline) stripHeader(raw []byte) []byte {
	if len(raw) > p.cfg.HeaderBytes {
		return raw[p.cfg.HeaderBytes:]
	}
	return nil
}

func (p *Pipeline) feedMarkers(ctx context.Context, data []byte, markers []Marker, obs Observer) {
	bytesPerSecond := p.cfg.BytesPerSecond()
	var prevPos int64
	var prevMarker *uint32
	cancelled := false

	for _, marker := range markers {
		if obs.WasCancelled() {
			cancelled = true
			break
		}
		end := clamp(ByteOffset(marker.Offset, bytesPerSecond), int64(len(data)))
		start := clamp(prevPos, int64(len(data)))
		p.feed(ctx, data[start:end])
		if prevMarker != nil {
			obs.SetLastIndex(*prevMarker)
		}
		name := marker.Name
		prevMarker = &name
		prevPos = end
	}

	if !cancelled && !obs.WasCancelled() {
		start := clamp(prevPos, int64(len(data)))
		p.feed(ctx, data[start:])
		if prevMarker != nil {
			obs.SetLastIndex(*prevMarker)
		}
	}
}

func (p *Pipeline) feed(ctx context.Context, chunk []byte) {
	stop := p.m.startFeed(ctx)
	if err := p.player.Feed(ctx, chunk); err != nil {
		o11y.FromContext(ctx).Warn(ctx, "wave player feed failed", "error", err, "bytes", len(chunk))
	}
	stop()
}

// clamp bounds x to [0, max], matching the recommended policy for markers
// whose computed byte offset exceeds the delivered payload length.
func clamp(x, max int64) int64 {
	if x < 0 {
		return 0
	}
	if x > max {
		return max
	}
	return x
}
