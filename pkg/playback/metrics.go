package playback

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/pd360/onecoretts/o11y"
)

// metrics holds the OTel instruments recording playback-feed latency and
// malformed-marker occurrences, grounded on o11y/meter.go's
// instrument-registration pattern.
type metrics struct {
	feedDuration    metric.Float64Histogram
	invalidMarkers  metric.Int64Counter
}

func newMetrics() *metrics {
	meter := o11y.Meter()
	m := &metrics{}

	m.feedDuration, _ = meter.Float64Histogram(
		"onecoretts.playback.feed.duration",
		metric.WithDescription("Duration of WavePlayer.Feed calls"),
		metric.WithUnit("ms"),
	)
	m.invalidMarkers, _ = meter.Int64Counter(
		"onecoretts.playback.invalid_markers.total",
		metric.WithDescription("Number of callback invocations with a malformed marker string"),
	)
	return m
}

// startFeed starts timing a Feed call and returns a func to stop it and
// record the histogram observation.
func (m *metrics) startFeed(ctx context.Context) func() {
	start := time.Now()
	return func() {
		if m.feedDuration != nil {
			m.feedDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000.0)
		}
	}
}

func (m *metrics) recordInvalidMarkers(ctx context.Context) {
	if m.invalidMarkers != nil {
		m.invalidMarkers.Add(ctx, 1)
	}
}
