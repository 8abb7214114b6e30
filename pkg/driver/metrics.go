package driver

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/pd360/onecoretts/o11y"
)

// metrics holds the OTel instruments covering DriverCore's state-machine
// transitions, grounded on o11y/meter.go's instrument-registration pattern
// and pkg/playback/metrics.go's per-package instrument set.
type metrics struct {
	spoken     metric.Int64Counter
	cancelled  metric.Int64Counter
	queued     metric.Int64Counter
	queueDepth metric.Int64UpDownCounter
	speakSpan  metric.Float64Histogram
}

func newMetrics() *metrics {
	meter := o11y.Meter()
	m := &metrics{}

	m.spoken, _ = meter.Int64Counter(
		"onecoretts.driver.utterances_spoken.total",
		metric.WithDescription("Utterances submitted to the engine"),
	)
	m.cancelled, _ = meter.Int64Counter(
		"onecoretts.driver.utterances_cancelled.total",
		metric.WithDescription("Utterances affected by a Cancel call"),
	)
	m.queued, _ = meter.Int64Counter(
		"onecoretts.driver.utterances_queued.total",
		metric.WithDescription("Utterances appended to the pending queue because an utterance was already in flight"),
	)
	m.queueDepth, _ = meter.Int64UpDownCounter(
		"onecoretts.driver.pending_queue.depth",
		metric.WithDescription("Current length of the pending SSML queue"),
	)
	m.speakSpan, _ = meter.Float64Histogram(
		"onecoretts.driver.speak.duration",
		metric.WithDescription("Duration of the synchronous portion of Speak, including conversion"),
		metric.WithUnit("ms"),
	)
	return m
}

func (m *metrics) recordSpoken(ctx context.Context) {
	if m.spoken != nil {
		m.spoken.Add(ctx, 1)
	}
}

func (m *metrics) recordCancelled(ctx context.Context) {
	if m.cancelled != nil {
		m.cancelled.Add(ctx, 1)
	}
}

func (m *metrics) recordQueued(ctx context.Context) {
	if m.queued != nil {
		m.queued.Add(ctx, 1)
	}
	if m.queueDepth != nil {
		m.queueDepth.Add(ctx, 1)
	}
}

func (m *metrics) recordDequeued(ctx context.Context) {
	if m.queueDepth != nil {
		m.queueDepth.Add(ctx, -1)
	}
}

func (m *metrics) recordQueueCleared(ctx context.Context, n int) {
	if n > 0 && m.queueDepth != nil {
		m.queueDepth.Add(ctx, -int64(n))
	}
}

// speakTimer starts timing the synchronous portion of Speak and returns a
// func to stop it and record the histogram observation.
func (m *metrics) speakTimer(ctx context.Context) func() {
	start := time.Now()
	return func() {
		if m.speakSpan != nil {
			m.speakSpan.Record(ctx, float64(time.Since(start).Microseconds())/1000.0)
		}
	}
}
