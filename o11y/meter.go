package o11y

import (
	"context"

	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// meter is the package-level OTel meter used by package-level instrument
// constructors. Individual packages (pkg/ssml, pkg/playback, pkg/driver)
// build their own named instruments from this meter rather than sharing a
// single fixed instrument set, since the driver's metrics surface is
// domain-specific rather than the teacher's fixed GenAI token/cost set.
var meter metric.Meter

func init() {
	meter = otel.Meter("github.com/pd360/onecoretts")
}

// InitMeter configures the package-level meter with the given service name.
// Call this after installing an OTel MeterProvider (e.g. via
// InitPrometheusMeter); if never called the package falls back to the
// no-op global meter.
func InitMeter(serviceName string) {
	meter = otel.Meter(serviceName)
}

// Meter returns the package-level meter for building custom instruments.
func Meter() metric.Meter {
	return meter
}

// InitPrometheusMeter installs a Prometheus-backed global MeterProvider and
// points the package-level meter at it, grounded on the
// promexporter.New()/sdkmetric.NewMeterProvider(WithReader) wiring pattern
// used for OTel-to-Prometheus bridging. The exporter self-registers its
// collector with the default Prometheus registry; pkg/monitor exposes it
// by mounting promhttp.Handler() at /metrics. Returns a shutdown func to
// flush the provider on process exit.
func InitPrometheusMeter(serviceName string) (func(context.Context) error, error) {
	exp, err := promexporter.New()
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless())
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exp),
	)
	otel.SetMeterProvider(mp)
	InitMeter(serviceName)
	return mp.Shutdown, nil
}
