// Package metrics wires OpenTelemetry instruments to a Prometheus registry.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// CaptureBuckets covers page loads, which are orders of magnitude slower than requests.
var CaptureBuckets = []float64{.25, .5, 1, 2.5, 5, 10, 15, 20, 30, 60} //nolint: gochecknoglobals

// NewMeterProvider returns a meter provider exporting to reg. A nil reg means
// prometheus.DefaultRegisterer.
func NewMeterProvider(reg prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)), nil
}

// Scans holds the instruments recorded by the scan pipeline.
type Scans struct {
	// Completed counts scored scans, labeled by verdict.
	Completed metric.Int64Counter
	// CaptureDuration records how long each browser capture took.
	CaptureDuration metric.Float64Histogram
	// CaptureErrors counts captures that ended with at least one capture error.
	CaptureErrors metric.Int64Counter
}

// NewScans creates the scan pipeline instruments on mp.
func NewScans(mp metric.MeterProvider) (*Scans, error) {
	meter := mp.Meter("phishvault")

	completed, err := meter.Int64Counter("phishvault_scans",
		metric.WithDescription("Number of scored scans by verdict."))
	if err != nil {
		return nil, fmt.Errorf("could not create scans counter: %w", err)
	}

	duration, err := meter.Float64Histogram("phishvault_capture_duration",
		metric.WithDescription("Duration of browser captures."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(CaptureBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create capture duration histogram: %w", err)
	}

	captureErrors, err := meter.Int64Counter("phishvault_capture_errors",
		metric.WithDescription("Number of captures that recorded capture errors."))
	if err != nil {
		return nil, fmt.Errorf("could not create capture errors counter: %w", err)
	}

	return &Scans{
		Completed:       completed,
		CaptureDuration: duration,
		CaptureErrors:   captureErrors,
	}, nil
}
