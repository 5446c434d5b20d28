package light

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "light"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of verifications, labelled by outcome ("ok" or the error kind).
	Verifications metrics.Counter
	// Time spent verifying one header, in seconds.
	VerificationDuration metrics.Histogram
	// Height of the latest header that passed verification.
	LatestTrustedHeight metrics.Gauge
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		Verifications: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "verifications",
			Help:      "Number of header verifications, by outcome.",
		}, append(labels, "outcome")).With(labelsAndValues...),
		VerificationDuration: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "verification_duration_seconds",
			Help:      "Time spent verifying a header.",
			Buckets:   stdprometheus.ExponentialBuckets(0.0001, 2, 16),
		}, labels).With(labelsAndValues...),
		LatestTrustedHeight: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "latest_trusted_height",
			Help:      "Height of the latest verified header.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Verifications:        discard.NewCounter(),
		VerificationDuration: discard.NewHistogram(),
		LatestTrustedHeight:  discard.NewGauge(),
	}
}
