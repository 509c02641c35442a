// Package observability holds the process-wide Prometheus collectors.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Aggregation outcomes
const (
	OutcomeFulfilled  = "fulfilled"
	OutcomeRejected   = "rejected"
	OutcomeSuperseded = "superseded"
)

var (
	aggregationsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hrzones",
		Subsystem: "aggregation",
		Name:      "requests_total",
		Help:      "Zone aggregation requests by outcome.",
	}, []string{"outcome"})
	samplesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hrzones",
		Subsystem: "aggregation",
		Name:      "samples_total",
		Help:      "Heart-rate samples seen by the aggregator, by classification.",
	}, []string{"class"})
	fetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hrzones",
		Subsystem: "source",
		Name:      "fetch_duration_seconds",
		Help:      "Time spent fetching activities from the activity source.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})
	lastRefreshGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "hrzones",
		Subsystem: "cache",
		Name:      "last_refresh_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful cache refresh.",
	})
)

func init() {
	prometheus.MustRegister(aggregationsCounter, samplesCounter, fetchDuration, lastRefreshGauge)
}

// RecordAggregation counts a finished aggregation request.
func RecordAggregation(outcome string) {
	aggregationsCounter.WithLabelValues(outcome).Inc()
}

// RecordSamples counts classified and unclassified samples of one aggregation.
func RecordSamples(classified, unclassified int) {
	samplesCounter.WithLabelValues("classified").Add(float64(classified))
	samplesCounter.WithLabelValues("unclassified").Add(float64(unclassified))
}

// ObserveFetch records how long an activity fetch took.
func ObserveFetch(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	fetchDuration.WithLabelValues(result).Observe(d.Seconds())
}

// RecordRefresh updates the cache refresh watermark gauge.
func RecordRefresh(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastRefreshGauge.Set(float64(ts.Unix()))
}
