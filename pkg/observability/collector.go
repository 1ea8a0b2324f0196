// Package observability bundles the Prometheus metrics of the dashboard: upstream
// fetch counts and latencies, in-flight fetches, discarded stale responses, and
// view cache sizes.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type Collector struct {
	gatherer prometheus.Gatherer

	FetchRequests  *prometheus.CounterVec
	FetchDurations *prometheus.HistogramVec
	FetchInFlight  prometheus.Gauge
	StaleDiscarded *prometheus.CounterVec

	CachedPlatforms    prometheus.Gauge
	CachedDetails      prometheus.Gauge
	CachedRecordSeries prometheus.Gauge
}

// NewCollector registers the dashboard metrics against reg, defaulting to the
// global Prometheus registry when nil. Registering twice against the same
// registry hands back the collectors registered first.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_fetch_requests_total",
		Help: "Upstream telemetry API calls, labeled by operation and outcome.",
	}, []string{"operation", "outcome"}), "dashboard_fetch_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_fetch_duration_seconds",
		Help:    "Upstream telemetry API latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"operation"}), "dashboard_fetch_duration_seconds")
	if err != nil {
		return nil, err
	}

	inFlight, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_fetch_in_flight",
		Help: "Fetches dispatched by the synchronizer that have not settled yet.",
	}), "dashboard_fetch_in_flight")
	if err != nil {
		return nil, err
	}

	stale, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_stale_responses_total",
		Help: "Responses dropped because the view cache was reset while they were in flight.",
	}, []string{"operation"}), "dashboard_stale_responses_total")
	if err != nil {
		return nil, err
	}

	platforms, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_cached_platforms",
		Help: "Platforms currently held in the view cache.",
	}), "dashboard_cached_platforms")
	if err != nil {
		return nil, err
	}

	details, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_cached_platform_details",
		Help: "Platforms whose detail (sensors) is held in the view cache.",
	}), "dashboard_cached_platform_details")
	if err != nil {
		return nil, err
	}

	series, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_cached_record_series",
		Help: "Sensor record series currently held in the view cache.",
	}), "dashboard_cached_record_series")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:           gatherer,
		FetchRequests:      requests,
		FetchDurations:     durations,
		FetchInFlight:      inFlight,
		StaleDiscarded:     stale,
		CachedPlatforms:    platforms,
		CachedDetails:      details,
		CachedRecordSeries: series,
	}, nil
}

// ObserveFetch records one finished upstream call. Safe on a nil collector.
func (c *Collector) ObserveFetch(operation string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	c.FetchRequests.WithLabelValues(operation, outcome).Inc()
	c.FetchDurations.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (c *Collector) FetchStarted() {
	if c == nil {
		return
	}
	c.FetchInFlight.Inc()
}

func (c *Collector) FetchSettled() {
	if c == nil {
		return
	}
	c.FetchInFlight.Dec()
}

func (c *Collector) Discarded(operation string) {
	if c == nil {
		return
	}
	c.StaleDiscarded.WithLabelValues(operation).Inc()
}

func (c *Collector) SetCacheSizes(platforms, details, recordSeries int) {
	if c == nil {
		return
	}
	c.CachedPlatforms.Set(float64(platforms))
	c.CachedDetails.Set(float64(details))
	c.CachedRecordSeries.Set(float64(recordSeries))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C, name string) (C, error) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			var zero C
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero C
		return zero, err
	}
	return collector, nil
}
