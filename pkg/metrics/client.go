package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics records backend calls issued by the HTTP client wrapper.
type RequestMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewRequestMetrics registers the request metrics on the provided registerer.
func NewRequestMetrics(reg prometheus.Registerer) *RequestMetrics {
	if reg == nil {
		return &RequestMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backend_request_duration_seconds",
		Help:    "Duration of backend API requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_request_success_total",
		Help: "Backend API requests that returned a 2xx response.",
	}, []string{"method", "route"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_request_failure_total",
		Help: "Backend API requests that failed, by error code.",
	}, []string{"method", "route", "code"})
	reg.MustRegister(duration, success, failure)
	return &RequestMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// Observe records one completed request.
func (m *RequestMetrics) Observe(method, route string, elapsed time.Duration, code string) {
	if m == nil || m.duration == nil {
		return
	}
	route = normalizeLabel(route)
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
	if code == "" {
		m.success.WithLabelValues(method, route).Inc()
		return
	}
	m.failure.WithLabelValues(method, route, code).Inc()
}

// FeedMetrics counts page fetches per feed.
type FeedMetrics struct {
	pages    *prometheus.CounterVec
	failures *prometheus.CounterVec
	resets   *prometheus.CounterVec
}

// NewFeedMetrics registers the feed metrics on the provided registerer.
func NewFeedMetrics(reg prometheus.Registerer) *FeedMetrics {
	if reg == nil {
		return &FeedMetrics{}
	}
	pages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_pages_fetched_total",
		Help: "Feed pages fetched successfully.",
	}, []string{"feed"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_page_failures_total",
		Help: "Feed page fetches that failed.",
	}, []string{"feed"})
	resets := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_resets_total",
		Help: "Feed hard resets caused by criteria changes or invalidation.",
	}, []string{"feed"})
	reg.MustRegister(pages, failures, resets)
	return &FeedMetrics{pages: pages, failures: failures, resets: resets}
}

func (f *FeedMetrics) IncPage(feed string) {
	if f == nil || f.pages == nil {
		return
	}
	f.pages.WithLabelValues(normalizeLabel(feed)).Inc()
}

func (f *FeedMetrics) IncFailure(feed string) {
	if f == nil || f.failures == nil {
		return
	}
	f.failures.WithLabelValues(normalizeLabel(feed)).Inc()
}

func (f *FeedMetrics) IncReset(feed string) {
	if f == nil || f.resets == nil {
		return
	}
	f.resets.WithLabelValues(normalizeLabel(feed)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
