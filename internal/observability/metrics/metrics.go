// Package metrics exposes prometheus instruments for the engine.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics instruments inbound HTTP traffic.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP instruments on the default registry.
func NewHTTPMetrics() (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "royalty_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "royalty_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return nil, err
		}
	}
	return m, nil
}

// GinMiddleware records request counts and latency.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.requests.WithLabelValues(route, method, status).Inc()
		m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

// EngineMetrics counts domain-level events.
type EngineMetrics struct {
	reportsProcessed *prometheus.CounterVec
	discrepancies    prometheus.Counter
	overlapConflicts prometheus.Counter
	inferenceCalls   *prometheus.CounterVec
}

// NewEngineMetrics registers the engine instruments on the default registry.
func NewEngineMetrics() (*EngineMetrics, error) {
	m := &EngineMetrics{
		reportsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "royalty_reports_processed_total",
			Help: "Sales reports processed, by outcome.",
		}, []string{"outcome"}),
		discrepancies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "royalty_discrepancies_total",
			Help: "Periods committed with a reporting discrepancy.",
		}),
		overlapConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "royalty_overlap_conflicts_total",
			Help: "Commits rejected by the period overlap guard.",
		}),
		inferenceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "royalty_inference_calls_total",
			Help: "External inference calls, by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.reportsProcessed, m.discrepancies, m.overlapConflicts, m.inferenceCalls} {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return nil, err
		}
	}
	return m, nil
}

func (m *EngineMetrics) RecordReportProcessed(outcome string) {
	if m == nil {
		return
	}
	m.reportsProcessed.WithLabelValues(strings.TrimSpace(outcome)).Inc()
}

func (m *EngineMetrics) RecordDiscrepancy() {
	if m == nil {
		return
	}
	m.discrepancies.Inc()
}

func (m *EngineMetrics) RecordOverlapConflict() {
	if m == nil {
		return
	}
	m.overlapConflicts.Inc()
}

func (m *EngineMetrics) RecordInferenceCall(outcome string) {
	if m == nil {
		return
	}
	m.inferenceCalls.WithLabelValues(strings.TrimSpace(outcome)).Inc()
}
