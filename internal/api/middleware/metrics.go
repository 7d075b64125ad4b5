package middleware

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors on a private registry.
type Metrics struct {
	Registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	avatarWaits *prometheus.CounterVec
	softFails   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spaces",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "spaces",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
		avatarWaits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spaces",
			Name:      "avatar_upload_waits_total",
			Help:      "Avatar upload waits by final state.",
		}, []string{"state"}),
		softFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spaces",
			Name:      "procedure_soft_failures_total",
			Help:      "Procedures that answered success=false.",
		}, []string{"procedure"}),
	}

	m.Registry.MustRegister(
		m.requests,
		m.duration,
		m.avatarWaits,
		m.softFails,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Instrument counts and times requests to route.
func (m *Metrics) Instrument(route string) func(http.HandlerFunc) http.HandlerFunc {
	labels := prometheus.Labels{"route": route}
	requests := m.requests.MustCurryWith(labels)
	duration := m.duration.MustCurryWith(labels)

	return func(next http.HandlerFunc) http.HandlerFunc {
		h := promhttp.InstrumentHandlerDuration(duration, promhttp.InstrumentHandlerCounter(requests, next))
		return h.ServeHTTP
	}
}

func (m *Metrics) AvatarWait(state string) {
	if m == nil {
		return
	}
	m.avatarWaits.WithLabelValues(state).Inc()
}

func (m *Metrics) SoftFailure(procedure string) {
	if m == nil {
		return
	}
	m.softFails.WithLabelValues(procedure).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
