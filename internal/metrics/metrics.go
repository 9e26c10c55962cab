package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	MediaOperations *prometheus.CounterVec
	CleanupFailures *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidtube_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vidtube_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		MediaOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidtube_media_operations_total",
			Help: "Media host calls by operation, resource type and result.",
		}, []string{"operation", "resource_type", "result"}),
		CleanupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidtube_asset_cleanup_failures_total",
			Help: "Remote assets that could not be removed, by operation.",
		}, []string{"operation"}),
	}

	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.MediaOperations, m.CleanupFailures)
	return m
}
