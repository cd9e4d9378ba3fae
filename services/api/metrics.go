package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starcat_http_requests_total",
		Help: "HTTP requests served, by method and status code.",
	}, []string{"code", "method"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "starcat_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"code", "method"})

	alertsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "starcat_alerts_ingested_total",
		Help: "Alerts accepted by the ingest endpoint.",
	})
)

func instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerDuration(requestDuration,
		promhttp.InstrumentHandlerCounter(requestsTotal, next))
}
