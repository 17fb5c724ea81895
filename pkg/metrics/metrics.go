package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "api_http_requests_total", Help: "HTTP requests"},
		[]string{"method", "path", "status"},
	)
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "intake_submissions_total", Help: "Intake submissions by surface and outcome"},
		[]string{"surface", "outcome"},
	)
	MailFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "intake_mail_failures_total", Help: "Failed transactional email sends"},
		[]string{"kind"},
	)
	EventsPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "intake_events_published_total", Help: "Captured events published to queue"},
	)
	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "intake_rate_limited_total", Help: "Requests rejected by the rate limiter"},
	)
)

func init() {
	prometheus.MustRegister(
		APIRequestsTotal, APIRequestDuration,
		SubmissionsTotal, MailFailuresTotal, EventsPublishedTotal, RateLimitedTotal,
	)
}

func Handler() http.Handler { return promhttp.Handler() }
