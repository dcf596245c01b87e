// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wellness"

// Recorder groups the API's collectors.
type Recorder struct {
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	booked          prometheus.Counter
	rateLimited     prometheus.Counter
	lookupsNotFound *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		booked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_booked_total",
			Help:      "Appointments created.",
		}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
		lookupsNotFound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_not_found_total",
			Help:      "Identifier lookups that resolved to no user, by route.",
		}, []string{"route"}),
	}
}

// ObserveRequest records one finished HTTP request.
func (r *Recorder) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// AppointmentBooked counts a created appointment.
func (r *Recorder) AppointmentBooked() {
	if r == nil {
		return
	}
	r.booked.Inc()
}

// RateLimited counts a rejected request.
func (r *Recorder) RateLimited() {
	if r == nil {
		return
	}
	r.rateLimited.Inc()
}

// LookupNotFound counts an unresolved identifier on route.
func (r *Recorder) LookupNotFound(route string) {
	if r == nil {
		return
	}
	r.lookupsNotFound.WithLabelValues(route).Inc()
}
