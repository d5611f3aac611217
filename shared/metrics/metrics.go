package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics of the social service.
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	authOutcomes   *prometheus.CounterVec
	feedLatency    *prometheus.HistogramVec
	eventPublished *prometheus.CounterVec
	eventDropped   *prometheus.CounterVec
	eventFailed    *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobfeed_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobfeed_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobfeed_auth_outcomes_total",
			Help: "Authentication attempts by flow and outcome.",
		}, []string{"flow", "outcome"}),
		feedLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobfeed_feed_query_duration_seconds",
			Help:    "Feed assembly latency by feed kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"feed"}),
		eventPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobfeed_events_published_total",
			Help: "Events accepted by the notification bus.",
		}, []string{"event"}),
		eventDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobfeed_events_dropped_total",
			Help: "Events dropped because the bus buffer was full or the bus was stopped.",
		}, []string{"event"}),
		eventFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobfeed_events_failed_total",
			Help: "Events whose subscriber returned an error.",
		}, []string{"event"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.authOutcomes,
		c.feedLatency,
		c.eventPublished,
		c.eventDropped,
		c.eventFailed,
	)

	return c
}

func (c *Collector) RecordAuthOutcome(flow, outcome string) {
	c.authOutcomes.WithLabelValues(flow, outcome).Inc()
}

func (c *Collector) RecordFeedLatency(feed string, duration time.Duration) {
	c.feedLatency.WithLabelValues(feed).Observe(duration.Seconds())
}

func (c *Collector) RecordEventPublished(event string) {
	c.eventPublished.WithLabelValues(event).Inc()
}

func (c *Collector) RecordEventDropped(event string) {
	c.eventDropped.WithLabelValues(event).Inc()
}

func (c *Collector) RecordEventFailed(event string) {
	c.eventFailed.WithLabelValues(event).Inc()
}

// Middleware records request count and latency labelled by the matched chi
// route pattern, so path parameters do not explode label cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		c.httpLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
