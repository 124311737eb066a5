package metrics

import (
	"fmt"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Nazarious-ucu/weather-screen/internal/services/weather"
)

const divisor = 100

// Metrics holds Prometheus metric vectors for the weather screen.
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP server metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Domain metrics
	FetchesTotal      *prometheus.CounterVec
	FetchDuration     prometheus.Histogram
	StaleResultsTotal prometheus.Counter
	RefreshRunsTotal  prometheus.Counter
	PublishTotal      *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a private registry.
func NewMetrics(serviceName string) *Metrics {
	namespace := sanitize(serviceName)
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests received",
			},
			[]string{"method", "endpoint", "status_class"},
		),

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Histogram of HTTP request latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "weather_fetches_total",
				Help:      "Completed weather fetches by outcome",
			},
			[]string{"outcome"},
		),

		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "weather_fetch_duration_seconds",
				Help:      "Latency of weather fetches",
				Buckets:   prometheus.DefBuckets,
			},
		),

		StaleResultsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "weather_stale_results_total",
				Help:      "Fetch results dropped because a newer request superseded them",
			},
		),

		RefreshRunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_runs_total",
				Help:      "Scheduled refreshes triggered",
			},
		),

		PublishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "display_updates_published_total",
				Help:      "Display update events published by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.FetchesTotal,
		m.FetchDuration,
		m.StaleResultsTotal,
		m.RefreshRunsTotal,
		m.PublishTotal,
		collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(
				collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/sched/latencies:seconds")},
			),
		),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// HTTPMiddleware returns a Gin middleware to instrument HTTP endpoints.
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		d := time.Since(start)

		m.HTTPRequestsTotal.With(prometheus.Labels{
			"method":       c.Request.Method,
			"endpoint":     c.FullPath(),
			"status_class": getStatusClass(c.Writer.Status()),
		}).Inc()
		m.HTTPRequestDuration.With(prometheus.Labels{
			"method":   c.Request.Method,
			"endpoint": c.FullPath(),
		}).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveFetch(err error, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = weather.ErrorKind(err) + "_error"
	}
	m.FetchesTotal.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) StaleResultDropped() {
	m.StaleResultsTotal.Inc()
}

func (m *Metrics) RefreshTriggered() {
	m.RefreshRunsTotal.Inc()
}

func (m *Metrics) ObservePublish(err error) {
	if err != nil {
		m.PublishTotal.WithLabelValues("error").Inc()
		return
	}
	m.PublishTotal.WithLabelValues("success").Inc()
}

func getStatusClass(code int) string {
	return fmt.Sprintf("%dxx", code/divisor)
}

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func sanitize(name string) string {
	return invalidNameChars.ReplaceAllString(name, "_")
}
