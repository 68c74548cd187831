package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors for the API and the batch pipeline.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	batchesSubmittedTotal prometheus.Counter
	batchesPublishedTotal prometheus.Counter
	batchesFailedTotal    *prometheus.CounterVec
	workerCallbacksTotal  *prometheus.CounterVec
	uploadBytes           prometheus.Histogram
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "academy_admin",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "academy_admin",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		batchesSubmittedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "academy_admin",
				Name:      "diploma_batches_submitted_total",
				Help:      "Total number of diploma batch rows created.",
			},
		),
		batchesPublishedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "academy_admin",
				Name:      "diploma_batches_published_total",
				Help:      "Total number of work items handed to the generation queue.",
			},
		),
		batchesFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "academy_admin",
				Name:      "diploma_batches_failed_total",
				Help:      "Total number of batch submissions that failed mid-pipeline, by stage.",
			},
			[]string{"stage"},
		),
		workerCallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "academy_admin",
				Name:      "worker_callbacks_total",
				Help:      "Total number of worker callback updates by outcome.",
			},
			[]string{"outcome"},
		),
		uploadBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "academy_admin",
				Name:      "upload_bytes",
				Help:      "Size of uploaded artifacts in bytes.",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.batchesSubmittedTotal,
		m.batchesPublishedTotal,
		m.batchesFailedTotal,
		m.workerCallbacksTotal,
		m.uploadBytes,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncBatchSubmitted() {
	if m == nil {
		return
	}
	m.batchesSubmittedTotal.Inc()
}

func (m *Metrics) IncBatchPublished() {
	if m == nil {
		return
	}
	m.batchesPublishedTotal.Inc()
}

func (m *Metrics) IncBatchFailed(stage string) {
	if m == nil {
		return
	}
	stageLabel := strings.ToLower(strings.TrimSpace(stage))
	if stageLabel == "" {
		stageLabel = "unknown"
	}
	m.batchesFailedTotal.WithLabelValues(stageLabel).Inc()
}

func (m *Metrics) IncWorkerCallback(outcome string) {
	if m == nil {
		return
	}
	outcomeLabel := strings.ToLower(strings.TrimSpace(outcome))
	if outcomeLabel == "" {
		outcomeLabel = "unknown"
	}
	m.workerCallbacksTotal.WithLabelValues(outcomeLabel).Inc()
}

func (m *Metrics) ObserveUploadBytes(size int) {
	if m == nil {
		return
	}
	if size < 0 {
		size = 0
	}
	m.uploadBytes.Observe(float64(size))
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}
