package metrics

import (
	"net/http"
	"time"

	"github.com/flowbaker/stickerzip/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stickerzip"

// Collector implements domain.PipelineMetrics on its own Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	itemsDownloaded prometheus.Counter
	archiveSize     prometheus.Histogram
	cleanupFailures prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Sticker set requests by outcome",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from an inbound message to the final reply",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"outcome"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_flight",
			Help:      "Requests currently being processed",
		}),
		itemsDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_downloaded_total",
			Help:      "Stickers written to scratch workspaces",
		}),
		archiveSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_size_bytes",
			Help:      "Size of delivered archives",
			Buckets:   prometheus.ExponentialBuckets(64*1024, 2, 10),
		}),
		cleanupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_failures_total",
			Help:      "Workspaces or archives that could not be removed",
		}),
	}

	reg.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.inFlight,
		c.itemsDownloaded,
		c.archiveSize,
		c.cleanupFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) IncInFlight() {
	c.inFlight.Inc()
}

func (c *Collector) DecInFlight() {
	c.inFlight.Dec()
}

func (c *Collector) ObserveRequest(outcome domain.PipelineOutcome, duration time.Duration) {
	c.requestsTotal.WithLabelValues(string(outcome)).Inc()
	c.requestDuration.WithLabelValues(string(outcome)).Observe(duration.Seconds())
}

func (c *Collector) AddItemsDownloaded(count int) {
	if count > 0 {
		c.itemsDownloaded.Add(float64(count))
	}
}

func (c *Collector) ObserveArchiveSize(sizeInBytes int64) {
	c.archiveSize.Observe(float64(sizeInBytes))
}

func (c *Collector) IncCleanupFailures() {
	c.cleanupFailures.Inc()
}
