// Package metrics exposes Prometheus counters for the HTTP layer and the
// photo workflow.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the service and web layers depend on.
type Recorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
	RecordPhotoStored(bytes int64)
	RecordPhotoDeleted()
}

type Collector struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	photosStored  prometheus.Counter
	photosDeleted prometheus.Counter
	uploadedBytes prometheus.Counter
}

// NewCollector registers the metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clientes_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clientes_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		photosStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clientes_photos_stored_total",
			Help: "Customer photos written to the photo store.",
		}),
		photosDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clientes_photos_deleted_total",
			Help: "Customer photos removed from the photo store.",
		}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clientes_photo_upload_bytes_total",
			Help: "Bytes of photo data accepted for upload.",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.duration,
		c.photosStored,
		c.photosDeleted,
		c.uploadedBytes,
	)

	return c
}

func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordPhotoStored(bytes int64) {
	c.photosStored.Inc()
	c.uploadedBytes.Add(float64(bytes))
}

func (c *Collector) RecordPhotoDeleted() {
	c.photosDeleted.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards everything. Used where no registry is wired.
type Noop struct{}

func (Noop) RecordRequest(string, string, int, time.Duration) {}
func (Noop) RecordPhotoStored(int64)                          {}
func (Noop) RecordPhotoDeleted()                              {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Noop{}
)
