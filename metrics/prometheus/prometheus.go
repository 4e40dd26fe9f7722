package prometheus

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/brettbedarf/webfiles/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	shared     *fileMetrics
	sharedOnce sync.Once
)

// fileMetrics is the Prometheus implementation of metrics.Metrics.
type fileMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	bytesTransferred *prometheus.CounterVec
	eventsTotal      *prometheus.CounterVec
}

// NewMetrics creates a Prometheus-backed Metrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry not called).
// Collectors are registered once; later calls share them.
func NewMetrics() metrics.Metrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopMetrics()
	}
	sharedOnce.Do(func() {
		shared = newMetrics(metrics.GetRegistry())
	})
	return shared
}

func newMetrics(reg prometheus.Registerer) *fileMetrics {
	return &fileMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "webfiles_requests_total",
				Help: "Total number of HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "webfiles_request_duration_milliseconds",
				Help: "Duration of HTTP requests in milliseconds",
				Buckets: []float64{
					1,    // 1ms
					10,   // 10ms
					100,  // 100ms
					1000, // 1s
				},
			},
			[]string{"route"},
		),
		requestsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "webfiles_requests_in_flight",
				Help: "Current number of requests being processed",
			},
			[]string{"route"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "webfiles_bytes_transferred_total",
				Help: "Total content bytes written or read",
			},
			[]string{"route", "direction"},
		),
		eventsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "webfiles_file_events_total",
				Help: "Total file notification events by kind",
			},
			[]string{"kind"},
		),
	}
}

func (m *fileMetrics) RecordRequest(route string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(float64(duration.Microseconds()) / 1000)
}

func (m *fileMetrics) RecordBytes(route, direction string, n int) {
	m.bytesTransferred.WithLabelValues(route, direction).Add(float64(n))
}

func (m *fileMetrics) RecordEvent(kind string) {
	m.eventsTotal.WithLabelValues(kind).Inc()
}

func (m *fileMetrics) RecordInFlight(route string, delta int) {
	m.requestsInFlight.WithLabelValues(route).Add(float64(delta))
}

// Handler serves the global registry, or 404s when metrics are disabled.
func Handler() http.Handler {
	reg := metrics.GetRegistry()
	if reg == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
