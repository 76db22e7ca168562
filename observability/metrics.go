// Package observability exposes the prometheus collectors of the server.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chat_hub"

// Event results
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
)

// Delivery results
const (
	DeliveryDelivered = "delivered"
	DeliveryClosed    = "closed"
	DeliverySlow      = "slow"
	DeliveryEncode    = "encode_error"
)

// Dropped frame reasons
const (
	DropNonText     = "non_text"
	DropDecode      = "decode"
	DropRateLimited = "rate_limited"
)

type Metrics struct {
	registry *prometheus.Registry

	ActiveSessions  prometheus.Gauge
	EventsTotal     *prometheus.CounterVec
	EventDuration   *prometheus.HistogramVec
	DeliveriesTotal *prometheus.CounterVec
	FramesDropped   *prometheus.CounterVec
	RequestsTotal   *prometheus.CounterVec
	ProcessRSS      prometheus.Gauge
	ProcessCPU      prometheus.Gauge
	Goroutines      prometheus.Gauge
}

// NewMetrics registers every collector on a dedicated registry so several
// servers can live in one process, as tests do.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live websocket sessions",
		}),
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound events handled by the router",
		}, []string{"kind", "result"}),
		EventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_duration_seconds",
			Help:      "Time spent routing and fanning out one inbound event",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		DeliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Outbound frames handed to session sinks",
		}, []string{"result"}),
		FramesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Inbound frames discarded before routing",
		}, []string{"reason"}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		ProcessRSS: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_resident_memory_bytes",
			Help:      "Resident set size of the server process",
		}),
		ProcessCPU: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_cpu_percent",
			Help:      "CPU usage of the server process",
		}),
		Goroutines: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "goroutines",
			Help:      "Number of goroutines sampled by the process stats worker",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
