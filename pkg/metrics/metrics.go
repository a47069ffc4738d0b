// Package metrics holds the Prometheus collectors updated by the relay and
// served by the exporter.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "netconflogger"

type Metrics struct {
	registry *prometheus.Registry

	received  *prometheus.CounterVec
	malformed prometheus.Counter
	forwarded *prometheus.CounterVec
	statuses  *prometheus.CounterVec
	duration  prometheus.Histogram
	up        prometheus.Gauge
}

// New registers the relay collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Device events received by the relay, by kind.",
		}, []string{"kind"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_malformed_total",
			Help:      "Device events whose text could not be parsed.",
		}),
		forwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forward_total",
			Help:      "Forwarding attempts, by result.",
		}, []string{"result"}),
		statuses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forward_status_total",
			Help:      "HTTP status codes returned by the collector.",
		}, []string{"code"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forward_duration_seconds",
			Help:      "Time spent posting a record to the collector.",
			Buckets:   prometheus.DefBuckets,
		}),
		up: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collector_up",
			Help:      "Whether the last collector reachability probe succeeded.",
		}),
	}

	m.registry.MustRegister(m.received, m.malformed, m.forwarded, m.statuses, m.duration, m.up)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MustRegister adds extra collectors, such as a StructCollector, to the
// registry served by the exporter.
func (m *Metrics) MustRegister(cs ...prometheus.Collector) {
	m.registry.MustRegister(cs...)
}

func (m *Metrics) EventReceived(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.received.WithLabelValues(kind).Inc()
}

func (m *Metrics) EventMalformed() {
	m.malformed.Inc()
}

// ForwardObserved records one forwarding attempt. status is zero when no
// response was received.
func (m *Metrics) ForwardObserved(result string, status int, elapsed time.Duration) {
	m.forwarded.WithLabelValues(result).Inc()
	if status > 0 {
		m.statuses.WithLabelValues(strconv.Itoa(status)).Inc()
	}
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) CollectorUp(up bool) {
	if up {
		m.up.Set(1)
		return
	}
	m.up.Set(0)
}
