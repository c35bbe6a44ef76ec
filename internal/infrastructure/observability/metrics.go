package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry          *prometheus.Registry
	ActiveSessions    prometheus.Gauge
	ConnectedClients  prometheus.Gauge
	CommandsPublished *prometheus.CounterVec
	FramesDropped     prometheus.Counter
	SessionEvictions  prometheus.Counter
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pdfsync",
			Name:      "active_sessions",
			Help:      "Number of sessions currently in the registry",
		}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pdfsync",
			Name:      "connected_clients",
			Help:      "Number of open push channels",
		}),
		CommandsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfsync",
			Name:      "commands_published_total",
			Help:      "Total commands broadcast, by command type",
		}, []string{"type"}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdfsync",
			Name:      "frames_dropped_total",
			Help:      "Total frames dropped for slow clients during fan-out",
		}),
		SessionEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdfsync",
			Name:      "session_evictions_total",
			Help:      "Total idle sessions removed by the sweep",
		}),
	}
	r.MustRegister(m.ActiveSessions, m.ConnectedClients, m.CommandsPublished, m.FramesDropped, m.SessionEvictions)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
