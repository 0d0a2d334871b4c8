// Package metrics exposes counters for the persistence and sync paths. The
// registry is per-instance so tests never share state.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	SyncOps       *prometheus.CounterVec
	SnapshotSaves *prometheus.CounterVec
	Rollovers     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SyncOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rutina_sync_ops_total",
			Help: "Remote gateway calls by table, operation and outcome.",
		}, []string{"table", "op", "status"}),
		SnapshotSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rutina_snapshot_saves_total",
			Help: "Local snapshot writes by outcome.",
		}, []string{"status"}),
		Rollovers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rutina_rollovers_total",
			Help: "Daily rollovers processed.",
		}),
	}
	m.registry.MustRegister(m.SyncOps, m.SnapshotSaves, m.Rollovers)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
