package terrain

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the renderer's Prometheus instruments. They are registered on
// the registerer given to NewMetrics, never on the default registry.
type Metrics struct {
	LoadedRegions   prometheus.Gauge
	VisibleRegions  *prometheus.GaugeVec
	EncodedQuads    prometheus.Counter
	MeshJobs        *prometheus.CounterVec
	EvictedRegions  prometheus.Counter
	TraversalTime   *prometheus.HistogramVec
	PendingMeshJobs prometheus.Gauge
}

// NewMetrics creates and registers the instruments. A nil registerer leaves
// them unregistered, which is what tests and headless runs usually want.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		LoadedRegions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "canvas",
			Subsystem: "terrain",
			Name:      "loaded_regions",
			Help:      "Regions currently held by the region storage.",
		}),
		VisibleRegions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "canvas",
			Subsystem: "terrain",
			Name:      "visible_regions",
			Help:      "Drawable regions found by the last traversal of each pass.",
		}, []string{"pass"}),
		EncodedQuads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "canvas",
			Subsystem: "terrain",
			Name:      "encoded_quads_total",
			Help:      "Quads encoded by finished mesh builds.",
		}),
		MeshJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "canvas",
			Subsystem: "terrain",
			Name:      "mesh_jobs_total",
			Help:      "Mesh jobs by outcome: submitted, dropped, completed, stale or failed.",
		}, []string{"outcome"}),
		EvictedRegions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "canvas",
			Subsystem: "terrain",
			Name:      "evicted_regions_total",
			Help:      "Regions closed for leaving the evict radius.",
		}),
		TraversalTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "canvas",
			Subsystem: "terrain",
			Name:      "traversal_seconds",
			Help:      "Wall time of one visibility traversal.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}, []string{"pass"}),
		PendingMeshJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "canvas",
			Subsystem: "terrain",
			Name:      "pending_mesh_jobs",
			Help:      "Mesh jobs submitted and not yet applied.",
		}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.LoadedRegions,
		m.VisibleRegions,
		m.EncodedQuads,
		m.MeshJobs,
		m.EvictedRegions,
		m.TraversalTime,
		m.PendingMeshJobs,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
