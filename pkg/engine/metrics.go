package engine

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts directives processed by the engine. A nil *Metrics
// records nothing.
type Metrics struct {
	directives *prometheus.CounterVec
	dropped    *prometheus.CounterVec
	faces      prometheus.Counter
}

// NewMetrics creates the engine counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		directives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ribcore",
			Name:      "directives_total",
			Help:      "Scene directives evaluated, by directive name.",
		}, []string{"directive"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ribcore",
			Name:      "directives_dropped_total",
			Help:      "Scene directives dropped, by directive name and failure class.",
		}, []string{"directive", "reason"}),
		faces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ribcore",
			Name:      "mesh_faces_total",
			Help:      "Faces in successfully decoded meshes.",
		}),
	}
	reg.MustRegister(m.directives, m.dropped, m.faces)
	return m
}

func (m *Metrics) directive(name string) {
	if m == nil {
		return
	}
	m.directives.WithLabelValues(name).Inc()
}

func (m *Metrics) drop(name, reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(name, reason).Inc()
}

func (m *Metrics) decoded(faces int) {
	if m == nil {
		return
	}
	m.faces.Add(float64(faces))
}
