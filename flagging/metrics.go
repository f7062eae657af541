package flagging

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/phil-mansfield/enzoref/methods"
)

// Metrics counts flagged cells. A nil *Metrics discards everything.
type Metrics struct {
	Flagged *prometheus.CounterVec
	Passes  prometheus.Counter
}

// NewMetrics creates the flagging counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Flagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "enzoref",
			Name:      "flagged_cells_total",
			Help:      "Cells flagged, by flagging method.",
		}, []string{"method"}),
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "enzoref",
			Name:      "flagging_passes_total",
			Help:      "Grids whose flagging field has been set.",
		}),
	}
	for _, c := range []prometheus.Collector{m.Flagged, m.Passes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeMethod(id methods.ID, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Flagged.WithLabelValues(id.String()).Add(float64(n))
}

func (m *Metrics) observePass() {
	if m == nil {
		return
	}
	m.Passes.Inc()
}
