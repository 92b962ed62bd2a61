package itemcode

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts allocation outcomes.
type Metrics struct {
	Allocations *prometheus.CounterVec
	Fallbacks   prometheus.Counter
	Rejected    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when reg
// is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "itemcodes",
			Name:      "allocations_total",
			Help:      "Item code allocations by result.",
		}, []string{"result"}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "itemcodes",
			Name:      "existing_codes_fallbacks_total",
			Help:      "Allocations that used the fixed first code because existing codes could not be listed.",
		}),
		Rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "itemcodes",
			Name:      "prefix_guard_rejections_total",
			Help:      "Prefix resolutions rejected by the depth or cycle guard.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Allocations, m.Fallbacks, m.Rejected)
	}
	return m
}
