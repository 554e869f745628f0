package saga

import "github.com/prometheus/client_golang/prometheus"

// Attempt outcomes, used as the outcome label.
const (
	OutcomeCommitted          = "committed"
	OutcomeCancelled          = "cancelled"
	OutcomeFailed             = "failed"
	OutcomeCompensationFailed = "compensation_failed"
)

// Metrics counts placement attempts by outcome and compensations by the
// step that triggered them. A nil *Metrics records nothing.
type Metrics struct {
	attempts      *prometheus.CounterVec
	compensations *prometheus.CounterVec
}

// NewMetrics registers the saga counters with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "padd_saga_attempts_total",
				Help: "Order placement attempts by terminal outcome",
			},
			[]string{"outcome"},
		),
		compensations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "padd_saga_compensations_total",
				Help: "Cancel-hold compensations by failed step",
			},
			[]string{"step"},
		),
	}
	for _, c := range []prometheus.Collector{m.attempts, m.compensations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) outcome(o string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(o).Inc()
}

func (m *Metrics) compensated(step Step) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(string(step)).Inc()
}
