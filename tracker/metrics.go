package tracker

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/todoledger/sdk-go/tracker/event"
)

// Metrics exports lifecycle counters. Register it on a Bus with SubscribeAll(m.Observe).
type Metrics struct {
	events  *prometheus.CounterVec
	records prometheus.Gauge
	gasUsed prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// skips registration.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "todoledger",
			Subsystem: "tracker",
			Name:      "events_total",
			Help:      "Lifecycle events emitted, by type.",
		}, []string{"type"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "todoledger",
			Subsystem: "tracker",
			Name:      "records",
			Help:      "Records in the last refreshed view.",
		}),
		gasUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "todoledger",
			Subsystem: "tracker",
			Name:      "gas_used_total",
			Help:      "Gas consumed by mined transactions.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.events, m.records, m.gasUsed} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Observe is an event.Handler.
func (m *Metrics) Observe(_ context.Context, e event.Event) {
	m.events.WithLabelValues(string(e.Type)).Inc()
	switch e.Type {
	case event.RecordsRefreshed:
		if n, ok := e.Data[event.KeyCount].(int); ok {
			m.records.Set(float64(n))
		}
	case event.Confirmed, event.Reverted:
		if gas, ok := e.Data[event.KeyGasUsed].(uint64); ok {
			m.gasUsed.Add(float64(gas))
		}
	}
}
