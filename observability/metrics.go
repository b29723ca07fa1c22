package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ProtocolMetrics tracks engine operation counts segmented by module,
// operation and outcome.
type ProtocolMetrics struct {
	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
}

var (
	protocolMetricsOnce sync.Once
	protocolRegistry    *ProtocolMetrics
)

// Metrics returns the lazily-initialised protocol metrics registry.
func Metrics() *ProtocolMetrics {
	protocolMetricsOnce.Do(func() {
		protocolRegistry = &ProtocolMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nftlend",
				Subsystem: "protocol",
				Name:      "operations_total",
				Help:      "Total protocol operations segmented by module, operation, and outcome.",
			}, []string{"module", "operation", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nftlend",
				Subsystem: "protocol",
				Name:      "errors_total",
				Help:      "Total failed protocol operations segmented by module and operation.",
			}, []string{"module", "operation"}),
		}
	})
	return protocolRegistry
}

// Register attaches the collectors to the provided registry. Passing nil uses
// the default prometheus registerer.
func (m *ProtocolMetrics) Register(reg prometheus.Registerer) error {
	if m == nil {
		return nil
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, collector := range []prometheus.Collector{m.operations, m.errors} {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// Observe records one operation outcome.
func (m *ProtocolMetrics) Observe(module, operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.errors.WithLabelValues(module, operation).Inc()
	}
	m.operations.WithLabelValues(module, operation, outcome).Inc()
}
