package infra

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultAcquired  = "acquired"
	resultCancelled = "cancelled"
	resultRejected  = "rejected"
)

// Metrics contém os coletores Prometheus do gate.
// Todos os métodos aceitam receiver nil (métricas desligadas).
type Metrics struct {
	acquires  *prometheus.CounterVec
	available prometheus.Gauge
	refills   prometheus.Counter
	wait      prometheus.Histogram
}

// NewMetrics registra os coletores em reg. Com reg nil nada é registrado,
// o que é útil em testes.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		acquires: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "submitter_gate_acquire_total",
				Help: "Total number of permit acquisitions by result",
			},
			[]string{"result"},
		),
		available: f.NewGauge(prometheus.GaugeOpts{
			Name: "submitter_gate_available_permits",
			Help: "Permits currently available in the gate",
		}),
		refills: f.NewCounter(prometheus.CounterOpts{
			Name: "submitter_gate_refills_total",
			Help: "Total number of refill ticks",
		}),
		wait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "submitter_gate_acquire_wait_seconds",
			Help:    "Time callers spent waiting for a permit",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs a ~26s
		}),
	}
}

func (m *Metrics) observeAcquire(result string, wait time.Duration) {
	if m == nil {
		return
	}
	m.acquires.WithLabelValues(result).Inc()
	if result == resultAcquired {
		m.wait.Observe(wait.Seconds())
	}
}

func (m *Metrics) setAvailable(n int) {
	if m == nil {
		return
	}
	m.available.Set(float64(n))
}

func (m *Metrics) refilled(available int) {
	if m == nil {
		return
	}
	m.refills.Inc()
	m.available.Set(float64(available))
}
