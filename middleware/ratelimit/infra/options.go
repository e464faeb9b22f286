package infra

import "github.com/rs/zerolog"

type gateOptions struct {
	logger  zerolog.Logger
	metrics *Metrics
}

// GateOption configura RateGate e TokenBucketGate.
type GateOption func(*gateOptions)

func WithLogger(l zerolog.Logger) GateOption {
	return func(o *gateOptions) { o.logger = l }
}

// WithMetrics liga o gate aos coletores Prometheus. nil desliga.
func WithMetrics(m *Metrics) GateOption {
	return func(o *gateOptions) { o.metrics = m }
}

func newGateOptions(opts []GateOption) gateOptions {
	o := gateOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
