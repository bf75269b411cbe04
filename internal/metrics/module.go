package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/polkiloo/agristar/internal/adapter/mpesa"
)

// Module provides the metrics registry and recorders.
var Module = fx.Options(
	fx.Provide(
		NewRegistry,
		func(reg *prometheus.Registry) *Metrics { return New(reg) },
		func(m *Metrics) mpesa.Observer { return m },
	),
)
