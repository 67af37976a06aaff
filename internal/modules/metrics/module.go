package metrics

import (
	"go.uber.org/fx"

	"signal_scanner/internal/modules/metrics/service"
	scanner "signal_scanner/internal/modules/scanner/service"
)

func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(
			service.NewMetrics,
			func(m *service.Metrics) scanner.Recorder { return m },
		),
	)
}
