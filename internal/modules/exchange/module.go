package exchange

import (
	"go.uber.org/fx"

	"signal_scanner/internal/modules/config"
	"signal_scanner/internal/modules/exchange/service"
	scanner "signal_scanner/internal/modules/scanner/service"
)

func Module() fx.Option {
	return fx.Module("exchange",
		fx.Provide(NewDataSource),
	)
}

// NewDataSource picks the REST client named by exchange.name.
func NewDataSource(cfg *config.Config) scanner.DataSource {
	o := service.Options{
		BaseURL:      cfg.Exchange.BaseURL,
		Timeout:      cfg.Exchange.Timeout,
		Retries:      cfg.Exchange.Retries,
		RetryBackoff: cfg.Exchange.RetryBackoff,
	}
	if cfg.Exchange.Name == "mexc" {
		return service.NewMexcClient(o)
	}
	return service.NewOKXClient(o)
}
