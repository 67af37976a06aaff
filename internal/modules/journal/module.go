package journal

import (
	"context"

	"go.uber.org/fx"

	"signal_scanner/internal/modules/journal/service"
	scanner "signal_scanner/internal/modules/scanner/service"
	"signal_scanner/pkg/db"
	"signal_scanner/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(NewJournal),
	)
}

// NewJournal persists passes when the postgres module supplied a transaction manager.
func NewJournal(lc fx.Lifecycle, tx db.TxManager) scanner.Journal {
	if tx == nil {
		logger.Info("journal: db_dsn not set, passes are not persisted")
		return scanner.NopJournal{}
	}
	j := service.NewJournal(tx)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return j.Migrate(ctx)
		},
	})
	return j
}
