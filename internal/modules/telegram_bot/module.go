package telegram

import (
	"go.uber.org/fx"

	"signal_scanner/internal/modules/config"
	scanner "signal_scanner/internal/modules/scanner/service"
	"signal_scanner/internal/modules/telegram_bot/service"
	"signal_scanner/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(NewNotifier),
	)
}

// NewNotifier falls back to logging reports when no bot is configured or it cannot authorize.
func NewNotifier(cfg *config.Config) scanner.Notifier {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		logger.Warn("telegram: token or chat_id not set, reports go to the log")
		return service.NewStdout()
	}
	tg, err := service.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		logger.Error("telegram: %v, reports go to the log", err)
		return service.NewStdout()
	}
	return tg
}
