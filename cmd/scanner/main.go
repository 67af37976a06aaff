package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"signal_scanner/internal/modules/config"
	"signal_scanner/internal/modules/exchange"
	"signal_scanner/internal/modules/health"
	"signal_scanner/internal/modules/journal"
	"signal_scanner/internal/modules/metrics"
	"signal_scanner/internal/modules/postgres"
	"signal_scanner/internal/modules/scanner"
	telegram "signal_scanner/internal/modules/telegram_bot"
	"signal_scanner/pkg/logger"
	"signal_scanner/pkg/tracing"
)

func main() {
	once := flag.Bool("once", false, "run a single pass of -profile and exit")
	profile := flag.String("profile", "intraday", "profile to run with -once")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger.SetServiceName(cfg.Service.Name)
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	tracing.SetServiceName(cfg.Service.Name)
	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		logger.Fatal("init tracer: %v", err)
	}
	defer closeTracer()

	run := fx.Invoke(scanner.RunScheduled)
	if *once {
		run = fx.Invoke(scanner.RunOnce(*profile))
	}

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.L()}
		}),
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(cfg),
		metrics.Module(),
		health.Module(),
		exchange.Module(),
		telegram.Module(),
		postgres.Module(),
		journal.Module(),
		scanner.Module(),
		run,
	)
	app.Run()
}
