package scanner

import (
	"context"

	"go.uber.org/fx"

	"signal_scanner/internal/modules/config"
	"signal_scanner/internal/modules/scanner/service"
	"signal_scanner/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("scanner",
		fx.Provide(
			newOptions,
			newMarketProvider,
			service.NewScanner,
			newScheduler,
		),
	)
}

func newOptions(cfg *config.Config) service.Options {
	return service.Options{
		Quote:       cfg.Exchange.Quote,
		Concurrency: cfg.Scan.Concurrency,
		PassTimeout: cfg.Scan.PassTimeout,
	}
}

func newMarketProvider(cfg *config.Config, source service.DataSource) service.MarketContextProvider {
	return service.NewMarketProvider(source, service.MarketOptions{
		Enabled:   cfg.Market.Enabled,
		Reference: cfg.Market.Reference,
		Timeframe: cfg.Market.Timeframe,
		Bars:      cfg.Market.Bars,
	})
}

func newScheduler(cfg *config.Config, sc *service.Scanner) (*service.Scheduler, error) {
	jobs := make([]service.Job, 0, len(cfg.Schedule))
	for _, j := range cfg.Schedule {
		p, err := cfg.Profile(j.Profile)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, service.Job{Profile: p, Every: j.Every, Cron: j.Cron})
	}
	return service.NewScheduler(sc, jobs)
}

// RunScheduled ties the scheduler to the application lifecycle.
func RunScheduled(lc fx.Lifecycle, s *service.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.Stop()
			return nil
		},
	})
}

// RunOnce runs a single pass of the named profile after start, then shuts the app down.
func RunOnce(profile string) any {
	return func(lc fx.Lifecycle, cfg *config.Config, sc *service.Scanner, sd fx.Shutdowner) error {
		p, err := cfg.Profile(profile)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					code := 0
					if _, err := sc.Run(ctx, p); err != nil {
						logger.Error("[%s] pass failed: %v", p.Name, err)
						code = 1
					}
					_ = sd.Shutdown(fx.ExitCode(code))
				}()
				return nil
			},
			OnStop: func(context.Context) error {
				cancel()
				return nil
			},
		})
		return nil
	}
}
