package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"golang.org/x/sync/errgroup"

	"signal_scanner/internal/models"
	strategy "signal_scanner/internal/modules/strategy/service"
	"signal_scanner/pkg/logger"
	"signal_scanner/pkg/tracing"
)

const deliveryTimeout = 30 * time.Second

type Options struct {
	Quote       string
	Concurrency int
	PassTimeout time.Duration
}

// Scanner runs scan passes: list the universe, fan out over it with a bounded pool,
// aggregate typed outcomes in universe order, then report.
type Scanner struct {
	source   DataSource
	notifier Notifier
	journal  Journal
	market   MarketContextProvider
	metrics  Recorder
	opts     Options

	now   func() time.Time
	newID func() string
}

func NewScanner(source DataSource, notifier Notifier, journal Journal, market MarketContextProvider, metrics Recorder, opts Options) *Scanner {
	if journal == nil {
		journal = NopJournal{}
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Scanner{
		source:   source,
		notifier: notifier,
		journal:  journal,
		market:   market,
		metrics:  metrics,
		opts:     opts,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Run executes one pass of profile p. The only error it returns is a failure to list the
// universe, which is also sent to the notifier once.
func (s *Scanner) Run(ctx context.Context, p models.Profile) (*models.ScanReport, error) {
	started := s.now()
	passID := s.newID()

	span, ctx := tracing.StartSpan(ctx, "scanner.pass", opentracing.Tags{"profile": p.Name, "pass_id": passID})
	defer span.Finish()

	passCtx := ctx
	if s.opts.PassTimeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, s.opts.PassTimeout)
		defer cancel()
	}

	universe, err := s.source.ListInstruments(passCtx, s.opts.Quote, p.MinVolume24h)
	if err != nil {
		err = fmt.Errorf("%w: list instruments: %w", models.ErrUpstreamUnreachable, err)
		tracing.Fail(span, err)
		logger.Error("[%s] pass %s aborted: %v", p.Name, passID, err)
		s.deliver(ctx, RenderFailure(p, err))
		return nil, err
	}
	if p.UniverseSize > 0 && len(universe) > p.UniverseSize {
		universe = universe[:p.UniverseSize]
	}

	mc := models.NeutralMarket("", "")
	if s.market != nil {
		mc, err = s.market.MarketContext(passCtx)
		if err != nil {
			logger.Warn("[%s] market context degraded to %s: %v", p.Name, mc.State, err)
		}
	}

	engine := strategy.NewEngine(p)
	outcomes := s.sweep(passCtx, engine, universe, mc)

	report := models.NewScanReport(passID, p.Name, started)
	report.Title = Title(p)
	report.Scanned = len(universe)
	report.Market = mc
	for _, o := range outcomes {
		report.Add(o)
		s.metrics.InstrumentDone(p.Name, o.Status, o.SkipReason)
		if o.Status == models.OutcomeFailed {
			logger.Warn("[%s] %s failed: %v", p.Name, o.InstID, o.Err)
		}
	}
	report.Finalize(p.MaxPerCategory)
	report.Duration = s.now().Sub(started)
	s.metrics.PassFinished(p.Name, report.Duration, report.Partial)

	span.SetTag("scanned", report.Scanned)
	span.SetTag("partial", report.Partial)

	if report.Empty() {
		logger.Info("[%s] pass %s: no signal (scanned=%d evaluated=%d took=%s)",
			p.Name, passID, report.Scanned, report.Evaluated, report.Duration)
		return report, nil
	}

	for _, r := range report.All() {
		s.metrics.SignalEmitted(p.Name, r.Category)
		logger.Debug("[%s] %s %s score=%d %s", p.Name, r.Category, r.InstID, r.Score, r.Evidence.String())
	}
	logger.Info("[%s] pass %s: %d signals (scanned=%d evaluated=%d partial=%t took=%s)",
		p.Name, passID, len(report.All()), report.Scanned, report.Evaluated, report.Partial, report.Duration)

	s.deliver(ctx, Render(report, p))
	s.record(ctx, report)
	return report, nil
}

// sweep evaluates the universe with at most opts.Concurrency instruments in flight. Each
// worker writes only its own slot, so the result keeps universe order.
func (s *Scanner) sweep(ctx context.Context, engine strategy.Engine, universe []string, mc models.MarketContext) []models.InstrumentOutcome {
	outcomes := make([]models.InstrumentOutcome, len(universe))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, instID := range universe {
		if ctx.Err() != nil {
			outcomes[i] = skipped(instID, models.SkipDeadline, ctx.Err())
			continue
		}
		g.Go(func() error {
			outcomes[i] = s.evaluate(ctx, engine, instID, mc)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (s *Scanner) evaluate(ctx context.Context, engine strategy.Engine, instID string, mc models.MarketContext) models.InstrumentOutcome {
	if ctx.Err() != nil {
		return skipped(instID, models.SkipDeadline, ctx.Err())
	}

	span, ctx := tracing.StartSpan(ctx, "scanner.instrument", opentracing.Tags{"inst_id": instID})
	defer span.Finish()

	p := engine.Profile()
	primary, err := s.source.GetCandles(ctx, instID, p.PrimaryTF, p.PrimaryBars)
	if err != nil {
		return fetchFailed(ctx, instID, err)
	}
	var secondary models.Series
	if p.Kind == models.ProfileIntraday {
		secondary, err = s.source.GetCandles(ctx, instID, p.SecondaryTF, p.SecondaryBars)
		if err != nil {
			return fetchFailed(ctx, instID, err)
		}
	}

	ev, err := engine.Evaluate(instID, primary, secondary, mc)
	switch {
	case errors.Is(err, models.ErrInsufficientHistory):
		return skipped(instID, models.SkipInsufficientHistory, err)
	case err != nil:
		tracing.Fail(span, err)
		return models.InstrumentOutcome{InstID: instID, Status: models.OutcomeFailed, Err: err}
	case ev.Skip != models.SkipNone:
		span.SetTag("skip", string(ev.Skip))
		return skipped(instID, ev.Skip, nil)
	}
	return models.InstrumentOutcome{InstID: instID, Status: models.OutcomeEvaluated, Results: ev.Results}
}

func fetchFailed(ctx context.Context, instID string, err error) models.InstrumentOutcome {
	if ctx.Err() != nil {
		return skipped(instID, models.SkipDeadline, err)
	}
	logger.Debug("%s: fetch failed: %v", instID, err)
	return skipped(instID, models.SkipDataUnavailable, fmt.Errorf("%w: %w", models.ErrDataUnavailable, err))
}

func skipped(instID string, reason models.SkipReason, err error) models.InstrumentOutcome {
	return models.InstrumentOutcome{InstID: instID, Status: models.OutcomeSkipped, SkipReason: reason, Err: err}
}

// deliver is best-effort: delivery errors are logged and never retried.
func (s *Scanner) deliver(ctx context.Context, text string) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()
	if err := s.notifier.Notify(ctx, text); err != nil {
		logger.Error("notify: %v", err)
	}
}

func (s *Scanner) record(ctx context.Context, report *models.ScanReport) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()
	if err := s.journal.Record(ctx, report); err != nil {
		logger.Error("journal pass %s: %v", report.PassID, err)
	}
}
