package service

import (
	"context"
	"time"

	"signal_scanner/internal/models"
)

// DataSource lists the instrument universe and serves candle history oldest -> newest.
type DataSource interface {
	ListInstruments(ctx context.Context, quote string, minVolume float64) ([]string, error)
	GetCandles(ctx context.Context, instID, timeframe string, count int) (models.Series, error)
}

// Notifier delivers a rendered report. Delivery is best-effort and at most once.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Journal interface {
	Record(ctx context.Context, report *models.ScanReport) error
}

type MarketContextProvider interface {
	MarketContext(ctx context.Context) (models.MarketContext, error)
}

// Recorder receives pass statistics for metrics.
type Recorder interface {
	PassFinished(profile string, d time.Duration, partial bool)
	InstrumentDone(profile string, status models.OutcomeStatus, reason models.SkipReason)
	SignalEmitted(profile string, c models.Category)
}

type NopJournal struct{}

func (NopJournal) Record(context.Context, *models.ScanReport) error { return nil }

type nopRecorder struct{}

func (nopRecorder) PassFinished(string, time.Duration, bool)                       {}
func (nopRecorder) InstrumentDone(string, models.OutcomeStatus, models.SkipReason) {}
func (nopRecorder) SignalEmitted(string, models.Category)                          {}
