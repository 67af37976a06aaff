package service

import (
	"context"
	"fmt"

	"signal_scanner/internal/indicator"
	"signal_scanner/internal/models"
)

const (
	marketFastEMA = 20
	marketSlowEMA = 50
	marketRSI     = 14
	marketPivot   = 50
)

type MarketOptions struct {
	Enabled   bool
	Reference string
	Timeframe string
	Bars      int
}

// MarketProvider classifies the reference asset once per pass.
type MarketProvider struct {
	source DataSource
	opts   MarketOptions
}

func NewMarketProvider(source DataSource, opts MarketOptions) *MarketProvider {
	return &MarketProvider{source: source, opts: opts}
}

// MarketContext always returns a usable context: on failure it is Neutral and err says why.
func (m *MarketProvider) MarketContext(ctx context.Context) (models.MarketContext, error) {
	neutral := models.NeutralMarket(m.opts.Reference, m.opts.Timeframe)
	if !m.opts.Enabled {
		return neutral, nil
	}

	s, err := m.source.GetCandles(ctx, m.opts.Reference, m.opts.Timeframe, m.opts.Bars)
	if err != nil {
		return neutral, fmt.Errorf("market %s: %w: %w", m.opts.Reference, models.ErrDataUnavailable, err)
	}

	set := indicator.NewSet(s)
	fast, err := set.LastEMA(marketFastEMA)
	if err != nil {
		return neutral, fmt.Errorf("market %s: %w", m.opts.Reference, err)
	}
	slow, err := set.LastEMA(marketSlowEMA)
	if err != nil {
		return neutral, fmt.Errorf("market %s: %w", m.opts.Reference, err)
	}
	rsi, err := set.LastRSI(marketRSI)
	if err != nil {
		return neutral, fmt.Errorf("market %s: %w", m.opts.Reference, err)
	}
	last, _ := s.Last()

	return models.MarketContext{
		Reference: m.opts.Reference,
		Timeframe: m.opts.Timeframe,
		State:     ClassifyMarket(fast, slow, rsi),
		FastEMA:   fast,
		SlowEMA:   slow,
		RSI:       rsi,
		At:        last.OpenTime,
	}, nil
}

func ClassifyMarket(fast, slow, rsi float64) models.MarketState {
	switch {
	case fast > slow && rsi > marketPivot:
		return models.MarketStrong
	case fast < slow && rsi < marketPivot:
		return models.MarketWeak
	}
	return models.MarketNeutral
}
