package service

import (
	"fmt"
	"math"

	"signal_scanner/internal/models"
)

// early flags a first burst of turnover with momentum in an uptrend. Informational only.
func (e *Evaluator) early(f features) (models.SignalResult, bool) {
	c := e.p.Early
	if f.lastTurnover() < c.MinTurnover {
		return models.SignalResult{}, false
	}
	if f.ratio < c.VolumeRatio {
		return models.SignalResult{}, false
	}
	if f.mom < c.MinMomentum {
		return models.SignalResult{}, false
	}
	if !f.trendUp() {
		return models.SignalResult{}, false
	}

	return models.SignalResult{
		InstID:   f.instID,
		Category: models.CategoryEarlyWarning,
		Score:    c.Weights.Score(f.ratio, f.mom, 0, 0),
		Evidence: models.Evidence{
			{Name: "v_ratio", Value: f.ratio},
			{Name: "mom", Value: f.mom},
			{Name: "turnover", Value: f.lastTurnover()},
		},
	}, true
}

// confirm is the spike -> pullback -> re-breakout entry.
func (e *Evaluator) confirm(f features) (models.SignalResult, bool, error) {
	c := e.p.Confirm
	if f.ratio < c.VolumeRatio || f.lastTurnover() < c.MinTurnover {
		return models.SignalResult{}, false, nil
	}
	if !f.trendUp() || f.rsi < c.MinRSI {
		return models.SignalResult{}, false, nil
	}
	if e.p.BlockOnWeakMarket && f.market.State == models.MarketWeak {
		return models.SignalResult{}, false, nil
	}

	spike, ok, err := e.findSpike(f)
	if err != nil || !ok {
		return models.SignalResult{}, false, err
	}

	// closes from the spike bar up to the bar before now
	window := f.closes[spike:f.last]
	spikeClose := f.closes[spike]
	low, high := minMax(window)
	pull := low/(spikeClose+models.Epsilon) - 1
	if pull < -c.PullbackMax || pull > -c.PullbackMin {
		return models.SignalResult{}, false, nil
	}
	if !breaksOut(c.BreakoutPolicy, f.closes[f.last], high, f.closes[f.last-1]) {
		return models.SignalResult{}, false, nil
	}

	return models.SignalResult{
		InstID:   f.instID,
		Category: models.CategoryConfirmedBuy,
		Score:    c.Weights.Score(f.ratio, f.mom, f.rsi-c.Weights.RSIPivot, 0),
		Evidence: models.Evidence{
			{Name: "v_ratio", Value: f.ratio},
			{Name: "pull", Value: pull},
			{Name: "rsi", Value: f.rsi},
			{Name: "mom", Value: f.mom},
			{Name: "spike_ratio", Value: f.ratioAt(spike)},
		},
	}, true, nil
}

// findSpike looks at the spike_lookback bars before the current one for a bar whose own
// volume ratio reaches the early threshold.
func (e *Evaluator) findSpike(f features) (int, bool, error) {
	c := e.p.Confirm
	from := f.last - c.SpikeLookback
	if from < 1 {
		return 0, false, fmt.Errorf("%s: %w: spike lookback %d over %d bars",
			f.instID, models.ErrInsufficientHistory, c.SpikeLookback, len(f.closes))
	}

	spike, found := 0, false
	for k := from; k < f.last; k++ {
		if f.ratioAt(k) < e.p.Early.VolumeRatio {
			continue
		}
		spike, found = k, true
		if c.SpikePolicy != models.SpikeLatest {
			break
		}
	}
	return spike, found, nil
}

func breaksOut(policy models.BreakoutPolicy, now, windowMax, prev float64) bool {
	switch policy {
	case models.BreakoutInclusiveMax:
		return now >= windowMax
	case models.BreakoutPreviousClose:
		return now > prev
	default:
		return now > windowMax
	}
}

// continuation is a hold signal for an already running move, not a fresh entry.
func (e *Evaluator) continuation(f features) (models.SignalResult, bool) {
	c := e.p.Continuation
	if f.rsi < c.MinRSI {
		return models.SignalResult{}, false
	}
	if !f.trendUp() {
		return models.SignalResult{}, false
	}
	if f.ratio < c.VolumeRatio {
		return models.SignalResult{}, false
	}

	return models.SignalResult{
		InstID:   f.instID,
		Category: models.CategoryContinuation,
		Score:    c.Weights.Score(f.ratio, f.mom, f.rsi-c.Weights.RSIPivot, 0),
		Evidence: models.Evidence{
			{Name: "v_ratio", Value: f.ratio},
			{Name: "rsi", Value: f.rsi},
			{Name: "mom", Value: f.mom},
		},
	}, true
}

// sell is the advisory risk flag: downtrend, weak secondary RSI and a multi-bar drop.
func (e *Evaluator) sell(f features) (models.SignalResult, bool, error) {
	c := e.p.Sell
	if !f.trendDown() || f.rsi >= c.MaxRSI {
		return models.SignalResult{}, false, nil
	}
	drop, err := f.series.Return(c.DropBars)
	if err != nil {
		return models.SignalResult{}, false, err
	}
	if drop >= c.MaxDrop {
		return models.SignalResult{}, false, nil
	}

	return models.SignalResult{
		InstID:   f.instID,
		Category: models.CategorySellPressure,
		Score:    c.Weights.Score(0, math.Abs(drop), c.Weights.RSIPivot-f.rsi, 0),
		Evidence: models.Evidence{
			{Name: "drop", Value: drop},
			{Name: "rsi", Value: f.rsi},
		},
	}, true, nil
}

func minMax(xs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}
