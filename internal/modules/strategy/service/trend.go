package service

import (
	"fmt"
	"math"

	"signal_scanner/internal/anomaly"
	"signal_scanner/internal/indicator"
	"signal_scanner/internal/models"
)

// evaluateTrend is the single-timeframe swing stage. Liquidity, gap and volume gates
// reject the instrument with a skip reason before any direction is considered.
func (e *Evaluator) evaluateTrend(instID string, s models.Series, market models.MarketContext) (Evaluation, error) {
	p := e.p
	t := p.Trend
	if need := p.MinTrendBars(); s.Len() < need {
		return Evaluation{}, fmt.Errorf("%s %s: %w: %d bars, need %d",
			instID, p.PrimaryTF, models.ErrInsufficientHistory, s.Len(), need)
	}

	set := indicator.NewSet(s)
	closes := set.Closes()
	last := len(closes) - 1

	if set.Turnovers()[last] < t.MinTurnover {
		return Evaluation{Skip: models.SkipLowLiquidity}, nil
	}
	gap := closes[last]/(closes[last-1]+models.Epsilon) - 1
	if t.MaxGap > 0 && math.Abs(gap) > t.MaxGap {
		return Evaluation{Skip: models.SkipPriceGap}, nil
	}

	vol, err := anomaly.Detect(set.Turnovers(), t.VolumeWindow)
	if err != nil {
		return Evaluation{}, err
	}
	volOK := anomaly.Thresholds{Ratio: t.VolumeRatio, Z: t.VolumeZ, Ramp: t.VolumeRamp}.Exceeded(vol)
	bos := TrendNone
	if t.BreakoutLookback > 0 {
		bos = breakOfStructure(s, t.BreakoutLookback, t.BreakoutExclude)
	}
	if !volOK && bos == TrendNone {
		return Evaluation{Skip: models.SkipNoVolume}, nil
	}

	fast, err := set.LastEMA(p.FastEMA)
	if err != nil {
		return Evaluation{}, err
	}
	slow, err := set.LastEMA(p.SlowEMA)
	if err != nil {
		return Evaluation{}, err
	}
	rsi, err := set.LastRSI(p.RSIPeriod)
	if err != nil {
		return Evaluation{}, err
	}
	adx, err := set.LastADX(p.ADXPeriod)
	if err != nil {
		return Evaluation{}, err
	}
	macdSide := 0
	if t.RequireMACD {
		m, err := set.MACD()
		if err != nil {
			return Evaluation{}, err
		}
		macdSide = m.Crossed(last)
	}

	var side Trend
	switch {
	case fast > slow && rsi > t.RSIBuy:
		side = TrendUp
	case fast <= slow && rsi < t.RSISell:
		if t.SellNeedsDownBar && closes[last] >= closes[last-1] {
			return Evaluation{}, nil
		}
		side = TrendDown
	default:
		return Evaluation{}, nil
	}

	if adx < t.MinADX {
		return Evaluation{}, nil
	}
	if !volOK && bos != side {
		return Evaluation{}, nil
	}
	if t.RequireMACD && macdSide != direction(side) {
		return Evaluation{}, nil
	}
	if t.MarketGate && marketAgainst(market.State, side) {
		return Evaluation{}, nil
	}

	cat := models.CategoryTrendBuy
	if side == TrendDown {
		cat = models.CategoryTrendSell
	}
	w := t.Weights
	ev := models.Evidence{
		{Name: "rsi", Value: rsi},
		{Name: "v_ratio", Value: vol.Ratio},
		{Name: "z", Value: vol.Z},
		{Name: "ramp", Value: vol.Ramp},
		{Name: "adx", Value: adx},
	}
	if t.BreakoutLookback > 0 {
		ev = append(ev, models.Metric{Name: "bos", Value: float64(direction(bos))})
	}
	ev = append(ev, models.Metric{Name: "close", Value: closes[last]})

	return Evaluation{Results: []models.SignalResult{{
		InstID:   instID,
		Category: cat,
		Score:    w.Score(vol.Ratio, 0, math.Abs(rsi-w.RSIPivot), adx),
		Evidence: ev,
	}}}, nil
}

// breakOfStructure compares the last close with the extremes of the `look` bars that end
// `exclude` bars before it.
func breakOfStructure(s models.Series, look, exclude int) Trend {
	highs, lows := s.Highs(), s.Lows()
	end := len(highs) - exclude
	if end <= 0 {
		return TrendNone
	}
	start := max(0, end-look)
	_, hh := minMax(highs[start:end])
	ll, _ := minMax(lows[start:end])

	c := s.Candles[len(s.Candles)-1].Close
	switch {
	case c > hh:
		return TrendUp
	case c < ll:
		return TrendDown
	}
	return TrendNone
}

func direction(t Trend) int {
	switch t {
	case TrendUp:
		return 1
	case TrendDown:
		return -1
	}
	return 0
}

func marketAgainst(state models.MarketState, side Trend) bool {
	if side == TrendUp {
		return state == models.MarketWeak
	}
	return state == models.MarketStrong
}
