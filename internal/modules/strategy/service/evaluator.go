package service

import (
	"fmt"

	"signal_scanner/internal/anomaly"
	"signal_scanner/internal/indicator"
	"signal_scanner/internal/models"
)

// Evaluator runs the ordered rule stages of one profile. Every stage is a conjunctive gate
// that exits on the first failed check.
type Evaluator struct {
	p models.Profile
}

func NewEvaluator(p models.Profile) *Evaluator {
	return &Evaluator{p: p}
}

func (e *Evaluator) Profile() models.Profile { return e.p }

func (e *Evaluator) Evaluate(instID string, primary, secondary models.Series, market models.MarketContext) (Evaluation, error) {
	if e.p.Kind == models.ProfileTrend {
		return e.evaluateTrend(instID, primary, market)
	}
	return e.evaluateIntraday(instID, primary, secondary, market)
}

// features holds everything the intraday stages share, computed once per call.
type features struct {
	instID   string
	series   models.Series
	closes   []float64
	turnover []float64
	baseline []float64
	last     int

	ratio  float64
	mom    float64
	fast   float64
	slow   float64
	rsi    float64
	market models.MarketContext
}

func (f features) trendUp() bool   { return f.fast > f.slow }
func (f features) trendDown() bool { return f.fast < f.slow }
func (f features) lastTurnover() float64 {
	return f.turnover[f.last]
}

func (e *Evaluator) evaluateIntraday(instID string, primary, secondary models.Series, market models.MarketContext) (Evaluation, error) {
	p := e.p
	if primary.Len() < p.MinPrimaryBars {
		return Evaluation{}, fmt.Errorf("%s %s: %w: %d bars, need %d",
			instID, p.PrimaryTF, models.ErrInsufficientHistory, primary.Len(), p.MinPrimaryBars)
	}
	if secondary.Len() < p.MinSecondaryBars {
		return Evaluation{}, fmt.Errorf("%s %s: %w: %d bars, need %d",
			instID, p.SecondaryTF, models.ErrInsufficientHistory, secondary.Len(), p.MinSecondaryBars)
	}

	f, err := e.features(instID, primary, secondary, market)
	if err != nil {
		return Evaluation{}, err
	}

	var out Evaluation
	early, earlyOK := e.early(f)
	if earlyOK {
		out.Results = append(out.Results, early)
	}

	if earlyOK || !p.GateOnEarly {
		confirmed, ok, err := e.confirm(f)
		if err != nil {
			return Evaluation{}, err
		}
		if ok {
			out.Results = append(out.Results, confirmed)
		}
		if !ok || !p.ContinuationExcludesBuy {
			if cont, ok := e.continuation(f); ok {
				out.Results = append(out.Results, cont)
			}
		}
	}

	sell, ok, err := e.sell(f)
	if err != nil {
		return Evaluation{}, err
	}
	if ok {
		out.Results = append(out.Results, sell)
	}
	return out, nil
}

func (e *Evaluator) features(instID string, primary, secondary models.Series, market models.MarketContext) (features, error) {
	p := e.p
	set := indicator.NewSet(primary)
	f := features{
		instID:   instID,
		series:   primary,
		closes:   set.Closes(),
		turnover: set.Turnovers(),
		last:     primary.Len() - 1,
		market:   market,
	}

	var err error
	if f.baseline, err = set.Baseline(p.BaselineSpan); err != nil {
		return f, err
	}
	if f.fast, err = set.LastEMA(p.FastEMA); err != nil {
		return f, err
	}
	if f.slow, err = set.LastEMA(p.SlowEMA); err != nil {
		return f, err
	}
	if f.mom, err = primary.Return(1); err != nil {
		return f, err
	}
	if f.rsi, err = indicator.NewSet(secondary).LastRSI(p.RSIPeriod); err != nil {
		return f, err
	}
	f.ratio = f.ratioAt(f.last)
	return f, nil
}

// ratioAt compares the turnover of bar k with the baseline of bar k-1.
func (f features) ratioAt(k int) float64 {
	return anomaly.Ratio(f.turnover[k], f.baseline[k-1])
}
