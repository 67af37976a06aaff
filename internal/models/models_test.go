package models

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func closesSeries(closes ...float64) Series {
	candles := make([]Candle, len(closes))
	for i, c := range closes {
		candles[i] = Candle{OpenTime: time.Unix(int64(i)*60, 0), Close: c, Turnover: c * 10}
	}
	return NewSeries("TEST-USDT", "1m", candles)
}

func TestSeriesAccessorsAreBounded(t *testing.T) {
	s := closesSeries(1, 2, 3)

	last, err := s.Last()
	assert.NoError(t, err)
	assert.Equal(t, 3.0, last.Close)

	_, err = s.At(-1)
	assert.True(t, errors.Is(err, ErrWindowExceedsHistory))
	_, err = s.At(3)
	assert.True(t, errors.Is(err, ErrWindowExceedsHistory))

	cs, err := s.LastNCloses(2)
	assert.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, cs)

	_, err = s.LastN(4)
	assert.True(t, errors.Is(err, ErrWindowExceedsHistory))
	_, err = s.LastN(0)
	assert.Error(t, err)

	_, err = NewSeries("X", "1m", nil).Last()
	assert.Error(t, err)
}

func TestSeriesReturn(t *testing.T) {
	s := closesSeries(100, 101, 99)

	r, err := s.Return(1)
	assert.NoError(t, err)
	assert.True(t, math.Abs(r-(99.0/101-1)) < 1e-12)

	r, err = s.Return(2)
	assert.NoError(t, err)
	assert.True(t, math.Abs(r+0.01) < 1e-12)

	_, err = s.Return(3)
	assert.Error(t, err)

	zero := closesSeries(0, 5)
	r, err = zero.Return(1)
	assert.NoError(t, err)
	assert.False(t, math.IsInf(r, 0) || math.IsNaN(r))
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		raw  float64
		want int
	}{
		{-5, 0},
		{0, 0},
		{42.9, 42},
		{99.99, 99},
		{100, 100},
		{169.5, 100},
		{math.NaN(), 0},
		{math.Inf(1), 100},
	}
	for _, tt := range tests {
		if got := ClampScore(tt.raw); got != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.raw, tt.want, got)
		}
	}
}

func TestEvidence(t *testing.T) {
	e := Evidence{{Name: "v_ratio", Value: 4}, {Name: "rsi", Value: 61.5}}

	v, ok := e.Value("rsi")
	assert.True(t, ok)
	assert.Equal(t, 61.5, v)
	_, ok = e.Value("adx")
	assert.False(t, ok)
	assert.Equal(t, "v_ratio=4.0000 rsi=61.5000", e.String())
}

func result(inst string, c Category, score int) SignalResult {
	return SignalResult{InstID: inst, Category: c, Score: score}
}

func TestReportRanksAndCaps(t *testing.T) {
	r := NewScanReport("p", "intraday", time.Unix(0, 0))
	for i, score := range []int{40, 90, 40, 70, 90} {
		inst := string(rune('A' + i))
		r.Add(InstrumentOutcome{
			InstID:  inst,
			Status:  OutcomeEvaluated,
			Results: []SignalResult{result(inst, CategoryEarlyWarning, score), result(inst, CategoryConfirmedBuy, score)},
		})
	}
	r.Finalize(3)

	got := make([]string, 0, len(r.ConfirmedBuy))
	for _, s := range r.ConfirmedBuy {
		got = append(got, s.InstID)
	}
	assert.Equal(t, []string{"B", "E", "D"}, got)

	early := make([]string, 0, len(r.Early))
	for _, s := range r.Early {
		early = append(early, s.InstID)
	}
	assert.Equal(t, []string{"A", "B", "C"}, early)
	assert.Equal(t, 5, r.Evaluated)
}

func TestReportListsFollowCategoryOrder(t *testing.T) {
	r := NewScanReport("p", "intraday", time.Unix(0, 0))
	r.Add(InstrumentOutcome{InstID: "A", Status: OutcomeEvaluated, Results: []SignalResult{
		result("A", CategorySellPressure, 20),
		result("A", CategoryConfirmedBuy, 80),
		result("A", CategoryEarlyWarning, 30),
	}})
	r.Finalize(0)

	assert.Equal(t, 1, len(r.List(CategoryConfirmedBuy)))
	assert.Equal(t, 0, len(r.List(CategoryTrendBuy)))
	assert.Equal(t, 0, len(r.List(Category("unknown"))))

	var got []Category
	for _, res := range r.All() {
		got = append(got, res.Category)
	}
	assert.Equal(t, []Category{CategoryEarlyWarning, CategoryConfirmedBuy, CategorySellPressure}, got)
	assert.Equal(t, CategorySellPressure, Categories[len(Categories)-1])
}

func TestRankByScoreIsStable(t *testing.T) {
	rs := []SignalResult{
		result("A", CategoryTrendBuy, 50),
		result("B", CategoryTrendBuy, 60),
		result("C", CategoryTrendBuy, 50),
		result("D", CategoryTrendBuy, 60),
	}
	RankByScore(rs)
	got := []string{rs[0].InstID, rs[1].InstID, rs[2].InstID, rs[3].InstID}
	assert.Equal(t, []string{"B", "D", "A", "C"}, got)
}

func TestReportCountsOutcomes(t *testing.T) {
	r := NewScanReport("p", "intraday", time.Unix(0, 0))
	assert.True(t, r.Empty())

	r.Add(InstrumentOutcome{InstID: "A", Status: OutcomeSkipped, SkipReason: SkipDataUnavailable})
	r.Add(InstrumentOutcome{InstID: "B", Status: OutcomeFailed, Err: errors.New("boom")})
	r.Add(InstrumentOutcome{InstID: "C", Status: OutcomeEvaluated, Results: []SignalResult{result("C", CategorySellPressure, 30)}})
	r.Finalize(0)

	assert.Equal(t, 1, r.Skipped[SkipDataUnavailable])
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 1, r.Evaluated)
	assert.Equal(t, 1, r.SellPressureCount)
	assert.False(t, r.Partial)
	assert.False(t, r.Empty())

	r.Add(InstrumentOutcome{InstID: "D", Status: OutcomeSkipped, SkipReason: SkipDeadline})
	assert.True(t, r.Partial)
}

func TestDefaultProfilesValidate(t *testing.T) {
	names := DefaultProfileNames()
	assert.Equal(t, []string{"daily", "intraday", "strategy_4h", "trend_1d", "trend_1h", "trend_4h"}, names)
	for _, name := range names {
		p, ok := DefaultProfile(name)
		assert.True(t, ok)
		assert.Equal(t, name, p.Name)
		if err := p.Validate(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	_, ok := DefaultProfile("nope")
	assert.False(t, ok)
}

func TestProfileValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Profile)
	}{
		{"inverted emas", func(p *Profile) { p.FastEMA, p.SlowEMA = 50, 20 }},
		{"bad spike policy", func(p *Profile) { p.Confirm.SpikePolicy = "middle" }},
		{"inverted pullback band", func(p *Profile) { p.Confirm.PullbackMin, p.Confirm.PullbackMax = 0.01, 0.005 }},
		{"no secondary", func(p *Profile) { p.SecondaryTF = "" }},
		{"unknown kind", func(p *Profile) { p.Kind = "scalp" }},
		{"lookback too long", func(p *Profile) { p.Confirm.SpikeLookback = 49 }},
	}
	for _, tt := range tests {
		p, _ := DefaultProfile("intraday")
		tt.mutate(&p)
		if err := p.Validate(); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}

	p, _ := DefaultProfile("trend_4h")
	p.PrimaryBars = 10
	assert.Error(t, p.Validate())
}

func TestWeightsScore(t *testing.T) {
	w := Weights{VolumeRatio: 18, Momentum: 100, RSI: 3, RSIPivot: 50, Bonus: 15}
	assert.Equal(t, ClampScore(2*18+0.001*100+1*3+15), w.Score(2, 0.001, 1, 0))
	assert.Equal(t, 100, w.Score(10, 0, 20, 0))
	assert.Equal(t, 0, Weights{}.Score(-3, 0, 0, 0))
}
