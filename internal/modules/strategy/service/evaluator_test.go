package service

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"

	"signal_scanner/internal/indicator"
	"signal_scanner/internal/models"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func mustProfile(t *testing.T, name string) models.Profile {
	t.Helper()
	p, ok := models.DefaultProfile(name)
	assert.True(t, ok)
	assert.NoError(t, p.Validate())
	return p
}

func series(tf string, step time.Duration, closes, turnover []float64) models.Series {
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{
			OpenTime: t0.Add(time.Duration(i) * step),
			Open:     c,
			High:     c * 1.0005,
			Low:      c * 0.9995,
			Close:    c,
			Volume:   turnover[i] / c,
			Turnover: turnover[i],
		}
	}
	return models.NewSeries("TEST-USDT", tf, candles)
}

// breakoutFixture is 60 one-minute bars: a steady climb, a 5x turnover spike with +0.6% at
// index 56, two pullback bars and a breakout bar whose turnover is 4x its baseline.
func breakoutFixture(t *testing.T, pull1, pull2 float64, secondSpike bool) models.Series {
	t.Helper()
	closes := make([]float64, 0, 60)
	turnover := make([]float64, 0, 60)
	for i := range 56 {
		closes = append(closes, 100*math.Pow(1.001, float64(i)))
		turnover = append(turnover, 100_000)
	}
	spike := closes[55] * 1.006
	closes = append(closes, spike, spike*pull1, spike*pull2)
	turnover = append(turnover, 500_000, 100_000, 100_000)
	if secondSpike {
		base, err := indicator.EMA(turnover, 15)
		assert.NoError(t, err)
		turnover[57] = 5 * base[56]
	}

	base, err := indicator.EMA(turnover, 15)
	assert.NoError(t, err)
	closes = append(closes, spike*1.002)
	turnover = append(turnover, 4*base[58])
	return series("1m", time.Minute, closes, turnover)
}

// secondary builds 50 five-minute bars stepping by up, then down, alternately.
func secondary(up, down float64) models.Series {
	closes := make([]float64, 50)
	turnover := make([]float64, 50)
	closes[0] = 100
	for i := 1; i < 50; i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + up
		} else {
			closes[i] = closes[i-1] - down
		}
		turnover[i] = 50_000
	}
	turnover[0] = 50_000
	return series("5m", 5*time.Minute, closes, turnover)
}

func find(ev Evaluation, c models.Category) (models.SignalResult, bool) {
	for _, r := range ev.Results {
		if r.Category == c {
			return r, true
		}
	}
	return models.SignalResult{}, false
}

func metric(t *testing.T, r models.SignalResult, name string) float64 {
	t.Helper()
	v, ok := r.Evidence.Value(name)
	assert.True(t, ok)
	return v
}

func TestEarlyWarningOnSpikeBar(t *testing.T) {
	e := NewEvaluator(mustProfile(t, "intraday"))
	full := breakoutFixture(t, 0.998, 0.996, false)
	upToSpike := models.NewSeries(full.InstID, full.Timeframe, full.Candles[:57])

	ev, err := e.Evaluate("TEST-USDT", upToSpike, secondary(0.3, 0.1), models.NeutralMarket("BTC-USDT", "4h"))
	assert.NoError(t, err)

	early, ok := find(ev, models.CategoryEarlyWarning)
	assert.True(t, ok)
	assert.True(t, math.Abs(metric(t, early, "v_ratio")-5.0) < 1e-6)
	assert.True(t, math.Abs(metric(t, early, "mom")-0.006) < 1e-9)
	assert.Equal(t, 500_000.0, metric(t, early, "turnover"))

	_, ok = find(ev, models.CategoryConfirmedBuy)
	assert.False(t, ok)
}

func TestConfirmedEntryAfterPullback(t *testing.T) {
	p := mustProfile(t, "intraday")
	e := NewEvaluator(p)

	ev, err := e.Evaluate("TEST-USDT", breakoutFixture(t, 0.998, 0.996, false), secondary(0.3, 0.1), models.NeutralMarket("BTC-USDT", "4h"))
	assert.NoError(t, err)

	buy, ok := find(ev, models.CategoryConfirmedBuy)
	assert.True(t, ok)
	ratio := metric(t, buy, "v_ratio")
	pull := metric(t, buy, "pull")
	rsi := metric(t, buy, "rsi")
	mom := metric(t, buy, "mom")
	assert.True(t, math.Abs(ratio-4) < 1e-6)
	assert.True(t, math.Abs(pull+0.004) < 1e-9)
	assert.True(t, rsi >= p.Confirm.MinRSI)
	assert.True(t, math.Abs(metric(t, buy, "spike_ratio")-5) < 1e-6)

	want := models.ClampScore(ratio*12 + mom*100 + (rsi-50)*1.25 + 5)
	assert.Equal(t, want, buy.Score)
	// rsi ~77 at ratio 4 leaves room above it for stronger entries
	assert.Equal(t, 87, buy.Score)

	cont, ok := find(ev, models.CategoryContinuation)
	assert.True(t, ok)
	assert.True(t, cont.Score >= 0 && cont.Score <= 100)

	_, ok = find(ev, models.CategorySellPressure)
	assert.False(t, ok)
}

func TestConfirmScoreRanksByStrength(t *testing.T) {
	p := mustProfile(t, "intraday")
	s := breakoutFixture(t, 0.998, 0.996, false)
	neutral := models.NeutralMarket("BTC-USDT", "4h")

	hot, err := NewEvaluator(p).Evaluate("TEST-USDT", s, secondary(0.3, 0.1), neutral)
	assert.NoError(t, err)
	mild, err := NewEvaluator(p).Evaluate("TEST-USDT", s, secondary(0.2, 0.15), neutral)
	assert.NoError(t, err)

	hotBuy, ok := find(hot, models.CategoryConfirmedBuy)
	assert.True(t, ok)
	mildBuy, ok := find(mild, models.CategoryConfirmedBuy)
	assert.True(t, ok)
	assert.True(t, mildBuy.Score < hotBuy.Score)
	assert.True(t, hotBuy.Score < 100)

	// the steep weighting saturates both
	p.Confirm.Weights = models.Weights{VolumeRatio: 18, Momentum: 100, RSI: 3, RSIPivot: 50, Bonus: 15}
	hot, err = NewEvaluator(p).Evaluate("TEST-USDT", s, secondary(0.3, 0.1), neutral)
	assert.NoError(t, err)
	hotBuy, _ = find(hot, models.CategoryConfirmedBuy)
	assert.Equal(t, 100, hotBuy.Score)
}

func TestDeepPullbackDoesNotConfirm(t *testing.T) {
	e := NewEvaluator(mustProfile(t, "intraday"))
	ev, err := e.Evaluate("TEST-USDT", breakoutFixture(t, 0.99, 0.98, false), secondary(0.3, 0.1), models.NeutralMarket("BTC-USDT", "4h"))
	assert.NoError(t, err)
	_, ok := find(ev, models.CategoryConfirmedBuy)
	assert.False(t, ok)
}

func TestBreakoutMustClearPullbackHigh(t *testing.T) {
	e := NewEvaluator(mustProfile(t, "intraday"))
	s := breakoutFixture(t, 0.998, 0.996, false)
	candles := append([]models.Candle(nil), s.Candles...)
	candles[59].Close = candles[56].Close
	s = models.NewSeries(s.InstID, s.Timeframe, candles)

	ev, err := e.Evaluate("TEST-USDT", s, secondary(0.3, 0.1), models.NeutralMarket("BTC-USDT", "4h"))
	assert.NoError(t, err)
	_, ok := find(ev, models.CategoryConfirmedBuy)
	assert.False(t, ok)

	p := mustProfile(t, "intraday")
	p.Confirm.BreakoutPolicy = models.BreakoutInclusiveMax
	ev, err = NewEvaluator(p).Evaluate("TEST-USDT", s, secondary(0.3, 0.1), models.NeutralMarket("BTC-USDT", "4h"))
	assert.NoError(t, err)
	_, ok = find(ev, models.CategoryConfirmedBuy)
	assert.True(t, ok)
}

func TestSpikePolicy(t *testing.T) {
	s := breakoutFixture(t, 0.998, 0.996, true)
	sec := secondary(0.3, 0.1)

	earliest := mustProfile(t, "intraday")
	ev, err := NewEvaluator(earliest).Evaluate("TEST-USDT", s, sec, models.NeutralMarket("BTC-USDT", "4h"))
	assert.NoError(t, err)
	_, ok := find(ev, models.CategoryConfirmedBuy)
	assert.True(t, ok)

	// measured from the second spike the pullback is only -0.2%, too shallow for the band
	latest := mustProfile(t, "intraday")
	latest.Confirm.SpikePolicy = models.SpikeLatest
	ev, err = NewEvaluator(latest).Evaluate("TEST-USDT", s, sec, models.NeutralMarket("BTC-USDT", "4h"))
	assert.NoError(t, err)
	_, ok = find(ev, models.CategoryConfirmedBuy)
	assert.False(t, ok)
}

func TestWeakMarketBlocksConfirmation(t *testing.T) {
	p := mustProfile(t, "intraday")
	p.BlockOnWeakMarket = true
	weak := models.MarketContext{Reference: "BTC-USDT", State: models.MarketWeak}

	ev, err := NewEvaluator(p).Evaluate("TEST-USDT", breakoutFixture(t, 0.998, 0.996, false), secondary(0.3, 0.1), weak)
	assert.NoError(t, err)
	_, ok := find(ev, models.CategoryConfirmedBuy)
	assert.False(t, ok)
	_, ok = find(ev, models.CategoryEarlyWarning)
	assert.True(t, ok)
}

func TestDailyProfileGating(t *testing.T) {
	e := NewEvaluator(mustProfile(t, "daily"))
	ev, err := e.Evaluate("TEST-USDT", breakoutFixture(t, 0.998, 0.996, false), secondary(0.3, 0.1), models.NeutralMarket("BTC-USDT", "4h"))
	assert.NoError(t, err)

	_, early := find(ev, models.CategoryEarlyWarning)
	assert.True(t, early)
	_, buy := find(ev, models.CategoryConfirmedBuy)
	assert.True(t, buy)
	_, cont := find(ev, models.CategoryContinuation)
	assert.False(t, cont)

	// without an early warning nothing downstream is evaluated
	quiet := breakoutFixture(t, 0.998, 0.996, false)
	candles := append([]models.Candle(nil), quiet.Candles...)
	candles[59].Turnover = 190_000
	ev, err = e.Evaluate("TEST-USDT", models.NewSeries(quiet.InstID, "1m", candles), secondary(0.3, 0.1), models.NeutralMarket("BTC-USDT", "4h"))
	assert.NoError(t, err)
	assert.Equal(t, 0, len(ev.Results))
}

func TestFlatSeriesClassifiesIntoNothing(t *testing.T) {
	closes := make([]float64, 60)
	turnover := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
		turnover[i] = 100_000
	}
	primary := series("1m", time.Minute, closes, turnover)
	sec := series("5m", 5*time.Minute, closes[:50], turnover[:50])

	ev, err := NewEvaluator(mustProfile(t, "intraday")).Evaluate("FLAT-USDT", primary, sec, models.NeutralMarket("BTC-USDT", "4h"))
	assert.NoError(t, err)
	assert.Equal(t, 0, len(ev.Results))
}

func TestSellPressure(t *testing.T) {
	closes := make([]float64, 60)
	turnover := make([]float64, 60)
	for i := range 58 {
		closes[i] = 100 * math.Pow(0.999, float64(i))
		turnover[i] = 100_000
	}
	closes[58] = closes[57] * 0.994
	closes[59] = closes[58] * 0.994
	turnover[58], turnover[59] = 100_000, 100_000

	ev, err := NewEvaluator(mustProfile(t, "intraday")).Evaluate("DOWN-USDT",
		series("1m", time.Minute, closes, turnover), secondary(-0.3, -0.1), models.NeutralMarket("BTC-USDT", "4h"))
	assert.NoError(t, err)

	sell, ok := find(ev, models.CategorySellPressure)
	assert.True(t, ok)
	drop := metric(t, sell, "drop")
	rsi := metric(t, sell, "rsi")
	assert.True(t, drop < -0.011)
	assert.True(t, rsi < 45)
	assert.Equal(t, models.ClampScore(math.Abs(drop)*100+(45-rsi)*2+20), sell.Score)
	_, ok = find(ev, models.CategoryConfirmedBuy)
	assert.False(t, ok)
}

func TestShortHistoryIsRejected(t *testing.T) {
	e := NewEvaluator(mustProfile(t, "intraday"))
	full := breakoutFixture(t, 0.998, 0.996, false)
	short := models.NewSeries(full.InstID, "1m", full.Candles[:49])

	_, err := e.Evaluate("TEST-USDT", short, secondary(0.3, 0.1), models.NeutralMarket("BTC-USDT", "4h"))
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))

	sec := secondary(0.3, 0.1)
	_, err = e.Evaluate("TEST-USDT", full, models.NewSeries("TEST-USDT", "5m", sec.Candles[:19]), models.NeutralMarket("BTC-USDT", "4h"))
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))
}

func TestBreaksOut(t *testing.T) {
	tests := []struct {
		name   string
		policy models.BreakoutPolicy
		now    float64
		want   bool
	}{
		{"strict above", models.BreakoutStrictMax, 10.1, true},
		{"strict equal", models.BreakoutStrictMax, 10, false},
		{"inclusive equal", models.BreakoutInclusiveMax, 10, true},
		{"previous close", models.BreakoutPreviousClose, 9.6, true},
		{"below previous close", models.BreakoutPreviousClose, 9.4, false},
	}
	for _, test := range tests {
		if got := breaksOut(test.policy, test.now, 10, 9.5); got != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, got)
		}
	}
}
