package indicator

import (
	"errors"
	"math"
	"testing"

	"github.com/peterldowns/testy/assert"

	"signal_scanner/internal/models"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func rising(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func TestEMA(t *testing.T) {
	got, err := EMA([]float64{1, 2, 3, 4, 5}, 3)
	assert.NoError(t, err)
	assert.Equal(t, []float64{1, 1.5, 2.25, 3.125, 4.0625}, got)

	_, err = EMA([]float64{1, 2}, 3)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))

	_, err = EMA([]float64{1, 2}, 0)
	assert.True(t, errors.Is(err, ErrInvalidWindow))
}

func TestEMASeqIsRestartable(t *testing.T) {
	xs := rising(10, 1, 1)
	seq := EMASeq(xs, 4)

	var first, second []float64
	for _, v := range seq {
		first = append(first, v)
	}
	for _, v := range seq {
		second = append(second, v)
	}
	assert.Equal(t, len(xs), len(first))
	assert.Equal(t, first, second)

	var partial []float64
	for i, v := range seq {
		if i == 3 {
			break
		}
		partial = append(partial, v)
	}
	assert.Equal(t, first[:3], partial)

	full, err := EMA(xs, 4)
	assert.NoError(t, err)
	assert.Equal(t, full, first)
}

func TestRSI(t *testing.T) {
	got, err := RSI([]float64{1, 2, 1, 2}, 2)
	assert.NoError(t, err)
	assert.Equal(t, 4, len(got))
	assert.Equal(t, 50.0, got[0])
	assert.True(t, near(got[1], 100))
	assert.True(t, near(got[2], 50))
	assert.True(t, near(got[3], 75))

	up, err := RSI(rising(30, 10, 0.5), DefaultRSIPeriod)
	assert.NoError(t, err)
	assert.True(t, up[len(up)-1] > 99.9)
	assert.True(t, up[len(up)-1] <= 100)

	down, err := RSI(rising(30, 30, -0.5), DefaultRSIPeriod)
	assert.NoError(t, err)
	assert.True(t, down[len(down)-1] < 0.1)
	assert.True(t, down[len(down)-1] >= 0)

	_, err = RSI(rising(14, 1, 1), DefaultRSIPeriod)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))
}

func TestMACD(t *testing.T) {
	closes := rising(60, 100, 0.4)
	m, err := MACD(closes, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	assert.NoError(t, err)
	assert.Equal(t, len(closes), len(m.Line))

	for i := range closes {
		assert.True(t, near(m.Hist[i], m.Line[i]-m.Signal[i]))
	}
	last := len(closes) - 1
	assert.True(t, m.Line[last] > 0)
	assert.Equal(t, 1, m.Crossed(last))

	flat, err := MACD(rising(30, 5, 0), 12, 26, 9)
	assert.NoError(t, err)
	assert.Equal(t, 0, flat.Crossed(29))

	_, err = MACD(rising(25, 1, 1), 12, 26, 9)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))
	_, err = MACD(rising(40, 1, 1), 12, 26, 0)
	assert.True(t, errors.Is(err, ErrInvalidWindow))
}

func TestADX(t *testing.T) {
	closes := rising(40, 100, 1)
	highs := rising(40, 100.5, 1)
	lows := rising(40, 99.5, 1)

	adx, err := ADX(highs, lows, closes, DefaultADXPeriod)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, adx[0])
	assert.True(t, adx[len(adx)-1] > 80)
	for _, v := range adx {
		assert.True(t, v >= 0 && v <= 100)
	}

	_, err = ADX(highs[:14], lows[:14], closes[:14], DefaultADXPeriod)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))

	_, err = ADX(highs[:20], lows, closes, DefaultADXPeriod)
	assert.Error(t, err)
}

func TestIndicatorsAreDeterministic(t *testing.T) {
	closes := []float64{10, 10.2, 10.1, 10.4, 10.3, 10.8, 10.6, 10.9, 11.2, 11, 11.4, 11.3, 11.9, 11.7, 12.1, 12, 12.4, 12.2}
	highs := make([]float64, len(closes))
	lows := make([]float64, len(closes))
	for i, c := range closes {
		highs[i] = c + 0.15
		lows[i] = c - 0.15
	}

	for range 3 {
		e1, _ := EMA(closes, 5)
		e2, _ := EMA(closes, 5)
		assert.Equal(t, e1, e2)

		r1, _ := RSI(closes, 14)
		r2, _ := RSI(closes, 14)
		assert.Equal(t, r1, r2)

		a1, _ := ADX(highs, lows, closes, 14)
		a2, _ := ADX(highs, lows, closes, 14)
		assert.Equal(t, a1, a2)
	}
}

func TestSetMemoizes(t *testing.T) {
	candles := make([]models.Candle, 60)
	for i := range candles {
		c := 100 + float64(i)*0.1
		candles[i] = models.Candle{Open: c, High: c + 0.05, Low: c - 0.05, Close: c, Turnover: 1000}
	}
	set := NewSet(models.NewSeries("BTC-USDT", "1m", candles))

	a, err := set.EMA(20)
	assert.NoError(t, err)
	b, err := set.EMA(20)
	assert.NoError(t, err)
	assert.True(t, &a[0] == &b[0])

	up, err := set.TrendUp(20, 50)
	assert.NoError(t, err)
	assert.True(t, up)

	base, err := set.Baseline(15)
	assert.NoError(t, err)
	assert.True(t, near(base[59], 1000))

	_, err = set.EMA(61)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))

	_, err = set.MACD()
	assert.NoError(t, err)
	_, err = set.LastADX(14)
	assert.NoError(t, err)
}
