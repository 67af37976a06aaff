package indicator

import "signal_scanner/internal/models"

// Set memoizes the indicators of one series for the duration of one evaluation.
// It is not safe for concurrent use.
type Set struct {
	series    models.Series
	closes    []float64
	turnovers []float64

	ema      map[int][]float64
	baseline map[int][]float64
	rsi      map[int][]float64
	adx      map[int][]float64
	macd     *MACDResult
}

func NewSet(s models.Series) *Set {
	return &Set{
		series:    s,
		closes:    s.Closes(),
		turnovers: s.Turnovers(),
		ema:       map[int][]float64{},
		baseline:  map[int][]float64{},
		rsi:       map[int][]float64{},
		adx:       map[int][]float64{},
	}
}

func (s *Set) Closes() []float64    { return s.closes }
func (s *Set) Turnovers() []float64 { return s.turnovers }

// EMA of closes.
func (s *Set) EMA(span int) ([]float64, error) {
	return memo(s.ema, span, func() ([]float64, error) { return EMA(s.closes, span) })
}

// Baseline is the EMA of turnover used by the volume ratio.
func (s *Set) Baseline(span int) ([]float64, error) {
	return memo(s.baseline, span, func() ([]float64, error) { return EMA(s.turnovers, span) })
}

func (s *Set) RSI(period int) ([]float64, error) {
	return memo(s.rsi, period, func() ([]float64, error) { return RSI(s.closes, period) })
}

func (s *Set) ADX(period int) ([]float64, error) {
	return memo(s.adx, period, func() ([]float64, error) {
		return ADX(s.series.Highs(), s.series.Lows(), s.closes, period)
	})
}

// MACD with the 12/26/9 defaults.
func (s *Set) MACD() (MACDResult, error) {
	if s.macd != nil {
		return *s.macd, nil
	}
	m, err := MACD(s.closes, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
	if err != nil {
		return MACDResult{}, err
	}
	s.macd = &m
	return m, nil
}

func (s *Set) LastEMA(span int) (float64, error)   { return last(s.EMA(span)) }
func (s *Set) LastRSI(period int) (float64, error) { return last(s.RSI(period)) }
func (s *Set) LastADX(period int) (float64, error) { return last(s.ADX(period)) }

// TrendUp reports EMA(fast) > EMA(slow) at the latest bar.
func (s *Set) TrendUp(fast, slow int) (bool, error) {
	f, err := s.LastEMA(fast)
	if err != nil {
		return false, err
	}
	sl, err := s.LastEMA(slow)
	if err != nil {
		return false, err
	}
	return f > sl, nil
}

func memo(cache map[int][]float64, key int, compute func() ([]float64, error)) ([]float64, error) {
	if v, ok := cache[key]; ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	cache[key] = v
	return v, nil
}

func last(xs []float64, err error) (float64, error) {
	if err != nil {
		return 0, err
	}
	return xs[len(xs)-1], nil
}
