package models

import (
	"fmt"
	"time"
)

// Candle is one closed bar of a single instrument. Turnover is the traded value in quote currency.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Turnover float64
}

// Series is an ordered (oldest -> newest) run of candles for one instrument and timeframe.
// It is never mutated after construction.
type Series struct {
	InstID    string
	Timeframe string
	Candles   []Candle
}

func NewSeries(instID, timeframe string, candles []Candle) Series {
	return Series{InstID: instID, Timeframe: timeframe, Candles: candles}
}

func (s Series) Len() int { return len(s.Candles) }

// At returns the candle at index i; negative or out of range indexes fail instead of wrapping.
func (s Series) At(i int) (Candle, error) {
	if i < 0 || i >= len(s.Candles) {
		return Candle{}, fmt.Errorf("%w: index %d of %d", ErrWindowExceedsHistory, i, len(s.Candles))
	}
	return s.Candles[i], nil
}

func (s Series) Last() (Candle, error) {
	return s.At(len(s.Candles) - 1)
}

// LastN returns the newest n candles.
func (s Series) LastN(n int) ([]Candle, error) {
	if n <= 0 || n > len(s.Candles) {
		return nil, fmt.Errorf("%w: window %d of %d", ErrWindowExceedsHistory, n, len(s.Candles))
	}
	return s.Candles[len(s.Candles)-n:], nil
}

// LastNCloses returns the close prices of the newest n candles.
func (s Series) LastNCloses(n int) ([]float64, error) {
	cs, err := s.LastN(n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cs))
	for i := range cs {
		out[i] = cs[i].Close
	}
	return out, nil
}

// Return is the relative close change over the last `bars` bars.
func (s Series) Return(bars int) (float64, error) {
	cs, err := s.LastNCloses(bars + 1)
	if err != nil {
		return 0, err
	}
	return cs[len(cs)-1]/(cs[0]+Epsilon) - 1, nil
}

func (s Series) Closes() []float64 {
	return s.column(func(c Candle) float64 { return c.Close })
}

func (s Series) Highs() []float64 {
	return s.column(func(c Candle) float64 { return c.High })
}

func (s Series) Lows() []float64 {
	return s.column(func(c Candle) float64 { return c.Low })
}

func (s Series) Turnovers() []float64 {
	return s.column(func(c Candle) float64 { return c.Turnover })
}

func (s Series) column(pick func(Candle) float64) []float64 {
	out := make([]float64, len(s.Candles))
	for i := range s.Candles {
		out[i] = pick(s.Candles[i])
	}
	return out
}
