package models

import "time"

type MarketState string

const (
	MarketStrong  MarketState = "STRONG"
	MarketNeutral MarketState = "NEUTRAL"
	MarketWeak    MarketState = "WEAK"
)

// MarketContext is computed once per pass before the fan-out and read-only afterwards.
type MarketContext struct {
	Reference string
	Timeframe string
	State     MarketState
	FastEMA   float64
	SlowEMA   float64
	RSI       float64
	At        time.Time
}

// NeutralMarket is used whenever the reference asset cannot be evaluated.
func NeutralMarket(reference, timeframe string) MarketContext {
	return MarketContext{Reference: reference, Timeframe: timeframe, State: MarketNeutral}
}
