package service

import "signal_scanner/internal/models"

// Engine classifies one instrument per scan pass. It keeps no state between calls.
type Engine interface {
	Evaluate(instID string, primary, secondary models.Series, market models.MarketContext) (Evaluation, error)
	Profile() models.Profile
}

// Evaluation is what one instrument produced in one pass. Skip is set when a trend gate
// rejected the instrument before classification.
type Evaluation struct {
	Results []models.SignalResult
	Skip    models.SkipReason
}

type Trend int

const (
	TrendNone Trend = iota
	TrendUp
	TrendDown
)
