package models

import (
	"fmt"
	"strings"
)

type Category string

const (
	CategoryEarlyWarning Category = "early_warning"
	CategoryConfirmedBuy Category = "confirmed_buy"
	CategoryContinuation Category = "continuation"
	CategorySellPressure Category = "sell_pressure"
	CategoryTrendBuy     Category = "trend_buy"
	CategoryTrendSell    Category = "trend_sell"
)

// Categories in report order.
var Categories = []Category{
	CategoryEarlyWarning,
	CategoryConfirmedBuy,
	CategoryContinuation,
	CategoryTrendBuy,
	CategoryTrendSell,
	CategorySellPressure,
}

// Metric is one named piece of evidence backing a classification.
type Metric struct {
	Name  string
	Value float64
}

// Evidence keeps metrics in the order the stage produced them so reports stay stable.
type Evidence []Metric

func (e Evidence) Value(name string) (float64, bool) {
	for _, m := range e {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

func (e Evidence) String() string {
	parts := make([]string, 0, len(e))
	for _, m := range e {
		parts = append(parts, fmt.Sprintf("%s=%.4f", m.Name, m.Value))
	}
	return strings.Join(parts, " ")
}

// SignalResult is produced once per (instrument, scan pass, category).
type SignalResult struct {
	InstID   string
	Category Category
	Score    int
	Evidence Evidence
}

// ClampScore truncates a raw weighted sum toward zero and clamps it to [0, 100].
func ClampScore(raw float64) int {
	if raw != raw { // NaN
		return 0
	}
	switch {
	case raw <= 0:
		return 0
	case raw >= 100:
		return 100
	}
	return int(raw)
}
