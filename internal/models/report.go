package models

import (
	"sort"
	"time"
)

type OutcomeStatus string

const (
	OutcomeEvaluated OutcomeStatus = "evaluated"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeFailed    OutcomeStatus = "failed"
)

type SkipReason string

const (
	SkipNone                SkipReason = ""
	SkipDataUnavailable     SkipReason = "data_unavailable"
	SkipInsufficientHistory SkipReason = "insufficient_history"
	SkipDeadline            SkipReason = "deadline"
	SkipLowLiquidity        SkipReason = "low_liquidity"
	SkipPriceGap            SkipReason = "price_gap"
	SkipNoVolume            SkipReason = "no_volume"
)

// InstrumentOutcome is the typed result of evaluating one instrument in one pass.
type InstrumentOutcome struct {
	InstID     string
	Status     OutcomeStatus
	SkipReason SkipReason
	Err        error
	Results    []SignalResult
}

// ScanReport holds the ranked, capped results of one pass. It is rebuilt on every pass.
type ScanReport struct {
	PassID    string
	Profile   string
	Title     string
	StartedAt time.Time
	Duration  time.Duration
	Scanned   int
	Market    MarketContext
	Partial   bool

	Early        []SignalResult
	ConfirmedBuy []SignalResult
	Continuation []SignalResult
	TrendBuy     []SignalResult
	TrendSell    []SignalResult
	// SellPressure is advisory; it is listed only when the profile asks for it.
	SellPressure      []SignalResult
	SellPressureCount int

	Evaluated int
	Skipped   map[SkipReason]int
	Failed    int
}

func NewScanReport(passID, profile string, startedAt time.Time) *ScanReport {
	return &ScanReport{
		PassID:    passID,
		Profile:   profile,
		StartedAt: startedAt,
		Skipped:   make(map[SkipReason]int),
	}
}

// Add folds one outcome into the report. Call it in universe order.
func (r *ScanReport) Add(o InstrumentOutcome) {
	switch o.Status {
	case OutcomeSkipped:
		r.Skipped[o.SkipReason]++
		if o.SkipReason == SkipDeadline {
			r.Partial = true
		}
	case OutcomeFailed:
		r.Failed++
	default:
		r.Evaluated++
	}

	for _, res := range o.Results {
		switch res.Category {
		case CategoryEarlyWarning:
			r.Early = append(r.Early, res)
		case CategoryConfirmedBuy:
			r.ConfirmedBuy = append(r.ConfirmedBuy, res)
		case CategoryContinuation:
			r.Continuation = append(r.Continuation, res)
		case CategoryTrendBuy:
			r.TrendBuy = append(r.TrendBuy, res)
		case CategoryTrendSell:
			r.TrendSell = append(r.TrendSell, res)
		case CategorySellPressure:
			r.SellPressureCount++
			r.SellPressure = append(r.SellPressure, res)
		}
	}
}

// Finalize ranks the scored categories and truncates every list to maxPerCategory.
// Early warnings keep universe order.
func (r *ScanReport) Finalize(maxPerCategory int) {
	RankByScore(r.ConfirmedBuy)
	RankByScore(r.Continuation)
	RankByScore(r.TrendBuy)
	RankByScore(r.TrendSell)
	RankByScore(r.SellPressure)

	r.Early = capList(r.Early, maxPerCategory)
	r.ConfirmedBuy = capList(r.ConfirmedBuy, maxPerCategory)
	r.Continuation = capList(r.Continuation, maxPerCategory)
	r.TrendBuy = capList(r.TrendBuy, maxPerCategory)
	r.TrendSell = capList(r.TrendSell, maxPerCategory)
	r.SellPressure = capList(r.SellPressure, maxPerCategory)
}

// Empty reports whether no category has a member.
func (r *ScanReport) Empty() bool {
	return len(r.Early) == 0 &&
		len(r.ConfirmedBuy) == 0 &&
		len(r.Continuation) == 0 &&
		len(r.TrendBuy) == 0 &&
		len(r.TrendSell) == 0 &&
		r.SellPressureCount == 0
}

// List returns the results reported under c.
func (r *ScanReport) List(c Category) []SignalResult {
	switch c {
	case CategoryEarlyWarning:
		return r.Early
	case CategoryConfirmedBuy:
		return r.ConfirmedBuy
	case CategoryContinuation:
		return r.Continuation
	case CategoryTrendBuy:
		return r.TrendBuy
	case CategoryTrendSell:
		return r.TrendSell
	case CategorySellPressure:
		return r.SellPressure
	}
	return nil
}

// All returns every reported result in report order.
func (r *ScanReport) All() []SignalResult {
	var out []SignalResult
	for _, c := range Categories {
		out = append(out, r.List(c)...)
	}
	return out
}

// RankByScore sorts descending by score; equal scores keep their relative order.
func RankByScore(rs []SignalResult) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Score > rs[j].Score })
}

func capList(rs []SignalResult, n int) []SignalResult {
	if n <= 0 || len(rs) <= n {
		return rs
	}
	return rs[:n]
}
