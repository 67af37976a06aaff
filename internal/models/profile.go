package models

import (
	"fmt"
	"sort"
)

type ProfileKind string

const (
	// ProfileIntraday runs the early/confirm/continuation/sell stages over a primary and a secondary timeframe.
	ProfileIntraday ProfileKind = "intraday"
	// ProfileTrend runs the single-timeframe swing stage.
	ProfileTrend ProfileKind = "trend"
)

type SpikePolicy string

const (
	SpikeEarliest SpikePolicy = "earliest"
	SpikeLatest   SpikePolicy = "latest"
)

type BreakoutPolicy string

const (
	BreakoutStrictMax     BreakoutPolicy = "strict_max"
	BreakoutInclusiveMax  BreakoutPolicy = "inclusive_max"
	BreakoutPreviousClose BreakoutPolicy = "previous_close"
)

// Weights turn stage evidence into a raw score:
// ratio*VolumeRatio + momentum*Momentum + rsiEdge*RSI + adx*ADX + Bonus,
// where rsiEdge is the stage's distance of the RSI from RSIPivot.
type Weights struct {
	VolumeRatio float64 `yaml:"volume_ratio"`
	Momentum    float64 `yaml:"momentum"`
	RSI         float64 `yaml:"rsi"`
	RSIPivot    float64 `yaml:"rsi_pivot"`
	ADX         float64 `yaml:"adx"`
	Bonus       float64 `yaml:"bonus"`
}

func (w Weights) Score(ratio, momentum, rsiEdge, adx float64) int {
	return ClampScore(ratio*w.VolumeRatio + momentum*w.Momentum + rsiEdge*w.RSI + adx*w.ADX + w.Bonus)
}

type EarlyParams struct {
	MinTurnover float64 `yaml:"min_turnover"`
	VolumeRatio float64 `yaml:"volume_ratio"`
	MinMomentum float64 `yaml:"min_momentum"`
	Weights     Weights `yaml:"weights"`
}

type ConfirmParams struct {
	MinTurnover    float64        `yaml:"min_turnover"`
	VolumeRatio    float64        `yaml:"volume_ratio"`
	PullbackMin    float64        `yaml:"pullback_min"`
	PullbackMax    float64        `yaml:"pullback_max"`
	MinRSI         float64        `yaml:"min_rsi"`
	SpikeLookback  int            `yaml:"spike_lookback"`
	SpikePolicy    SpikePolicy    `yaml:"spike_policy"`
	BreakoutPolicy BreakoutPolicy `yaml:"breakout_policy"`
	Weights        Weights        `yaml:"weights"`
}

type ContinuationParams struct {
	MinRSI      float64 `yaml:"min_rsi"`
	VolumeRatio float64 `yaml:"volume_ratio"`
	Weights     Weights `yaml:"weights"`
}

type SellParams struct {
	MaxRSI   float64 `yaml:"max_rsi"`
	DropBars int     `yaml:"drop_bars"`
	MaxDrop  float64 `yaml:"max_drop"`
	Weights  Weights `yaml:"weights"`
}

type TrendParams struct {
	MinBars          int     `yaml:"min_bars"`
	VolumeWindow     int     `yaml:"volume_window"`
	VolumeRatio      float64 `yaml:"volume_ratio"`
	VolumeZ          float64 `yaml:"volume_z"`
	VolumeRamp       float64 `yaml:"volume_ramp"`
	MinTurnover      float64 `yaml:"min_turnover"`
	MaxGap           float64 `yaml:"max_gap"` // 0 disables the gap filter
	RSIBuy           float64 `yaml:"rsi_buy"`
	RSISell          float64 `yaml:"rsi_sell"`
	RequireMACD      bool    `yaml:"require_macd"`
	MinADX           float64 `yaml:"min_adx"`
	BreakoutLookback int     `yaml:"breakout_lookback"`
	BreakoutExclude  int     `yaml:"breakout_exclude"`
	SellNeedsDownBar bool    `yaml:"sell_needs_down_bar"`
	MarketGate       bool    `yaml:"market_gate"`
	Weights          Weights `yaml:"weights"`
}

// Profile is one immutable threshold set. Every rule stage reads its thresholds from here.
type Profile struct {
	Name        string      `yaml:"-"`
	Description string      `yaml:"description"`
	Kind        ProfileKind `yaml:"kind"`

	PrimaryTF        string `yaml:"primary_tf"`
	SecondaryTF      string `yaml:"secondary_tf"`
	PrimaryBars      int    `yaml:"primary_bars"`
	SecondaryBars    int    `yaml:"secondary_bars"`
	MinPrimaryBars   int    `yaml:"min_primary_bars"`
	MinSecondaryBars int    `yaml:"min_secondary_bars"`

	FastEMA      int `yaml:"fast_ema"`
	SlowEMA      int `yaml:"slow_ema"`
	BaselineSpan int `yaml:"baseline_span"`
	RSIPeriod    int `yaml:"rsi_period"`
	ADXPeriod    int `yaml:"adx_period"`

	UniverseSize   int     `yaml:"universe_size"`
	MinVolume24h   float64 `yaml:"min_volume_24h"`
	MaxPerCategory int     `yaml:"max_per_category"`

	Early        EarlyParams        `yaml:"early"`
	Confirm      ConfirmParams      `yaml:"confirm"`
	Continuation ContinuationParams `yaml:"continuation"`
	Sell         SellParams         `yaml:"sell"`
	Trend        TrendParams        `yaml:"trend"`

	GateOnEarly             bool `yaml:"gate_on_early"`
	ContinuationExcludesBuy bool `yaml:"continuation_excludes_buy"`
	BlockOnWeakMarket       bool `yaml:"block_on_weak_market"`
	ListSellSignals         bool `yaml:"list_sell_signals"`
}

type ProfilePreset struct {
	Description string
	Apply       func(p *Profile)
}

var ProfilePresets = map[string]ProfilePreset{
	"intraday": {
		Description: "1m spike/pullback/breakout scan confirmed on 5m RSI",
		Apply:       func(p *Profile) {},
	},
	"daily": {
		Description: "wide daily summary, stricter floors, sell pressure counted only",
		Apply: func(p *Profile) {
			p.UniverseSize = 200
			p.MaxPerCategory = 20
			p.Early.MinTurnover = 200_000
			p.Early.VolumeRatio = 3.2
			p.Confirm.MinTurnover = 300_000
			p.Confirm.VolumeRatio = 3.7
			p.GateOnEarly = true
			p.ContinuationExcludesBuy = true
			p.ListSellSignals = false
		},
	},
	"trend_1h": {
		Description: "1h swing scan",
		Apply: func(p *Profile) {
			applyTrend(p, "1h", 200)
			p.Trend.MinTurnover = 400_000
			p.Trend.MaxGap = 0.08
			p.Trend.VolumeWindow = 10
			p.Trend.VolumeRatio = 1.10
			p.Trend.VolumeZ = 0.8
			p.Trend.VolumeRamp = 1.3
			p.Trend.RSIBuy = 49
			p.Trend.RSISell = 51
		},
	},
	"trend_4h": {
		Description: "4h swing scan",
		Apply: func(p *Profile) {
			applyTrend(p, "4h", 260)
			p.Trend.MinTurnover = 800_000
			p.Trend.MaxGap = 0.08
			p.Trend.VolumeWindow = 20
			p.Trend.VolumeRatio = 1.15
			p.Trend.VolumeZ = 0.9
			p.Trend.VolumeRamp = 1.4
			p.Trend.RSIBuy = 50
			p.Trend.RSISell = 50
		},
	},
	"trend_1d": {
		Description: "1d swing scan",
		Apply: func(p *Profile) {
			applyTrend(p, "1d", 400)
			p.Trend.MinTurnover = 5_000_000
			p.Trend.MaxGap = 0.12
			p.Trend.VolumeWindow = 30
			p.Trend.VolumeRatio = 1.25
			p.Trend.VolumeZ = 1.0
			p.Trend.VolumeRamp = 1.5
			p.Trend.RSIBuy = 55
			p.Trend.RSISell = 45
		},
	},
	"strategy_4h": {
		Description: "4h MACD/ADX/break-of-structure strategy gated by the market state",
		Apply: func(p *Profile) {
			applyTrend(p, "4h", 260)
			p.MaxPerCategory = 25
			p.Trend.MinBars = 120
			p.Trend.VolumeWindow = 20
			p.Trend.VolumeRatio = 1.5
			p.Trend.VolumeZ = 0
			p.Trend.VolumeRamp = 0
			p.Trend.RSIBuy = 52
			p.Trend.RSISell = 48
			p.Trend.RequireMACD = true
			p.Trend.MinADX = 20
			p.Trend.BreakoutLookback = 40
			p.Trend.BreakoutExclude = 2
			p.Trend.SellNeedsDownBar = false
			p.Trend.MarketGate = true
		},
	},
}

// baseProfile carries the intraday thresholds every preset starts from.
func baseProfile() Profile {
	return Profile{
		Kind:             ProfileIntraday,
		PrimaryTF:        "1m",
		SecondaryTF:      "5m",
		PrimaryBars:      60,
		SecondaryBars:    50,
		MinPrimaryBars:   50,
		MinSecondaryBars: 20,
		FastEMA:          20,
		SlowEMA:          50,
		BaselineSpan:     15,
		RSIPeriod:        14,
		ADXPeriod:        14,
		UniverseSize:     80,
		MaxPerCategory:   10,
		Early: EarlyParams{
			MinTurnover: 150_000,
			VolumeRatio: 3.0,
			MinMomentum: 0.0045,
			Weights:     Weights{VolumeRatio: 10, Momentum: 100},
		},
		Confirm: ConfirmParams{
			MinTurnover:    250_000,
			VolumeRatio:    3.5,
			PullbackMin:    0.0025,
			PullbackMax:    0.008,
			MinRSI:         53,
			SpikeLookback:  3,
			SpikePolicy:    SpikeEarliest,
			BreakoutPolicy: BreakoutStrictMax,
			Weights:        Weights{VolumeRatio: 12, Momentum: 100, RSI: 1.25, RSIPivot: 50, Bonus: 5},
		},
		Continuation: ContinuationParams{
			MinRSI:      57,
			VolumeRatio: 2.0,
			Weights:     Weights{VolumeRatio: 12, Momentum: 100, RSI: 2, RSIPivot: 55, Bonus: 10},
		},
		Sell: SellParams{
			MaxRSI:   45,
			DropBars: 2,
			MaxDrop:  -0.011,
			Weights:  Weights{Momentum: 100, RSI: 2, RSIPivot: 45, Bonus: 20},
		},
		Trend: TrendParams{
			SellNeedsDownBar: true,
			Weights:          Weights{VolumeRatio: 10, RSI: 1, RSIPivot: 50, ADX: 0.5, Bonus: 25},
		},
		ListSellSignals: true,
	}
}

func applyTrend(p *Profile, tf string, bars int) {
	p.Kind = ProfileTrend
	p.PrimaryTF = tf
	p.SecondaryTF = ""
	p.PrimaryBars = bars
	p.SecondaryBars = 0
	p.MinSecondaryBars = 0
	p.UniverseSize = 0
	p.MaxPerCategory = 30
}

// DefaultProfile returns the built-in profile with the given name.
func DefaultProfile(name string) (Profile, bool) {
	preset, ok := ProfilePresets[name]
	if !ok {
		return Profile{}, false
	}
	p := baseProfile()
	preset.Apply(&p)
	p.Name = name
	p.Description = preset.Description
	return p, true
}

func DefaultProfileNames() []string {
	names := make([]string, 0, len(ProfilePresets))
	for name := range ProfilePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MinTrendBars is the shortest primary series the trend stage accepts.
func (p Profile) MinTrendBars() int {
	n := p.Trend.VolumeWindow + 5
	if p.Trend.MinBars > n {
		n = p.Trend.MinBars
	}
	if p.SlowEMA > n {
		n = p.SlowEMA
	}
	return n
}

func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile: empty name")
	}
	if p.PrimaryTF == "" || p.PrimaryBars <= 0 {
		return fmt.Errorf("profile %s: primary timeframe and bars are required", p.Name)
	}
	if p.FastEMA <= 0 || p.SlowEMA <= 0 || p.FastEMA >= p.SlowEMA {
		return fmt.Errorf("profile %s: need 0 < fast_ema < slow_ema, got %d/%d", p.Name, p.FastEMA, p.SlowEMA)
	}
	if p.RSIPeriod <= 0 || p.ADXPeriod <= 0 {
		return fmt.Errorf("profile %s: rsi_period and adx_period must be positive", p.Name)
	}
	if p.MaxPerCategory < 0 || p.UniverseSize < 0 {
		return fmt.Errorf("profile %s: negative universe_size or max_per_category", p.Name)
	}

	switch p.Kind {
	case ProfileIntraday:
		return p.validateIntraday()
	case ProfileTrend:
		return p.validateTrend()
	default:
		return fmt.Errorf("profile %s: unknown kind %q", p.Name, p.Kind)
	}
}

func (p Profile) validateIntraday() error {
	if p.SecondaryTF == "" || p.SecondaryBars <= 0 {
		return fmt.Errorf("profile %s: intraday profiles need a secondary timeframe", p.Name)
	}
	if p.BaselineSpan <= 0 {
		return fmt.Errorf("profile %s: baseline_span must be positive", p.Name)
	}
	if p.MinPrimaryBars < p.SlowEMA {
		return fmt.Errorf("profile %s: min_primary_bars %d below slow_ema %d", p.Name, p.MinPrimaryBars, p.SlowEMA)
	}
	if p.MinSecondaryBars < p.RSIPeriod+1 {
		return fmt.Errorf("profile %s: min_secondary_bars %d below rsi_period+1", p.Name, p.MinSecondaryBars)
	}
	if p.PrimaryBars < p.MinPrimaryBars || p.SecondaryBars < p.MinSecondaryBars {
		return fmt.Errorf("profile %s: requested bars below minimum history", p.Name)
	}
	c := p.Confirm
	if c.SpikeLookback <= 0 || c.SpikeLookback+2 > p.MinPrimaryBars {
		return fmt.Errorf("profile %s: spike_lookback %d out of range", p.Name, c.SpikeLookback)
	}
	if c.PullbackMin < 0 || c.PullbackMax < c.PullbackMin {
		return fmt.Errorf("profile %s: need 0 <= pullback_min <= pullback_max", p.Name)
	}
	switch c.SpikePolicy {
	case SpikeEarliest, SpikeLatest:
	default:
		return fmt.Errorf("profile %s: unknown spike_policy %q", p.Name, c.SpikePolicy)
	}
	switch c.BreakoutPolicy {
	case BreakoutStrictMax, BreakoutInclusiveMax, BreakoutPreviousClose:
	default:
		return fmt.Errorf("profile %s: unknown breakout_policy %q", p.Name, c.BreakoutPolicy)
	}
	if p.Sell.DropBars <= 0 || p.Sell.DropBars >= p.MinPrimaryBars {
		return fmt.Errorf("profile %s: sell.drop_bars %d out of range", p.Name, p.Sell.DropBars)
	}
	return nil
}

func (p Profile) validateTrend() error {
	t := p.Trend
	if t.VolumeWindow <= 0 {
		return fmt.Errorf("profile %s: trend.volume_window must be positive", p.Name)
	}
	if t.BreakoutLookback < 0 || t.BreakoutExclude < 0 {
		return fmt.Errorf("profile %s: negative breakout window", p.Name)
	}
	if t.MaxGap < 0 || t.MinADX < 0 {
		return fmt.Errorf("profile %s: negative max_gap or min_adx", p.Name)
	}
	if p.PrimaryBars < p.MinTrendBars() {
		return fmt.Errorf("profile %s: primary_bars %d below required %d", p.Name, p.PrimaryBars, p.MinTrendBars())
	}
	return nil
}
