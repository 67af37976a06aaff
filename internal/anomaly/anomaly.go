// Package anomaly measures how abnormal the latest turnover print is against its own history.
package anomaly

import (
	"fmt"
	"math"
	"sort"

	talib "github.com/markcheno/go-talib"

	"signal_scanner/internal/indicator"
	"signal_scanner/internal/models"
)

const (
	rampBars = 3

	// talib.Var works from running sums; anything below this is rounding noise.
	varianceFloor = 1e-14
)

// VolumeAnomaly is evaluated at the latest bar.
type VolumeAnomaly struct {
	Ratio float64
	Z     float64
	Ramp  float64
}

// MinLen is the shortest turnover series Detect accepts for window n.
func MinLen(n int) int {
	return max(rampBars, n+2)
}

// Detect returns the raw ratio, log z-score and ramp of the last turnover print.
// The ratio compares against the baseline of the previous bar so the print never scores itself.
func Detect(turnover []float64, n int) (VolumeAnomaly, error) {
	if n <= 0 {
		return VolumeAnomaly{}, indicator.ErrInvalidWindow
	}
	if len(turnover) < MinLen(n) {
		return VolumeAnomaly{}, fmt.Errorf("%w: turnover has %d bars, need %d",
			models.ErrInsufficientHistory, len(turnover), MinLen(n))
	}

	last := len(turnover) - 1
	base, err := indicator.EMA(turnover, n)
	if err != nil {
		return VolumeAnomaly{}, err
	}
	ratio := Ratio(turnover[last], base[last-1])

	window := turnover[len(turnover)-n:]
	logs := make([]float64, n)
	for i, v := range window {
		logs[i] = math.Log(v + models.Epsilon)
	}
	sd := sampleStdDev(logs)
	z := 0.0
	if sd >= models.Epsilon {
		z = (math.Log(turnover[last]+models.Epsilon) - median(logs)) / sd
	}

	mean := talib.Sma(window, n)[n-1]
	recent := turnover[len(turnover)-rampBars:]
	sum := 0.0
	for _, v := range recent {
		sum += v
	}
	ramp := sum / (rampBars*mean + models.Epsilon)

	return VolumeAnomaly{Ratio: ratio, Z: z, Ramp: ramp}, nil
}

// Ratio is one print against a baseline, guarded for a zero baseline.
func Ratio(v, baseline float64) float64 {
	return v / (baseline + models.Epsilon)
}

// Thresholds is the "ratio or z or ramp" anomaly predicate. A non-positive threshold disables its arm.
type Thresholds struct {
	Ratio float64
	Z     float64
	Ramp  float64
}

func (t Thresholds) Exceeded(a VolumeAnomaly) bool {
	switch {
	case t.Ratio > 0 && a.Ratio >= t.Ratio:
		return true
	case t.Z > 0 && a.Z >= t.Z:
		return true
	case t.Ramp > 0 && a.Ramp >= t.Ramp:
		return true
	}
	return false
}

// sampleStdDev is the n-1 estimator over the whole slice. talib only offers the population form.
func sampleStdDev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	v := talib.Var(xs, n)[n-1] * float64(n) / float64(n-1)
	if v < varianceFloor {
		return 0
	}
	return math.Sqrt(v)
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
