package indicator

import (
	"fmt"
	"math"

	"signal_scanner/internal/models"
)

const DefaultADXPeriod = 14

// ADX smooths true range, +DM, -DM and DX with alpha = 1/period.
// The first bar has no previous close, so its true range is high-low and its moves are zero.
func ADX(highs, lows, closes []float64, period int) ([]float64, error) {
	if len(highs) != len(closes) || len(lows) != len(closes) {
		return nil, fmt.Errorf("indicator: adx input lengths differ: %d/%d/%d", len(highs), len(lows), len(closes))
	}
	if err := checkWindow(len(closes), period, period+1); err != nil {
		return nil, err
	}

	atr, plus, minus, dxs := newWilder(period), newWilder(period), newWilder(period), newWilder(period)
	out := make([]float64, len(closes))
	for i := range closes {
		tr := highs[i] - lows[i]
		plusDM, minusDM := 0.0, 0.0
		if i > 0 {
			tr = math.Max(tr, math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
			up := highs[i] - highs[i-1]
			down := lows[i-1] - lows[i]
			if up > down && up > 0 {
				plusDM = up
			}
			if down > up && down > 0 {
				minusDM = down
			}
		}

		a := atr.Update(tr)
		plusDI := 100 * plus.Update(plusDM) / (a + models.Epsilon)
		minusDI := 100 * minus.Update(minusDM) / (a + models.Epsilon)
		dx := math.Abs(plusDI-minusDI) / (plusDI + minusDI + models.Epsilon) * 100
		out[i] = dxs.Update(dx)
	}
	return out, nil
}
