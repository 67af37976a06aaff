package indicator

import "signal_scanner/internal/models"

const DefaultRSIPeriod = 14

// RSI uses Wilder smoothing (alpha = 1/period) of gains and losses seeded with the first
// difference. Index 0 has no difference and is reported as 50.
func RSI(closes []float64, period int) ([]float64, error) {
	if err := checkWindow(len(closes), period, period+1); err != nil {
		return nil, err
	}

	out := make([]float64, len(closes))
	out[0] = 50
	gain, loss := newWilder(period), newWilder(period)
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		up, down := 0.0, 0.0
		if d > 0 {
			up = d
		} else {
			down = -d
		}
		g := gain.Update(up)
		l := loss.Update(down)
		rs := g / (l + models.Epsilon)
		out[i] = clamp(100-100/(1+rs), 0, 100)
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
