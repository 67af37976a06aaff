package indicator

import "iter"

type emaState struct {
	alpha  float64
	value  float64
	seeded bool
}

func newEMA(span int) emaState {
	return emaState{alpha: 2.0 / (float64(span) + 1)}
}

// newWilder smooths with alpha = 1/period, the RSI/ADX recurrence.
func newWilder(period int) emaState {
	return emaState{alpha: 1.0 / float64(period)}
}

func (e *emaState) Update(x float64) float64 {
	if !e.seeded {
		e.value = x
		e.seeded = true
		return e.value
	}
	e.value = e.alpha*x + (1-e.alpha)*e.value
	return e.value
}

// EMA is the exponential moving average with alpha = 2/(span+1), seeded with xs[0].
// The output is aligned index-for-index with xs.
func EMA(xs []float64, span int) ([]float64, error) {
	if err := checkWindow(len(xs), span, span); err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(xs))
	for _, v := range EMASeq(xs, span) {
		out = append(out, v)
	}
	return out, nil
}

// EMASeq yields the same recurrence lazily. Every range over it starts from xs[0] again.
// It yields nothing for a non-positive span.
func EMASeq(xs []float64, span int) iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		if span <= 0 {
			return
		}
		st := newEMA(span)
		for i, x := range xs {
			if !yield(i, st.Update(x)) {
				return
			}
		}
	}
}

func smooth(xs []float64, st emaState) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = st.Update(x)
	}
	return out
}
