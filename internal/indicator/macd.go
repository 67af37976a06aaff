package indicator

const (
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

type MACDResult struct {
	Line   []float64
	Signal []float64
	Hist   []float64
}

// Crossed reports the sign of line-signal at index i: 1 above, -1 below, 0 equal.
func (m MACDResult) Crossed(i int) int {
	switch d := m.Line[i] - m.Signal[i]; {
	case d > 0:
		return 1
	case d < 0:
		return -1
	}
	return 0
}

func MACD(closes []float64, fast, slow, signal int) (MACDResult, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return MACDResult{}, ErrInvalidWindow
	}
	if err := checkWindow(len(closes), slow, slow); err != nil {
		return MACDResult{}, err
	}

	fastEMA := smooth(closes, newEMA(fast))
	slowEMA := smooth(closes, newEMA(slow))
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig := smooth(line, newEMA(signal))
	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return MACDResult{Line: line, Signal: sig, Hist: hist}, nil
}
