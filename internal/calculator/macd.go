package calculator

import "errors"

// MACDResult holds the last two points of the MACD and signal lines,
// enough to detect a crossover on the latest candle.
type MACDResult struct {
	MACD       float64
	Signal     float64
	PrevMACD   float64
	PrevSignal float64
}

// BullishCrossover reports whether the MACD line crossed above the signal
// line on the latest two points.
func (m MACDResult) BullishCrossover() bool {
	return m.PrevMACD < m.PrevSignal && m.MACD > m.Signal
}

// BearishCrossover reports whether the MACD line crossed below the signal
// line on the latest two points.
func (m MACDResult) BearishCrossover() bool {
	return m.PrevMACD > m.PrevSignal && m.MACD < m.Signal
}

// CalculateMACD computes MACD(fast, slow, signal) over the price series.
// Requires at least slow+2 prices so that a crossover can be evaluated.
func CalculateMACD(prices []float64, fast, slow, signalPeriod int) (MACDResult, error) {
	if fast <= 0 || slow <= 0 || signalPeriod <= 0 {
		return MACDResult{}, errors.New("periods must be positive")
	}
	if fast >= slow {
		return MACDResult{}, errors.New("fast period must be shorter than slow period")
	}
	if len(prices) < slow+2 {
		return MACDResult{}, errors.New("not enough data for MACD calculation")
	}

	emaFast, err := CalculateEMA(prices, fast)
	if err != nil {
		return MACDResult{}, err
	}
	emaSlow, err := CalculateEMA(prices, slow)
	if err != nil {
		return MACDResult{}, err
	}

	macdLine := make([]float64, len(prices))
	for i := range prices {
		macdLine[i] = emaFast[i] - emaSlow[i]
	}
	signalLine, err := CalculateEMA(macdLine, signalPeriod)
	if err != nil {
		return MACDResult{}, err
	}

	n := len(prices)
	return MACDResult{
		MACD:       macdLine[n-1],
		Signal:     signalLine[n-1],
		PrevMACD:   macdLine[n-2],
		PrevSignal: signalLine[n-2],
	}, nil
}
