package calculator

import (
	"errors"
	"math"
)

// BollingerBands holds the middle band (SMA) and the upper/lower bands.
type BollingerBands struct {
	Middle float64
	Upper  float64
	Lower  float64
}

// CalculateBollinger computes Bollinger Bands over the trailing period
// using a population standard deviation and the given band width in
// standard deviations.
func CalculateBollinger(prices []float64, period int, width float64) (BollingerBands, error) {
	if period <= 0 {
		return BollingerBands{}, errors.New("period must be positive")
	}
	if len(prices) < period {
		return BollingerBands{}, errors.New("not enough data for Bollinger calculation")
	}

	window := prices[len(prices)-period:]
	mean := 0.0
	for _, p := range window {
		mean += p
	}
	mean /= float64(period)

	variance := 0.0
	for _, p := range window {
		d := p - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(period))

	return BollingerBands{
		Middle: mean,
		Upper:  mean + width*std,
		Lower:  mean - width*std,
	}, nil
}
