package calculator

import (
	"errors"

	"CoinPilot/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateEMA computes the exponential moving average series over the given prices.
// The first value is seeded with the raw price, matching the common
// adjust=false convention.
func CalculateEMA(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(prices) == 0 {
		return nil, errors.New("no prices provided")
	}
	ema := make([]float64, len(prices))
	alpha := 2.0 / (float64(period) + 1.0)
	ema[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		ema[i] = prices[i]*alpha + ema[i-1]*(1-alpha)
	}
	return ema, nil
}

// ExtractCloses returns the close price series from a candle slice.
func ExtractCloses(candles []model.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
