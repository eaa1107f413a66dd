package strategy

import (
	"fmt"

	"CoinPilot/internal/calculator"
	"CoinPilot/internal/model"
)

const (
	rsiPeriod    = 14
	smaPeriod    = 25
	bbPeriod     = 20
	bbWidth      = 2.0
	macdFast     = 12
	macdSlow     = 26
	macdSignal   = 9
	trendEpsilon = 0.001 // price within ±0.1% of SMA-25 counts as flat
)

// MinCandles is the history required for the longest indicator plus the
// extra point needed to evaluate a MACD crossover.
const MinCandles = macdSlow + 2

// AnalyzeTechnical computes the four unit signals and their exact signed
// sum over the candle history (oldest→newest). Insufficient history yields
// a neutral snapshot with the Insufficient flag set, never an error.
func AnalyzeTechnical(candles []model.Candle, settings model.Settings) model.TechSnapshot {
	if len(candles) < MinCandles {
		return model.TechSnapshot{RSI: 50, Insufficient: true}
	}

	closes := calculator.ExtractCloses(candles)
	price := closes[len(closes)-1]
	snap := model.TechSnapshot{Price: price}

	rsi, err := calculator.CalculateRSI(closes, rsiPeriod)
	if err != nil {
		rsi = 50
	}
	snap.RSI = rsi
	rsiSig := model.UnitSignal{Name: "RSI"}
	switch {
	case rsi < settings.RSIOversold:
		rsiSig.Value = 1
		rsiSig.Commentary = fmt.Sprintf("RSI %.0f < %.0f (oversold)", rsi, settings.RSIOversold)
	case rsi > settings.RSIOverbought:
		rsiSig.Value = -1
		rsiSig.Commentary = fmt.Sprintf("RSI %.0f > %.0f (overbought)", rsi, settings.RSIOverbought)
	default:
		rsiSig.Commentary = fmt.Sprintf("RSI %.0f (neutral)", rsi)
	}

	macdSig := model.UnitSignal{Name: "MACD", Commentary: "MACD no crossover"}
	if macd, err := calculator.CalculateMACD(closes, macdFast, macdSlow, macdSignal); err == nil {
		snap.MACD = macd.MACD
		snap.MACDSignal = macd.Signal
		if macd.BullishCrossover() {
			macdSig.Value = 1
			macdSig.Commentary = "MACD bullish crossover"
		} else if macd.BearishCrossover() {
			macdSig.Value = -1
			macdSig.Commentary = "MACD bearish crossover"
		}
	}

	trendSig := model.UnitSignal{Name: "Trend"}
	if sma, err := calculator.CalculateSMA(closes, smaPeriod); err == nil {
		snap.SMA25 = sma
		switch {
		case price > sma*(1+trendEpsilon):
			trendSig.Value = 1
			trendSig.Commentary = fmt.Sprintf("price %.2f above SMA-25 %.2f", price, sma)
		case price < sma*(1-trendEpsilon):
			trendSig.Value = -1
			trendSig.Commentary = fmt.Sprintf("price %.2f below SMA-25 %.2f", price, sma)
		default:
			trendSig.Commentary = "price flat against SMA-25"
		}
	} else {
		trendSig.Commentary = "SMA-25 unavailable"
	}

	bbSig := model.UnitSignal{Name: "Bollinger", Commentary: "price inside Bollinger bands"}
	if bb, err := calculator.CalculateBollinger(closes, bbPeriod, bbWidth); err == nil {
		snap.BBLower = bb.Lower
		snap.BBUpper = bb.Upper
		if price <= bb.Lower {
			bbSig.Value = 1
			bbSig.Commentary = "price at/below lower Bollinger band"
		} else if price >= bb.Upper {
			bbSig.Value = -1
			bbSig.Commentary = "price at/above upper Bollinger band"
		}
	}

	snap.Signals = []model.UnitSignal{rsiSig, macdSig, trendSig, bbSig}
	for _, s := range snap.Signals {
		snap.Score += s.Value
	}
	return snap
}
