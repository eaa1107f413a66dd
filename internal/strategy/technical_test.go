package strategy

import (
	"testing"
	"time"

	"CoinPilot/internal/model"
)

func candlesFromCloses(closes []float64) []model.Candle {
	candles := make([]model.Candle, len(closes))
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		candles[i] = model.Candle{
			Time:  base.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c * 1.002,
			Low:   c * 0.998,
			Close: c,
		}
	}
	return candles
}

func signalByName(t *testing.T, snap model.TechSnapshot, name string) model.UnitSignal {
	t.Helper()
	for _, s := range snap.Signals {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("signal %q not found", name)
	return model.UnitSignal{}
}

func TestAnalyzeTechnical_InsufficientHistory(t *testing.T) {
	closes := make([]float64, MinCandles-1)
	for i := range closes {
		closes[i] = 100
	}
	snap := AnalyzeTechnical(candlesFromCloses(closes), model.DefaultSettings())
	if !snap.Insufficient {
		t.Error("expected insufficient-data flag")
	}
	if snap.Score != 0 {
		t.Errorf("expected neutral score, got %d", snap.Score)
	}
}

func TestAnalyzeTechnical_CapitulationCandle(t *testing.T) {
	// 38 candles of gentle decline, then a 10% capitulation drop:
	// deeply oversold RSI, price under SMA-25, close under the lower band.
	closes := []float64{100}
	for i := 0; i < 37; i++ {
		closes = append(closes, closes[len(closes)-1]*0.99)
	}
	closes = append(closes, closes[len(closes)-1]*0.90)

	snap := AnalyzeTechnical(candlesFromCloses(closes), model.DefaultSettings())
	if snap.Insufficient {
		t.Fatal("unexpected insufficient-data flag")
	}

	if sig := signalByName(t, snap, "RSI"); sig.Value != 1 {
		t.Errorf("expected oversold RSI signal +1, got %+d (%s)", sig.Value, sig.Commentary)
	}
	if sig := signalByName(t, snap, "Trend"); sig.Value != -1 {
		t.Errorf("expected trend signal -1, got %+d", sig.Value)
	}
	if sig := signalByName(t, snap, "Bollinger"); sig.Value != 1 {
		t.Errorf("expected lower-band signal +1, got %+d", sig.Value)
	}
	if sig := signalByName(t, snap, "MACD"); sig.Value != 0 {
		t.Errorf("expected no MACD crossover, got %+d", sig.Value)
	}

	// The score is the exact signed sum of the unit contributions.
	sum := 0
	for _, s := range snap.Signals {
		sum += s.Value
	}
	if snap.Score != sum {
		t.Errorf("score %d != sum of unit signals %d", snap.Score, sum)
	}
	if snap.Score != 1 {
		t.Errorf("expected score 1 for capitulation fixture, got %d", snap.Score)
	}
}

func TestAnalyzeTechnical_RecoveryCrossover(t *testing.T) {
	// 35 candles of decline, then two strong up candles: RSI still
	// oversold while the MACD line crosses above its signal line on the
	// latest two points.
	closes := []float64{100}
	for i := 0; i < 34; i++ {
		closes = append(closes, closes[len(closes)-1]*0.99)
	}
	closes = append(closes, closes[len(closes)-1]*1.025)
	closes = append(closes, closes[len(closes)-1]*1.025)

	snap := AnalyzeTechnical(candlesFromCloses(closes), model.DefaultSettings())
	if sig := signalByName(t, snap, "RSI"); sig.Value != 1 {
		t.Errorf("expected oversold RSI signal +1, got %+d (%s)", sig.Value, sig.Commentary)
	}
	if sig := signalByName(t, snap, "MACD"); sig.Value != 1 {
		t.Errorf("expected bullish crossover +1, got %+d", sig.Value)
	}
	if sig := signalByName(t, snap, "Trend"); sig.Value != -1 {
		t.Errorf("expected trend signal -1, got %+d", sig.Value)
	}
	if snap.Score != 1 {
		t.Errorf("expected score 1, got %d", snap.Score)
	}
}
