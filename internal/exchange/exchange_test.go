package exchange

import (
	"math"
	"testing"
	"time"
)

func TestPaperExecutor_BuySellRoundTrip(t *testing.T) {
	p := NewPaperExecutor(1000)

	fill, err := p.MarketBuy("BTC-USDC", 500, 50000)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if fill.Size != 0.01 {
		t.Errorf("expected size 0.01, got %.8f", fill.Size)
	}
	quote, base, _ := p.Balances("BTC-USDC")
	if quote != 500 || base != 0.01 {
		t.Errorf("after buy: quote %.2f base %.8f", quote, base)
	}

	fill, err = p.MarketSell("BTC-USDC", 0.01, 55000)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if fill.Funds != 550 {
		t.Errorf("expected proceeds 550, got %.2f", fill.Funds)
	}
	quote, base, _ = p.Balances("BTC-USDC")
	if quote != 1050 || base != 0 {
		t.Errorf("after sell: quote %.2f base %.8f", quote, base)
	}
}

func TestPaperExecutor_RejectsOverdraft(t *testing.T) {
	p := NewPaperExecutor(100)
	if _, err := p.MarketBuy("BTC-USDC", 200, 50000); err == nil {
		t.Error("expected insufficient funds error")
	}
	if _, err := p.MarketSell("BTC-USDC", 1, 50000); err == nil {
		t.Error("expected insufficient base error")
	}
	if _, err := p.MarketBuy("BTC-USDC", 50, 0); err == nil {
		t.Error("expected invalid price error")
	}
}

func TestMockMarketData_GeneratesChronologicalCandles(t *testing.T) {
	m := &MockMarketData{Price: 100}
	bars, err := m.Candles("BTC-USDC", time.Hour, 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 30 {
		t.Fatalf("expected 30 candles, got %d", len(bars))
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i-1].Time.Before(bars[i].Time) {
			t.Fatalf("candles out of order at %d", i)
		}
	}
}

func TestNearestGranularity(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{time.Minute, 60},
		{10 * time.Minute, 900},
		{time.Hour, 3600},
		{2 * time.Hour, 21600},
		{48 * time.Hour, 86400},
	}
	for _, tt := range tests {
		if got := nearestGranularity(tt.in); got != tt.want {
			t.Errorf("nearestGranularity(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSnapshot(t *testing.T) {
	p := NewPaperExecutor(1000)
	p.MarketBuy("BTC-USDC", 500, 50000)

	pf, err := Snapshot(p, "BTC-USDC", 52000)
	if err != nil {
		t.Fatal(err)
	}
	if pf.Quote != 500 {
		t.Errorf("quote = %.2f", pf.Quote)
	}
	if math.Abs(pf.TotalValue-1020) > 1e-9 {
		t.Errorf("total = %.2f, want 1020", pf.TotalValue)
	}
}

func TestSplitProduct(t *testing.T) {
	base, quote, err := splitProduct("BTC-USDC")
	if err != nil || base != "BTC" || quote != "USDC" {
		t.Errorf("got %s/%s err %v", base, quote, err)
	}
	if _, _, err := splitProduct("BTCUSDC"); err == nil {
		t.Error("expected error for malformed product")
	}
}
