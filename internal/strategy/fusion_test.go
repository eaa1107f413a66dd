package strategy

import (
	"math"
	"testing"

	"CoinPilot/internal/model"
)

func TestFuse_CombinedFormula(t *testing.T) {
	tests := []struct {
		name      string
		techScore int
		sentScore float64
		wantTech  float64
		wantSent  float64
		wantComb  float64
	}{
		{"strong technical only", 4, 0, 3, 0, 2.1},
		{"strong bearish sentiment only", 0, -4.5, 0, -3, -0.9},
		{"mixed", 2, 2.25, 1.5, 1.5, 1.5},
		{"all neutral", 0, 0, 0, 0, 0},
		{"oversaturated sentiment clamps to -3", 0, -6, 0, -3, -0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Fuse(
				&model.TechSnapshot{Score: tt.techScore},
				&model.SentimentSnapshot{Score: tt.sentScore},
			)
			if math.Abs(f.TechNorm-tt.wantTech) > 1e-9 {
				t.Errorf("tech norm: want %.3f, got %.3f", tt.wantTech, f.TechNorm)
			}
			if math.Abs(f.SentNorm-tt.wantSent) > 1e-9 {
				t.Errorf("sent norm: want %.3f, got %.3f", tt.wantSent, f.SentNorm)
			}
			if math.Abs(f.Combined-tt.wantComb) > 1e-9 {
				t.Errorf("combined: want %.3f, got %.3f", tt.wantComb, f.Combined)
			}
		})
	}
}

func TestDecide_ThresholdBoundaries(t *testing.T) {
	tests := []struct {
		combined  float64
		threshold float64
		want      model.Action
	}{
		{2.1, 1.0, model.ActionBuy},
		{1.0, 1.0, model.ActionBuy}, // equality triggers
		{0.99, 1.0, model.ActionHold},
		{-0.9, 1.0, model.ActionHold},
		{-1.0, 1.0, model.ActionSell}, // equality triggers
		{-2.5, 1.0, model.ActionSell},
		{0.6, 0.5, model.ActionBuy},
		{0.6, 2.0, model.ActionHold},
	}
	for _, tt := range tests {
		if got := Decide(tt.combined, tt.threshold); got != tt.want {
			t.Errorf("Decide(%.2f, %.2f) = %s, want %s", tt.combined, tt.threshold, got, tt.want)
		}
	}
}

func TestConfidence(t *testing.T) {
	if c := Confidence(3); c != 100 {
		t.Errorf("expected 100, got %.1f", c)
	}
	if c := Confidence(-1.5); c != 50 {
		t.Errorf("expected 50, got %.1f", c)
	}
	if c := Confidence(4.2); c != 100 {
		t.Errorf("expected cap at 100, got %.1f", c)
	}
}

func TestAdaptThreshold(t *testing.T) {
	losses := func(n int) []model.Outcome {
		out := make([]model.Outcome, n)
		for i := range out {
			out[i] = model.OutcomeLoss
		}
		return out
	}
	wins := func(n int) []model.Outcome {
		out := make([]model.Outcome, n)
		for i := range out {
			out[i] = model.OutcomeWin
		}
		return out
	}

	// Below the minimum sample size nothing changes.
	if got := AdaptThreshold(1.0, losses(4)); got != 1.0 {
		t.Errorf("small sample: expected unchanged 1.0, got %.2f", got)
	}

	// Poor win rate never decreases T; good win rate never increases it.
	cur := 1.0
	for i := 0; i < 20; i++ {
		next := AdaptThreshold(cur, losses(10))
		if next < cur {
			t.Fatalf("losing window decreased T: %.2f -> %.2f", cur, next)
		}
		cur = next
	}
	if cur != ThresholdMax {
		t.Errorf("expected T capped at %.2f, got %.2f", ThresholdMax, cur)
	}

	cur = 1.0
	for i := 0; i < 20; i++ {
		next := AdaptThreshold(cur, wins(10))
		if next > cur {
			t.Fatalf("winning window increased T: %.2f -> %.2f", cur, next)
		}
		cur = next
	}
	if cur != ThresholdMin {
		t.Errorf("expected T floored at %.2f, got %.2f", ThresholdMin, cur)
	}

	// Middling win rate (50%) leaves T alone.
	mixed := append(wins(5), losses(5)...)
	if got := AdaptThreshold(1.3, mixed); got != 1.3 {
		t.Errorf("50%% window: expected unchanged 1.3, got %.2f", got)
	}
}
