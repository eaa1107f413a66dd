package sentiment

import (
	"errors"
	"math"
	"testing"
)

type stubFearGreed struct {
	value int
	err   error
}

func (s stubFearGreed) FearGreedIndex() (int, error) { return s.value, s.err }

type stubCommunity struct {
	scores map[string]float64
	err    error
}

func (s stubCommunity) CommunitySentiment(source string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.scores[source], nil
}

type stubNews struct {
	score float64
	err   error
}

func (s stubNews) NewsSentiment() (float64, error) { return s.score, s.err }

func TestCollect_FearGreedContrarianRemap(t *testing.T) {
	tests := []struct {
		name  string
		value int
		want  float64 // expected weighted contribution
	}{
		{"extreme fear is bullish", 0, 1.5},
		{"fear 22", 22, (50.0 - 22.0) / 50 * 1.5},
		{"neutral 50", 50, 0},
		{"extreme greed is bearish", 100, -1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := &Aggregator{
				FearGreed: stubFearGreed{value: tt.value},
				Community: stubCommunity{},
				News:      stubNews{},
			}
			snap := agg.Collect()
			if math.Abs(snap.Score-tt.want) > 1e-9 {
				t.Errorf("F&G=%d: expected score %.3f, got %.3f", tt.value, tt.want, snap.Score)
			}
			if snap.FearGreed != tt.value {
				t.Errorf("expected raw index %d, got %d", tt.value, snap.FearGreed)
			}
		})
	}
}

func TestCollect_WeightedSum(t *testing.T) {
	agg := &Aggregator{
		FearGreed:   stubFearGreed{value: 22},
		Community:   stubCommunity{scores: map[string]float64{"bitcoin": 0.4, "cryptocurrency": 0.2}},
		News:        stubNews{score: 0.1},
		Communities: []string{"bitcoin", "cryptocurrency"},
	}
	snap := agg.Collect()

	want := (50.0-22.0)/50*1.5 + 0.4 + 0.2 + 0.1
	if math.Abs(snap.Score-want) > 1e-9 {
		t.Errorf("expected %.4f, got %.4f", want, snap.Score)
	}
	if len(snap.Sources) != 4 {
		t.Fatalf("expected 4 sources, got %d", len(snap.Sources))
	}
	if n := snap.Degraded(); n != nil {
		t.Errorf("expected no degraded sources, got %v", n)
	}
}

func TestCollect_DegradedSourcesNeutral(t *testing.T) {
	agg := &Aggregator{
		FearGreed:   stubFearGreed{err: errors.New("down")},
		Community:   stubCommunity{err: errors.New("down")},
		News:        stubNews{err: errors.New("down")},
		Communities: []string{"bitcoin"},
	}
	snap := agg.Collect()
	if snap.Score != 0 {
		t.Errorf("all sources down: expected neutral score, got %.3f", snap.Score)
	}
	if snap.FearGreed != 50 {
		t.Errorf("expected neutral F&G 50, got %d", snap.FearGreed)
	}
	if got := len(snap.Degraded()); got != 3 {
		t.Errorf("expected 3 degraded sources, got %d", got)
	}
}

func TestCollect_ClipsExtremes(t *testing.T) {
	// Sub-scores beyond the unit bound are clamped before weighting, and
	// the total is clipped.
	agg := &Aggregator{
		FearGreed:   stubFearGreed{value: 0},
		Community:   stubCommunity{scores: map[string]float64{"a": 99, "b": 99}},
		News:        stubNews{score: 99},
		Communities: []string{"a", "b"},
	}
	snap := agg.Collect()
	if snap.Score > scoreClip {
		t.Errorf("expected score clipped to %.1f, got %.3f", scoreClip, snap.Score)
	}
	want := 1.5 + 1 + 1 + 1 // every source saturated
	if math.Abs(snap.Score-want) > 1e-9 {
		t.Errorf("expected saturated score %.1f, got %.3f", want, snap.Score)
	}
}

func TestScoreText(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"Bitcoin to the moon, massive gains ahead", 1},
		{"Total crash, panic selling everywhere", -1},
		{"BTC price unchanged today", 0},
		{"rally stalls after a sharp drop", 0}, // one bullish, one bearish
	}
	for _, tt := range tests {
		if got := ScoreText(tt.text); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ScoreText(%q) = %.2f, want %.2f", tt.text, got, tt.want)
		}
	}
}

func TestScoreWeighted(t *testing.T) {
	texts := []string{"moon rally", "crash dump"}
	// Heavier weight on the bullish title pulls the mean positive.
	got := ScoreWeighted(texts, []float64{3, 1})
	if got <= 0 {
		t.Errorf("expected positive weighted score, got %.3f", got)
	}
	if s := ScoreWeighted(nil, nil); s != 0 {
		t.Errorf("expected 0 for empty input, got %.3f", s)
	}
}
