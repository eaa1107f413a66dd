package sentiment

import "strings"

// Keyword lexicon for headline scoring. Crude next to a language model,
// but deterministic and dependency-free; scores land in [-1, +1].
var (
	bullishWords = []string{
		"moon", "bullish", "buy", "pump", "rocket", "gains", "profit",
		"surge", "rally", "breakout", "hodl", "accumulate", "undervalued",
		"adoption", "all-time high", "ath",
	}
	bearishWords = []string{
		"crash", "bearish", "sell", "dump", "rekt", "scam", "dead",
		"bubble", "collapse", "panic", "fear", "drop", "plunge",
		"liquidation", "selloff",
	}
)

// ScoreText scores a single text by keyword balance: (bull-bear)/(bull+bear).
// Returns 0 for empty or keyword-free text.
func ScoreText(text string) float64 {
	lower := strings.ToLower(text)
	var bull, bear int
	for _, w := range bullishWords {
		if strings.Contains(lower, w) {
			bull++
		}
	}
	for _, w := range bearishWords {
		if strings.Contains(lower, w) {
			bear++
		}
	}
	total := bull + bear
	if total == 0 {
		return 0
	}
	return float64(bull-bear) / float64(total)
}

// ScoreWeighted returns the weighted mean score of the given texts.
// Nil weights means equal weighting; non-positive weights count as 1.
func ScoreWeighted(texts []string, weights []float64) float64 {
	if len(texts) == 0 {
		return 0
	}
	var sum, totalWeight float64
	for i, t := range texts {
		w := 1.0
		if weights != nil && i < len(weights) && weights[i] > 0 {
			w = weights[i]
		}
		sum += ScoreText(t) * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}
