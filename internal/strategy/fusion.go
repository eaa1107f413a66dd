package strategy

import "CoinPilot/internal/model"

const (
	techWeight = 0.7
	sentWeight = 0.3

	// Nominal maxima used for normalization to the common ±3 scale.
	techMax = 4.0 // four unit signals
	sentMax = 4.5 // sum of sentiment source weights at unit sub-scores

	normScale = 3.0
)

// Fusion is the combined-score breakdown for one cycle.
type Fusion struct {
	TechNorm float64
	SentNorm float64
	Combined float64
}

// Fuse normalizes the technical and sentiment scores independently to ±3
// and combines them 70/30. Pure: reads nothing but its arguments.
func Fuse(tech *model.TechSnapshot, sent *model.SentimentSnapshot) Fusion {
	techNorm := float64(tech.Score) / techMax * normScale
	sentNorm := clamp(sent.Score/sentMax*normScale, -normScale, normScale)
	return Fusion{
		TechNorm: techNorm,
		SentNorm: sentNorm,
		Combined: techWeight*techNorm + sentWeight*sentNorm,
	}
}

// Decide maps a combined score to an action using the current adaptive
// threshold. Equality with the threshold triggers (closed interval).
func Decide(combined, threshold float64) model.Action {
	switch {
	case combined >= threshold:
		return model.ActionBuy
	case combined <= -threshold:
		return model.ActionSell
	default:
		return model.ActionHold
	}
}

// Confidence maps a combined score to 0..100.
func Confidence(combined float64) float64 {
	c := combined
	if c < 0 {
		c = -c
	}
	conf := c / normScale * 100
	if conf > 100 {
		conf = 100
	}
	return conf
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
