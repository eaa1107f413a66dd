package sentiment

import (
	"fmt"
	"log"

	"CoinPilot/internal/model"
)

// Source weights. Fear & Greed dominates slightly per the contrarian
// convention; every other source contributes at unit weight.
const (
	fearGreedWeight = 1.5
	communityWeight = 1.0
	newsWeight      = 1.0

	// scoreClip bounds the weighted sum so a single noisy source cannot
	// dominate fusion.
	scoreClip = 6.0
)

// FearGreedProvider returns the crypto Fear & Greed index (0..100).
type FearGreedProvider interface {
	FearGreedIndex() (int, error)
}

// CommunityProvider returns a signed sentiment score for one community.
type CommunityProvider interface {
	CommunitySentiment(source string) (float64, error)
}

// NewsProvider returns a signed sentiment score for recent headlines.
type NewsProvider interface {
	NewsSentiment() (float64, error)
}

// Aggregator fuses heterogeneous sentiment feeds into one bounded score.
// Each source degrades independently to neutral and is flagged; a dead
// feed never aborts a decision cycle.
type Aggregator struct {
	FearGreed   FearGreedProvider
	Community   CommunityProvider
	News        NewsProvider
	Communities []string // e.g. bitcoin, cryptocurrency
}

// Collect queries every source and returns the weighted, clipped score.
func (a *Aggregator) Collect() *model.SentimentSnapshot {
	snap := &model.SentimentSnapshot{FearGreed: 50}

	fg := model.SourceScore{Name: "Fear & Greed", Weight: fearGreedWeight}
	if a.FearGreed == nil {
		fg.Degraded = true
	} else if v, err := a.FearGreed.FearGreedIndex(); err != nil {
		log.Printf("[WARN] fear & greed fetch failed: %v", err)
		fg.Degraded = true
	} else {
		snap.FearGreed = v
		// 50 maps to 0; low values (fear) contribute positively.
		fg.Score = float64(50-v) / 50
		fg.Weighted = fg.Score * fg.Weight
	}
	snap.Sources = append(snap.Sources, fg)

	for _, community := range a.Communities {
		src := model.SourceScore{Name: fmt.Sprintf("r/%s", community), Weight: communityWeight}
		if a.Community == nil {
			src.Degraded = true
		} else if score, err := a.Community.CommunitySentiment(community); err != nil {
			log.Printf("[WARN] community sentiment %s failed: %v", community, err)
			src.Degraded = true
		} else {
			src.Score = clampScore(score, 1)
			src.Weighted = src.Score * src.Weight
		}
		snap.Sources = append(snap.Sources, src)
	}

	news := model.SourceScore{Name: "News", Weight: newsWeight}
	if a.News == nil {
		news.Degraded = true
	} else if score, err := a.News.NewsSentiment(); err != nil {
		log.Printf("[WARN] news sentiment failed: %v", err)
		news.Degraded = true
	} else {
		news.Score = clampScore(score, 1)
		news.Weighted = news.Score * news.Weight
	}
	snap.Sources = append(snap.Sources, news)

	total := 0.0
	for _, s := range snap.Sources {
		total += s.Weighted
	}
	snap.Score = clampScore(total, scoreClip)
	return snap
}

func clampScore(v, bound float64) float64 {
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}
