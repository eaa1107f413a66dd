package strategy

import "CoinPilot/internal/model"

// Adaptive threshold rule: raise T when the recent win rate is poor so
// only stronger signals trade, lower it toward the floor when the edge is
// good. Deterministic and bounded, reassessed once per cycle.
const (
	AdaptWindow    = 10 // trailing closed trades considered
	adaptMinSample = 5  // below this, no adaptation
	adaptStep      = 0.1

	ThresholdMin = 0.5
	ThresholdMax = 2.0

	lowWinRate  = 40.0
	highWinRate = 60.0
)

// AdaptThreshold returns the next fusion threshold given the trailing
// closed-trade outcomes (oldest→newest, at most AdaptWindow entries).
func AdaptThreshold(current float64, recent []model.Outcome) float64 {
	if len(recent) < adaptMinSample {
		return current
	}

	wins := 0
	for _, o := range recent {
		if o == model.OutcomeWin {
			wins++
		}
	}
	winRate := float64(wins) / float64(len(recent)) * 100

	next := current
	switch {
	case winRate < lowWinRate:
		next += adaptStep
	case winRate > highWinRate:
		next -= adaptStep
	}
	if next < ThresholdMin {
		next = ThresholdMin
	}
	if next > ThresholdMax {
		next = ThresholdMax
	}
	return next
}
