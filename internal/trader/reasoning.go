package trader

import (
	"fmt"
	"strings"

	"CoinPilot/internal/model"
	"CoinPilot/internal/strategy"
)

// BuildReasoning renders the audit narrative for one decision: every
// active technical signal, the sentiment breakdown, and the arithmetic
// that produced the action. Pure formatter, no side effects.
func BuildReasoning(tech *model.TechSnapshot, sent *model.SentimentSnapshot, fusion strategy.Fusion, dec *model.Decision) (reason, full string) {
	var b strings.Builder

	if tech.Insufficient {
		b.WriteString("Technical: insufficient candle history, score 0.\n")
	} else {
		var active []string
		for _, s := range tech.Signals {
			if s.Value != 0 {
				active = append(active, s.Commentary)
			}
		}
		if len(active) == 0 {
			b.WriteString(fmt.Sprintf("Technical score %+d: no directional signals.\n", tech.Score))
		} else {
			b.WriteString(fmt.Sprintf("Technical score %+d: %s.\n", tech.Score, strings.Join(active, "; ")))
		}
	}

	fgLine := fmt.Sprintf("Fear & Greed %d", sent.FearGreed)
	for _, s := range sent.Sources {
		if s.Name == "Fear & Greed" && s.Degraded {
			fgLine = "Fear & Greed unavailable"
		}
	}
	b.WriteString(fmt.Sprintf("Sentiment %+.2f: %s", sent.Score, fgLine))
	for _, s := range sent.Sources {
		if s.Name == "Fear & Greed" {
			continue
		}
		if s.Degraded {
			b.WriteString(fmt.Sprintf("; %s unavailable", s.Name))
		} else {
			b.WriteString(fmt.Sprintf("; %s %+.2f", s.Name, s.Weighted))
		}
	}
	b.WriteString(".\n")

	raw := strategy.Decide(fusion.Combined, dec.Threshold)
	b.WriteString(fmt.Sprintf("Combined %+.2f = 0.7×%+.2f + 0.3×%+.2f, threshold ±%.2f → %s.",
		fusion.Combined, fusion.TechNorm, fusion.SentNorm, dec.Threshold, raw))
	if dec.Gated {
		b.WriteString(fmt.Sprintf("\nOverridden to HOLD: %s.", dec.GateReason))
	}

	reason = fmt.Sprintf("%s at combined %+.2f (threshold ±%.2f)", dec.Action, fusion.Combined, dec.Threshold)
	if dec.Gated {
		reason = fmt.Sprintf("HOLD (%s)", dec.GateReason)
	}
	return reason, b.String()
}
