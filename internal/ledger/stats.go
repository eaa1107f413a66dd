package ledger

import (
	"time"

	"CoinPilot/internal/model"
)

// Stats derives performance statistics from the trade list. Position
// outcomes live on BUY records (a SELL record mirrors the realization for
// the audit trail), so win/loss figures count closed BUYs only. Nothing
// here is stored redundantly.
func (l *Ledger) Stats() model.PerformanceStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := model.PerformanceStats{TotalTrades: len(l.doc.Trades)}

	var winSum, lossSum float64
	first := true
	for _, t := range l.doc.Trades {
		if t.Action != model.ActionBuy || t.Outcome == model.OutcomeOpen || t.ProfitLossPct == nil {
			continue
		}
		pnl := *t.ProfitLossPct
		stats.ClosedTrades++
		stats.TotalPnLPct += pnl
		if t.Outcome == model.OutcomeWin {
			stats.Wins++
			winSum += pnl
		} else {
			stats.Losses++
			lossSum += pnl
		}
		if first || pnl > stats.BestTrade {
			stats.BestTrade = pnl
		}
		if first || pnl < stats.WorstTrade {
			stats.WorstTrade = pnl
		}
		first = false
	}

	if stats.ClosedTrades > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.ClosedTrades) * 100
	}
	if stats.Wins > 0 {
		stats.AvgWin = winSum / float64(stats.Wins)
	}
	if stats.Losses > 0 {
		stats.AvgLoss = lossSum / float64(stats.Losses)
	}
	stats.ConsecutiveLosses = l.streakLocked()
	return stats
}

// RecentOutcomes returns the outcomes of the last n closed positions,
// oldest→newest.
func (l *Ledger) RecentOutcomes(n int) []model.Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []model.Outcome
	for _, t := range l.doc.Trades {
		if t.Action == model.ActionBuy && t.Outcome != model.OutcomeOpen {
			out = append(out, t.Outcome)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// LastClosedAt returns the close time of the most recently closed
// position; ok is false if no position has ever closed.
func (l *Ledger) LastClosedAt() (t time.Time, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.doc.Trades) - 1; i >= 0; i-- {
		rec := l.doc.Trades[i]
		if rec.Action == model.ActionBuy && rec.Outcome != model.OutcomeOpen && rec.ClosedAt != nil {
			return *rec.ClosedAt, true
		}
	}
	return time.Time{}, false
}

func (l *Ledger) streakLocked() int {
	streak := 0
	for i := len(l.doc.Trades) - 1; i >= 0; i-- {
		t := l.doc.Trades[i]
		if t.Action != model.ActionBuy || t.Outcome == model.OutcomeOpen {
			continue
		}
		if t.Outcome == model.OutcomeLoss {
			streak++
			continue
		}
		break
	}
	return streak
}
