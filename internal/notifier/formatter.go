package notifier

import (
	"fmt"
	"strings"
	"time"

	"CoinPilot/internal/model"
)

func actionEmoji(a model.Action) string {
	switch a {
	case model.ActionBuy:
		return "🟢"
	case model.ActionSell:
		return "🔴"
	default:
		return "⚪"
	}
}

// FormatDecisionReport renders one decision cycle for Telegram.
func FormatDecisionReport(dec *model.Decision, tech *model.TechSnapshot, sent *model.SentimentSnapshot, pf model.Portfolio) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s <b>CoinPilot</b> | %s\n\n", actionEmoji(dec.Action), time.Now().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Price: $%.2f\n\n", pf.Price))

	b.WriteString("📈 <b>Technical signals:</b>\n")
	for _, s := range tech.Signals {
		b.WriteString(fmt.Sprintf("  %s: %+d (%s)\n", s.Name, s.Value, s.Commentary))
	}
	b.WriteString(fmt.Sprintf("  score: %+d\n\n", tech.Score))

	b.WriteString("🗞 <b>Sentiment:</b>\n")
	for _, s := range sent.Sources {
		if s.Degraded {
			b.WriteString(fmt.Sprintf("  %s: unavailable\n", s.Name))
			continue
		}
		b.WriteString(fmt.Sprintf("  %s: %+.2f (×%.1f) = %+.2f\n", s.Name, s.Score, s.Weight, s.Weighted))
	}
	b.WriteString(fmt.Sprintf("  score: %+.2f\n\n", sent.Score))

	b.WriteString(fmt.Sprintf("⚖️ Combined: %+.2f (threshold ±%.2f)\n", dec.Combined, dec.Threshold))
	b.WriteString(fmt.Sprintf("Decision: <b>%s</b> | confidence %.0f%%\n", dec.Action, dec.Confidence))
	if dec.Gated {
		b.WriteString(fmt.Sprintf("⛔ overridden: %s\n", dec.GateReason))
	}
	if dec.Phase != model.PhaseActive {
		b.WriteString(fmt.Sprintf("⚠️ risk phase: %s\n", dec.Phase))
	}
	b.WriteString(fmt.Sprintf("\n💼 Portfolio: $%.2f ($%.2f cash + $%.2f held)\n", pf.TotalValue, pf.Quote, pf.BaseValue))
	return b.String()
}

// FormatStats renders the /stats reply.
func FormatStats(stats model.PerformanceStats, threshold float64) string {
	var b strings.Builder
	b.WriteString("📊 <b>Performance</b>\n\n")
	b.WriteString(fmt.Sprintf("Trades: %d (%d closed)\n", stats.TotalTrades, stats.ClosedTrades))
	if stats.ClosedTrades == 0 {
		b.WriteString("No closed positions yet.\n")
	} else {
		b.WriteString(fmt.Sprintf("Win rate: %.1f%% (%dW / %dL)\n", stats.WinRate, stats.Wins, stats.Losses))
		b.WriteString(fmt.Sprintf("Avg win: %+.2f%% | Avg loss: %+.2f%%\n", stats.AvgWin, stats.AvgLoss))
		b.WriteString(fmt.Sprintf("Best: %+.2f%% | Worst: %+.2f%%\n", stats.BestTrade, stats.WorstTrade))
		b.WriteString(fmt.Sprintf("Total realized P/L: %+.2f%%\n", stats.TotalPnLPct))
	}
	b.WriteString(fmt.Sprintf("\nSignal threshold: ±%.2f\n", threshold))
	if stats.ConsecutiveLosses > 0 {
		b.WriteString(fmt.Sprintf("Consecutive losses: %d\n", stats.ConsecutiveLosses))
	}
	return b.String()
}

// FormatStatus renders the /status reply.
func FormatStatus(pf model.Portfolio, state model.BrainState, pos *model.TradeRecord) string {
	var b strings.Builder
	b.WriteString("💼 <b>Status</b>\n\n")
	b.WriteString(fmt.Sprintf("Price: $%.2f\n", pf.Price))
	b.WriteString(fmt.Sprintf("Cash: $%.2f | Held: $%.2f\n", pf.Quote, pf.BaseValue))
	b.WriteString(fmt.Sprintf("Total: $%.2f", pf.TotalValue))
	if state.StartingValue > 0 {
		pct := (pf.TotalValue - state.StartingValue) / state.StartingValue * 100
		b.WriteString(fmt.Sprintf(" (%+.2f%% since start)", pct))
	}
	b.WriteString("\n")
	if pos != nil {
		b.WriteString(fmt.Sprintf("\nOpen position: entry $%.2f", pos.Price))
		if pos.UnrealizedPct != nil {
			b.WriteString(fmt.Sprintf(", unrealized %+.2f%%", *pos.UnrealizedPct))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("\nNo open position.\n")
	}
	if state.Stopped {
		b.WriteString(fmt.Sprintf("\n🛑 STOPPED: %s\n", state.StoppedReason))
	}
	return b.String()
}

// FormatRisk renders the /risk reply.
func FormatRisk(phase model.RiskPhase, reason string, drawdownPct float64, streak int, settings model.Settings) string {
	var b strings.Builder
	b.WriteString("🛡 <b>Risk</b>\n\n")
	b.WriteString(fmt.Sprintf("Phase: %s\n", phase))
	if reason != "" {
		b.WriteString(fmt.Sprintf("Reason: %s\n", reason))
	}
	b.WriteString(fmt.Sprintf("Drawdown: %.1f%% (limit %.1f%%)\n", drawdownPct, settings.MaxDrawdownPercent))
	b.WriteString(fmt.Sprintf("Loss streak: %d (limit %d)\n", streak, settings.MaxConsecutiveLosses))
	return b.String()
}

// FormatDailySummary renders the scheduled end-of-day report.
func FormatDailySummary(stats model.PerformanceStats, pf model.Portfolio, state model.BrainState, threshold float64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Daily summary</b> | %s\n\n", time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Portfolio: $%.2f", pf.TotalValue))
	if state.StartingValue > 0 {
		pct := (pf.TotalValue - state.StartingValue) / state.StartingValue * 100
		b.WriteString(fmt.Sprintf(" (%+.2f%% since start)", pct))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Closed trades: %d | Win rate: %.1f%%\n", stats.ClosedTrades, stats.WinRate))
	b.WriteString(fmt.Sprintf("Realized P/L: %+.2f%%\n", stats.TotalPnLPct))
	b.WriteString(fmt.Sprintf("Threshold: ±%.2f\n", threshold))
	return b.String()
}

// FormatTradeAlert renders an immediate fill notification.
func FormatTradeAlert(rec model.TradeRecord, fillFunds float64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s executed</b>\n\n", actionEmoji(rec.Action), rec.Action))
	b.WriteString(fmt.Sprintf("Price: $%.2f | Amount: $%.2f\n", rec.Price, fillFunds))
	if rec.ProfitLossPct != nil {
		b.WriteString(fmt.Sprintf("Realized: %+.2f%% (%s)\n", *rec.ProfitLossPct, rec.Outcome))
	}
	if rec.Reasoning != "" {
		b.WriteString("\n" + rec.Reasoning + "\n")
	}
	return b.String()
}
