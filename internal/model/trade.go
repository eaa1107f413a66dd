package model

import "time"

// Outcome is the realized result of a trade record.
type Outcome string

const (
	OutcomeOpen Outcome = "OPEN"
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
)

// TradeRecord is one executed trade. Immutable once closed: a BUY starts
// OPEN and is mutated exactly once when the position is closed; a SELL is
// born closed with the realized result it produced.
type TradeRecord struct {
	ID            int64      `json:"id"`
	Timestamp     time.Time  `json:"timestamp"`
	Action        Action     `json:"action"`
	Amount        float64    `json:"amount"` // quote amount for BUY, base amount for SELL
	Price         float64    `json:"price"`
	Reasoning     string     `json:"reasoning"`
	Outcome       Outcome    `json:"outcome"`
	ProfitLossPct *float64   `json:"profit_loss_pct,omitempty"` // nil while OPEN
	UnrealizedPct *float64   `json:"unrealized_pct,omitempty"`  // marked each cycle while OPEN
	SellPrice     *float64   `json:"sell_price,omitempty"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
}

// Settings is the mutable threshold block persisted with the ledger.
// Only the adaptive controller mutates it, and only between cycles.
type Settings struct {
	RSIOversold          float64 `json:"rsi_oversold"`
	RSIOverbought        float64 `json:"rsi_overbought"`
	SignalThreshold      float64 `json:"signal_threshold"` // adaptive T
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	MaxDrawdownPercent   float64 `json:"max_drawdown_percent"`
	TradePercent         float64 `json:"trade_percent"` // fraction of balance per trade, 0..1
}

// DefaultSettings returns the initial threshold block.
func DefaultSettings() Settings {
	return Settings{
		RSIOversold:          35,
		RSIOverbought:        65,
		SignalThreshold:      1.0,
		MaxConsecutiveLosses: 3,
		MaxDrawdownPercent:   10,
		TradePercent:         0.5,
	}
}

// BrainState is the small non-derivable state persisted alongside the
// ledger: everything else (streaks, drawdown, phase) is recomputed from
// the trade list and live equity on every cycle.
type BrainState struct {
	StartingValue  float64    `json:"starting_value"`            // first observed portfolio value
	PeakEquity     float64    `json:"peak_equity"`               // monotonically non-decreasing
	Stopped        bool       `json:"stopped"`                   // absorbing stop marker
	StoppedReason  string     `json:"stopped_reason,omitempty"`
	LastCooldownAt *time.Time `json:"last_cooldown_at,omitempty"` // pause cooldown watermark
}

// RiskPhase governs whether trading is permitted.
type RiskPhase string

const (
	PhaseActive  RiskPhase = "ACTIVE"
	PhasePaused  RiskPhase = "PAUSED"
	PhaseStopped RiskPhase = "STOPPED"
)

// PerformanceStats is derived from the trade list, never stored.
type PerformanceStats struct {
	TotalTrades       int
	ClosedTrades      int
	Wins              int
	Losses            int
	WinRate           float64 // percent
	AvgWin            float64 // mean P/L pct of winners
	AvgLoss           float64 // mean P/L pct of losers
	BestTrade         float64
	WorstTrade        float64
	TotalPnLPct       float64 // sum of realized P/L percentages
	ConsecutiveLosses int     // trailing LOSS streak
}
