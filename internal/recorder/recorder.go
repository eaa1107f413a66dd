package recorder

import "CoinPilot/internal/model"

// DecisionSnapshot holds everything worth keeping about one decision
// cycle, whether or not it traded.
type DecisionSnapshot struct {
	Price     float64
	Tech      *model.TechSnapshot
	Sentiment *model.SentimentSnapshot
	Decision  *model.Decision
	Equity    float64
}

// TradeEvent records an executed order.
type TradeEvent struct {
	TradeID   int64
	Action    model.Action
	Amount    float64
	Price     float64
	OrderID   string
	PnLPct    float64 // realized, sells only
	Reasoning string
}

// RiskEvent records a phase transition or risk trigger.
type RiskEvent struct {
	Phase       model.RiskPhase
	Reason      string
	DrawdownPct float64
	Streak      int
}

// SkipEvent records a cycle that produced no decision because a
// mandatory input could not be fetched.
type SkipEvent struct {
	Stage  string // "price" or "balances"
	Reason string
}

// ThresholdEvent records an adaptive threshold adjustment.
type ThresholdEvent struct {
	Old     float64
	New     float64
	WinRate float64
	Sample  int
}

// Recorder persists the decision journal for offline analysis.
type Recorder interface {
	RecordDecision(snap *DecisionSnapshot) error
	RecordTrade(evt *TradeEvent) error
	RecordRiskEvent(evt *RiskEvent) error
	RecordThreshold(evt *ThresholdEvent) error
	RecordSkip(evt *SkipEvent) error
	Close() error
}
