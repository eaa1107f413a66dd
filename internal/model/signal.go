package model

// Action is the discrete decision emitted each cycle.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// UnitSignal is a single technical sub-signal contribution (-1, 0 or +1).
type UnitSignal struct {
	Name       string
	Value      int
	Commentary string
}

// TechSnapshot holds the technical analysis result for one cycle.
type TechSnapshot struct {
	Signals      []UnitSignal
	Score        int // exact signed sum of unit signals, -4..+4
	RSI          float64
	MACD         float64
	MACDSignal   float64
	SMA25        float64
	BBLower      float64
	BBUpper      float64
	Price        float64
	Insufficient bool // not enough history; score forced to 0
}

// SourceScore is one sentiment source's weighted contribution.
type SourceScore struct {
	Name     string
	Score    float64 // bounded sub-score
	Weight   float64
	Weighted float64
	Degraded bool // source unavailable, contributed 0
}

// SentimentSnapshot holds the aggregated sentiment for one cycle.
type SentimentSnapshot struct {
	Sources   []SourceScore
	Score     float64 // weighted sum, clipped
	FearGreed int     // raw index 0..100, 50 when degraded
}

// Degraded returns the names of sources that failed this cycle.
func (s *SentimentSnapshot) Degraded() []string {
	var names []string
	for _, src := range s.Sources {
		if src.Degraded {
			names = append(names, src.Name)
		}
	}
	return names
}

// Decision is the reasoned output of one orchestrator cycle.
type Decision struct {
	Action     Action
	TechNorm   float64 // technical score normalized to ±3
	SentNorm   float64 // sentiment score normalized to ±3
	Combined   float64 // 0.7*TechNorm + 0.3*SentNorm
	Threshold  float64 // adaptive threshold T in effect
	Confidence float64 // 0..100
	Phase      RiskPhase
	Gated      bool   // risk machine overrode the fused action
	GateReason string // why, when Gated
	Reason     string // one-line summary
	Reasoning  string // full audit narrative
	Executed   bool   // a trade was placed and filled this cycle
}
