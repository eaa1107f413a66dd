package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordDecision(_ *DecisionSnapshot) error { return nil }
func (n *NoopRecorder) RecordTrade(_ *TradeEvent) error          { return nil }
func (n *NoopRecorder) RecordRiskEvent(_ *RiskEvent) error       { return nil }
func (n *NoopRecorder) RecordThreshold(_ *ThresholdEvent) error  { return nil }
func (n *NoopRecorder) RecordSkip(_ *SkipEvent) error            { return nil }
func (n *NoopRecorder) Close() error                             { return nil }
