package notifier

import "context"

// Notifier delivers operator-facing reports. Decision reports and alerts
// go through SendWithRetry; command replies use the plain Send.
type Notifier interface {
	Send(text string) error
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// NoopNotifier discards everything. Used when Telegram is not configured.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) Send(_ string) error { return nil }

func (n *NoopNotifier) SendWithRetry(_ context.Context, _ string, _ int) error { return nil }
