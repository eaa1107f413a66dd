package risk

import (
	"errors"
	"testing"
	"time"

	"CoinPilot/internal/model"
)

type stubStore struct {
	state      model.BrainState
	settings   model.Settings
	stats      model.PerformanceStats
	lastClosed time.Time
	hasClosed  bool
	updateErr  error
}

func (s *stubStore) State() model.BrainState        { return s.state }
func (s *stubStore) Settings() model.Settings       { return s.settings }
func (s *stubStore) Stats() model.PerformanceStats  { return s.stats }
func (s *stubStore) LastClosedAt() (time.Time, bool) { return s.lastClosed, s.hasClosed }
func (s *stubStore) UpdateState(fn func(*model.BrainState)) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	fn(&s.state)
	return nil
}

func newStub() *stubStore {
	return &stubStore{settings: model.DefaultSettings()}
}

func TestEvaluate_ActiveByDefault(t *testing.T) {
	m := NewMachine(newStub())
	ev := m.Evaluate(1000)
	if ev.Phase != model.PhaseActive {
		t.Fatalf("expected ACTIVE, got %s (%s)", ev.Phase, ev.Reason)
	}
}

func TestEvaluate_TracksPeakEquity(t *testing.T) {
	store := newStub()
	m := NewMachine(store)
	m.Evaluate(1000)
	if store.state.PeakEquity != 1000 {
		t.Fatalf("expected peak 1000, got %.1f", store.state.PeakEquity)
	}
	m.Evaluate(900)
	if store.state.PeakEquity != 1000 {
		t.Errorf("peak must not decrease, got %.1f", store.state.PeakEquity)
	}
}

func TestEvaluate_DrawdownStopIsAbsorbing(t *testing.T) {
	store := newStub()
	store.state.PeakEquity = 1000
	m := NewMachine(store)

	ev := m.Evaluate(890) // 11% > default 10% limit
	if ev.Phase != model.PhaseStopped {
		t.Fatalf("expected STOPPED, got %s", ev.Phase)
	}
	if !store.state.Stopped {
		t.Error("expected stop latched in state")
	}

	// Recovery does not un-stop.
	ev = m.Evaluate(1200)
	if ev.Phase != model.PhaseStopped {
		t.Errorf("expected STOPPED to persist after recovery, got %s", ev.Phase)
	}
}

func TestEvaluate_LossStreakCooldownServedOnce(t *testing.T) {
	store := newStub()
	store.stats.ConsecutiveLosses = 3
	store.hasClosed = true
	store.lastClosed = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	m := NewMachine(store)
	m.now = func() time.Time { return store.lastClosed.Add(time.Minute) }

	ev := m.Evaluate(1000)
	if ev.Phase != model.PhasePaused {
		t.Fatalf("expected PAUSED on fresh streak, got %s", ev.Phase)
	}
	if store.state.LastCooldownAt == nil {
		t.Fatal("expected cooldown watermark persisted")
	}

	// Same streak, no new closed trade: cooldown already served.
	ev = m.Evaluate(1000)
	if ev.Phase != model.PhaseActive {
		t.Errorf("expected ACTIVE after cooldown served, got %s (%s)", ev.Phase, ev.Reason)
	}

	// A new loss closing after the watermark re-arms the pause.
	store.lastClosed = store.lastClosed.Add(time.Hour)
	store.stats.ConsecutiveLosses = 4
	m.now = func() time.Time { return store.lastClosed.Add(time.Minute) }
	ev = m.Evaluate(1000)
	if ev.Phase != model.PhasePaused {
		t.Errorf("expected PAUSED on new loss, got %s", ev.Phase)
	}
}

func TestEvaluate_PersistFailureFailsClosed(t *testing.T) {
	store := newStub()
	store.updateErr = errors.New("disk full")
	m := NewMachine(store)

	ev := m.Evaluate(1000) // peak update fails
	if ev.Phase != model.PhasePaused {
		t.Errorf("expected PAUSED on persist failure, got %s", ev.Phase)
	}
}

func TestGate(t *testing.T) {
	tests := []struct {
		name        string
		action      model.Action
		hasPosition bool
		want        model.Action
	}{
		{"buy without position passes", model.ActionBuy, false, model.ActionBuy},
		{"buy with position held", model.ActionBuy, true, model.ActionHold},
		{"sell with position passes", model.ActionSell, true, model.ActionSell},
		{"sell without position held", model.ActionSell, false, model.ActionHold},
		{"hold passes through", model.ActionHold, true, model.ActionHold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Gate(tt.action, tt.hasPosition)
			if got != tt.want {
				t.Errorf("Gate(%s, %v) = %s, want %s", tt.action, tt.hasPosition, got, tt.want)
			}
			if got != tt.action && reason == "" {
				t.Error("expected a gate reason when action was overridden")
			}
		})
	}
}
