package risk

import (
	"fmt"
	"log"
	"time"

	"CoinPilot/internal/model"
)

// Store is the slice of the ledger the risk machine needs. BrainState
// writes go through it so stops survive restarts.
type Store interface {
	State() model.BrainState
	UpdateState(fn func(*model.BrainState)) error
	Settings() model.Settings
	Stats() model.PerformanceStats
	LastClosedAt() (time.Time, bool)
}

// Evaluation is the risk verdict for one decision cycle.
type Evaluation struct {
	Phase       model.RiskPhase
	Reason      string
	DrawdownPct float64
	Streak      int
}

// Machine decides every cycle whether trading may proceed. STOPPED is
// absorbing: once set it holds until the operator clears the state by
// hand. PAUSED serves exactly one cooldown cycle per loss streak and
// then resumes on its own; the watermark in BrainState makes that
// crash-safe.
type Machine struct {
	store Store
	now   func() time.Time
}

func NewMachine(store Store) *Machine {
	return &Machine{store: store, now: time.Now}
}

// Evaluate inspects equity and trade history and returns the current
// phase. It also maintains peak equity. A failed state write degrades
// to PAUSED rather than trading on stale risk data.
func (m *Machine) Evaluate(equity float64) Evaluation {
	state := m.store.State()
	settings := m.store.Settings()

	if state.Stopped {
		return Evaluation{Phase: model.PhaseStopped, Reason: state.StoppedReason}
	}

	if equity > state.PeakEquity {
		if err := m.store.UpdateState(func(s *model.BrainState) { s.PeakEquity = equity }); err != nil {
			log.Printf("[ERROR] persist peak equity: %v", err)
			return Evaluation{Phase: model.PhasePaused, Reason: "state persistence failed"}
		}
		state.PeakEquity = equity
	}

	var drawdown float64
	if state.PeakEquity > 0 {
		drawdown = (state.PeakEquity - equity) / state.PeakEquity * 100
	}
	if drawdown >= settings.MaxDrawdownPercent {
		reason := fmt.Sprintf("drawdown %.1f%% breached limit %.1f%%", drawdown, settings.MaxDrawdownPercent)
		if err := m.Stop(reason); err != nil {
			log.Printf("[ERROR] persist stop: %v", err)
			return Evaluation{Phase: model.PhasePaused, Reason: "state persistence failed", DrawdownPct: drawdown}
		}
		return Evaluation{Phase: model.PhaseStopped, Reason: reason, DrawdownPct: drawdown}
	}

	streak := m.store.Stats().ConsecutiveLosses
	if streak >= settings.MaxConsecutiveLosses {
		lastClosed, ok := m.store.LastClosedAt()
		served := state.LastCooldownAt != nil && !lastClosed.After(*state.LastCooldownAt)
		if ok && !served {
			now := m.now()
			if err := m.store.UpdateState(func(s *model.BrainState) { s.LastCooldownAt = &now }); err != nil {
				log.Printf("[ERROR] persist cooldown: %v", err)
				return Evaluation{Phase: model.PhasePaused, Reason: "state persistence failed", DrawdownPct: drawdown, Streak: streak}
			}
			reason := fmt.Sprintf("%d consecutive losses, cooling down for one cycle", streak)
			return Evaluation{Phase: model.PhasePaused, Reason: reason, DrawdownPct: drawdown, Streak: streak}
		}
	}

	return Evaluation{Phase: model.PhaseActive, DrawdownPct: drawdown, Streak: streak}
}

// Stop latches the absorbing stop with the given reason.
func (m *Machine) Stop(reason string) error {
	return m.store.UpdateState(func(s *model.BrainState) {
		s.Stopped = true
		s.StoppedReason = reason
	})
}

// Gate applies position awareness to a raw signal: no pyramiding on top
// of an open position, no selling thin air.
func Gate(action model.Action, hasPosition bool) (model.Action, string) {
	switch {
	case action == model.ActionBuy && hasPosition:
		return model.ActionHold, "position already open"
	case action == model.ActionSell && !hasPosition:
		return model.ActionHold, "no position to sell"
	}
	return action, ""
}
