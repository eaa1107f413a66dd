package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"CoinPilot/internal/model"
)

func tempLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.json")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("open fresh ledger: %v", err)
	}
	return l, path
}

func buy(price float64) model.TradeRecord {
	return model.TradeRecord{
		Action:  model.ActionBuy,
		Amount:  10,
		Price:   price,
		Outcome: model.OutcomeOpen,
	}
}

func TestOpen_MissingFileInitializesEmpty(t *testing.T) {
	l, _ := tempLedger(t)
	if got := len(l.Trades()); got != 0 {
		t.Errorf("expected empty trade list, got %d", got)
	}
	if s := l.Settings(); s.SignalThreshold != 1.0 {
		t.Errorf("expected default threshold 1.0, got %.2f", s.SignalThreshold)
	}
}

func TestOpen_CorruptFileFailsLoudly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestAppend_MonotonicIDs(t *testing.T) {
	l, _ := tempLedger(t)
	for i := 1; i <= 3; i++ {
		rec, err := l.Append(buy(100))
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if rec.ID != int64(i) {
			t.Errorf("expected id %d, got %d", i, rec.ID)
		}
	}
}

func TestCloseTrade_ExactlyOnce(t *testing.T) {
	l, _ := tempLedger(t)
	rec, err := l.Append(buy(100))
	if err != nil {
		t.Fatal(err)
	}

	closed, err := l.CloseTrade(rec.ID, model.OutcomeWin, 5.0, 105)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Outcome != model.OutcomeWin || closed.ProfitLossPct == nil || *closed.ProfitLossPct != 5.0 {
		t.Errorf("unexpected closed record: %+v", closed)
	}

	if _, err := l.CloseTrade(rec.ID, model.OutcomeLoss, -1, 99); !errors.Is(err, ErrNotOpen) {
		t.Errorf("second close: expected ErrNotOpen, got %v", err)
	}
	if _, err := l.CloseTrade(99, model.OutcomeWin, 1, 101); !errors.Is(err, ErrUnknownTrade) {
		t.Errorf("unknown id: expected ErrUnknownTrade, got %v", err)
	}
}

func TestOpenPosition(t *testing.T) {
	l, _ := tempLedger(t)
	if l.OpenPosition() != nil {
		t.Fatal("expected no open position on fresh ledger")
	}

	rec, _ := l.Append(buy(100))
	pos := l.OpenPosition()
	if pos == nil || pos.ID != rec.ID {
		t.Fatalf("expected open position %d, got %+v", rec.ID, pos)
	}

	l.CloseTrade(rec.ID, model.OutcomeLoss, -2, 98)
	if l.OpenPosition() != nil {
		t.Error("expected no open position after close")
	}
}

func TestMarkUnrealized(t *testing.T) {
	l, _ := tempLedger(t)
	l.Append(buy(100))
	if err := l.MarkUnrealized(110); err != nil {
		t.Fatal(err)
	}
	pos := l.OpenPosition()
	if pos.UnrealizedPct == nil || *pos.UnrealizedPct != 10 {
		t.Errorf("expected unrealized +10%%, got %+v", pos.UnrealizedPct)
	}
}

func TestStats_Derivation(t *testing.T) {
	l, _ := tempLedger(t)

	// Two wins, one loss, one open, plus a mirrored SELL record.
	r1, _ := l.Append(buy(100))
	l.CloseTrade(r1.ID, model.OutcomeWin, 4, 104)
	pnl := 4.0
	l.Append(model.TradeRecord{Action: model.ActionSell, Amount: 0.001, Price: 104, Outcome: model.OutcomeWin, ProfitLossPct: &pnl})

	r2, _ := l.Append(buy(104))
	l.CloseTrade(r2.ID, model.OutcomeLoss, -3, 101)
	r3, _ := l.Append(buy(101))
	l.CloseTrade(r3.ID, model.OutcomeWin, 6, 107)
	l.Append(buy(107)) // still open

	stats := l.Stats()
	if stats.TotalTrades != 5 {
		t.Errorf("expected 5 total records, got %d", stats.TotalTrades)
	}
	if stats.ClosedTrades != 3 || stats.Wins != 2 || stats.Losses != 1 {
		t.Errorf("unexpected closed/wins/losses: %+v", stats)
	}
	if stats.WinRate < 66.6 || stats.WinRate > 66.7 {
		t.Errorf("expected win rate ~66.7, got %.2f", stats.WinRate)
	}
	if stats.BestTrade != 6 || stats.WorstTrade != -3 {
		t.Errorf("expected best 6 / worst -3, got %.1f / %.1f", stats.BestTrade, stats.WorstTrade)
	}
	if stats.TotalPnLPct != 7 {
		t.Errorf("expected total P/L 7, got %.1f", stats.TotalPnLPct)
	}
	if stats.ConsecutiveLosses != 0 {
		t.Errorf("expected streak 0 after a win, got %d", stats.ConsecutiveLosses)
	}
}

func TestStats_ConsecutiveLossStreak(t *testing.T) {
	l, _ := tempLedger(t)
	r1, _ := l.Append(buy(100))
	l.CloseTrade(r1.ID, model.OutcomeWin, 2, 102)
	for i := 0; i < 3; i++ {
		r, _ := l.Append(buy(100))
		l.CloseTrade(r.ID, model.OutcomeLoss, -1, 99)
	}
	if got := l.Stats().ConsecutiveLosses; got != 3 {
		t.Errorf("expected streak 3, got %d", got)
	}

	outcomes := l.RecentOutcomes(10)
	if len(outcomes) != 4 {
		t.Fatalf("expected 4 closed outcomes, got %d", len(outcomes))
	}
	if outcomes[0] != model.OutcomeWin || outcomes[3] != model.OutcomeLoss {
		t.Errorf("expected oldest→newest ordering, got %v", outcomes)
	}
}

func TestRoundTrip_PersistAndReload(t *testing.T) {
	l, path := tempLedger(t)
	r1, _ := l.Append(buy(100))
	l.CloseTrade(r1.ID, model.OutcomeWin, 4, 104)
	r2, _ := l.Append(buy(104))
	l.CloseTrade(r2.ID, model.OutcomeLoss, -2, 102)
	l.Append(buy(102))
	l.UpdateSettings(func(s *model.Settings) { s.SignalThreshold = 1.2 })
	l.UpdateState(func(s *model.BrainState) { s.PeakEquity = 123.45 })

	before := l.Stats()

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	after := reloaded.Stats()
	if before != after {
		t.Errorf("stats diverged across reload:\n before %+v\n after  %+v", before, after)
	}
	if s := reloaded.Settings(); s.SignalThreshold != 1.2 {
		t.Errorf("expected threshold 1.2 after reload, got %.2f", s.SignalThreshold)
	}
	if st := reloaded.State(); st.PeakEquity != 123.45 {
		t.Errorf("expected peak equity 123.45 after reload, got %.2f", st.PeakEquity)
	}
	pos := reloaded.OpenPosition()
	if pos == nil || pos.Price != 102 {
		t.Errorf("expected open position at 102 after reload, got %+v", pos)
	}
}
