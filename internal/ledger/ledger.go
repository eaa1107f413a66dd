package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"CoinPilot/internal/model"
)

// ErrCorrupt means the ledger file exists but cannot be parsed. This is
// fatal at startup: history is never silently discarded.
var ErrCorrupt = errors.New("ledger file is corrupt")

// ErrUnknownTrade means no record with the given id exists.
var ErrUnknownTrade = errors.New("unknown trade id")

// ErrNotOpen means the record exists but is not OPEN.
var ErrNotOpen = errors.New("trade is not open")

// document is the single persisted unit: the append-only trade list plus
// the settings and brain-state blocks. They are written together so they
// can never observably diverge.
type document struct {
	Trades   []model.TradeRecord `json:"trades"`
	Settings model.Settings      `json:"settings"`
	State    model.BrainState    `json:"state"`
	Created  time.Time           `json:"created"`
}

// Ledger owns all trade records. Single writer; the mutex only guards
// against auxiliary readers (telegram command handlers).
type Ledger struct {
	mu       sync.Mutex
	doc      *document
	filePath string
}

// Open loads the ledger from disk. A missing file initializes an empty
// ledger with default settings; an unreadable one fails loudly.
func Open(filePath string) (*Ledger, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Ledger{
				doc: &document{
					Settings: model.DefaultSettings(),
					Created:  time.Now(),
				},
				filePath: filePath,
			}, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, filePath, err)
	}
	return &Ledger{doc: &doc, filePath: filePath}, nil
}

// Append assigns the next monotonic id, stamps the record and persists.
// On persist failure the record stays in memory and the error is
// returned so the caller can retry via Flush.
func (l *Ledger) Append(rec model.TradeRecord) (model.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec.ID = int64(len(l.doc.Trades)) + 1
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	l.doc.Trades = append(l.doc.Trades, rec)
	return rec, l.save()
}

// CloseTrade fills in the outcome and realized P/L of exactly one OPEN
// record. A record is mutated at most once.
func (l *Ledger) CloseTrade(id int64, outcome model.Outcome, pnlPct, sellPrice float64) (model.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i := range l.doc.Trades {
		if l.doc.Trades[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.TradeRecord{}, fmt.Errorf("%w: %d", ErrUnknownTrade, id)
	}
	rec := &l.doc.Trades[idx]
	if rec.Outcome != model.OutcomeOpen {
		return model.TradeRecord{}, fmt.Errorf("%w: %d is %s", ErrNotOpen, id, rec.Outcome)
	}

	now := time.Now()
	rec.Outcome = outcome
	rec.ProfitLossPct = &pnlPct
	rec.SellPrice = &sellPrice
	rec.ClosedAt = &now
	rec.UnrealizedPct = nil
	return *rec, l.save()
}

// OpenPosition returns a copy of the most recent OPEN BUY record, or nil.
func (l *Ledger) OpenPosition() *model.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.openPositionLocked()
}

func (l *Ledger) openPositionLocked() *model.TradeRecord {
	for i := len(l.doc.Trades) - 1; i >= 0; i-- {
		t := l.doc.Trades[i]
		if t.Action == model.ActionBuy && t.Outcome == model.OutcomeOpen {
			return &t
		}
	}
	return nil
}

// MarkUnrealized updates the open position's unrealized percentage from
// the live price. No-op without an open position.
func (l *Ledger) MarkUnrealized(currentPrice float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.doc.Trades) - 1; i >= 0; i-- {
		rec := &l.doc.Trades[i]
		if rec.Action == model.ActionBuy && rec.Outcome == model.OutcomeOpen {
			if rec.Price <= 0 {
				return nil
			}
			pct := (currentPrice - rec.Price) / rec.Price * 100
			rec.UnrealizedPct = &pct
			return l.save()
		}
	}
	return nil
}

// Trades returns a copy of the full trade list.
func (l *Ledger) Trades() []model.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.TradeRecord, len(l.doc.Trades))
	copy(out, l.doc.Trades)
	return out
}

// Settings returns the current threshold block.
func (l *Ledger) Settings() model.Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doc.Settings
}

// UpdateSettings applies fn to the settings block and persists.
func (l *Ledger) UpdateSettings(fn func(*model.Settings)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.doc.Settings)
	return l.save()
}

// State returns the persisted brain-state block.
func (l *Ledger) State() model.BrainState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doc.State
}

// UpdateState applies fn to the brain-state block and persists.
func (l *Ledger) UpdateState(fn func(*model.BrainState)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.doc.State)
	return l.save()
}

// Flush re-persists the in-memory document. Used to retry after a failed
// write so no record is ever dropped.
func (l *Ledger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.save()
}

// save writes the whole document atomically: temp file in the same
// directory, then rename over the target.
func (l *Ledger) save() error {
	data, err := json.MarshalIndent(l.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	dir := filepath.Dir(l.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close ledger: %w", err)
	}
	if err := os.Rename(tmpName, l.filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename ledger: %w", err)
	}
	return nil
}
