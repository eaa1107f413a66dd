package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the decision journal to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS decisions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			price        REAL,
			tech_score   INTEGER,
			rsi          REAL,
			macd         REAL,
			macd_signal  REAL,
			sma25        REAL,
			sent_score   REAL,
			fear_greed   INTEGER,
			tech_norm    REAL,
			sent_norm    REAL,
			combined     REAL,
			threshold    REAL,
			action       TEXT,
			gated        INTEGER,
			gate_reason  TEXT,
			confidence   REAL,
			phase        TEXT,
			executed     INTEGER,
			equity       REAL,
			reasoning    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_ts ON decisions(timestamp)`,

		`CREATE TABLE IF NOT EXISTS trade_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			trade_id  INTEGER,
			action    TEXT,
			amount    REAL,
			price     REAL,
			order_id  TEXT,
			pnl_pct   REAL,
			reasoning TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trade_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS risk_events (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			phase        TEXT,
			reason       TEXT,
			drawdown_pct REAL,
			streak       INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_risk_ts ON risk_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS threshold_events (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			old_threshold REAL,
			new_threshold REAL,
			win_rate      REAL,
			sample        INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_threshold_ts ON threshold_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS cycle_skips (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			stage     TEXT,
			reason    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_skips_ts ON cycle_skips(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordDecision(snap *DecisionSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tech := snap.Tech
	sent := snap.Sentiment
	dec := snap.Decision

	_, err := r.db.Exec(`INSERT INTO decisions
		(timestamp, price, tech_score, rsi, macd, macd_signal, sma25,
		 sent_score, fear_greed, tech_norm, sent_norm, combined, threshold,
		 action, gated, gate_reason, confidence, phase, executed, equity, reasoning)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), snap.Price,
		tech.Score, tech.RSI, tech.MACD, tech.MACDSignal, tech.SMA25,
		sent.Score, sent.FearGreed,
		dec.TechNorm, dec.SentNorm, dec.Combined, dec.Threshold,
		string(dec.Action), boolToInt(dec.Gated), dec.GateReason,
		dec.Confidence, string(dec.Phase), boolToInt(dec.Executed),
		snap.Equity, dec.Reasoning,
	)
	return err
}

func (r *SQLiteRecorder) RecordTrade(evt *TradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trade_events
		(timestamp, trade_id, action, amount, price, order_id, pnl_pct, reasoning)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.TradeID, string(evt.Action),
		evt.Amount, evt.Price, evt.OrderID, evt.PnLPct, evt.Reasoning,
	)
	return err
}

func (r *SQLiteRecorder) RecordRiskEvent(evt *RiskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO risk_events
		(timestamp, phase, reason, drawdown_pct, streak)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), string(evt.Phase), evt.Reason, evt.DrawdownPct, evt.Streak,
	)
	return err
}

func (r *SQLiteRecorder) RecordThreshold(evt *ThresholdEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO threshold_events
		(timestamp, old_threshold, new_threshold, win_rate, sample)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.Old, evt.New, evt.WinRate, evt.Sample,
	)
	return err
}

func (r *SQLiteRecorder) RecordSkip(evt *SkipEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO cycle_skips (timestamp, stage, reason)
		VALUES (?,?,?)`,
		time.Now().Unix(), evt.Stage, evt.Reason,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
