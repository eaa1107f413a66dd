package trader

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"CoinPilot/internal/exchange"
	"CoinPilot/internal/ledger"
	"CoinPilot/internal/model"
	"CoinPilot/internal/notifier"
	"CoinPilot/internal/recorder"
	"CoinPilot/internal/risk"
	"CoinPilot/internal/strategy"
)

// candleLimit leaves ample history for the slowest indicator.
const candleLimit = 100

// minOrderNotional is the smallest quote amount worth sending to the
// exchange.
const minOrderNotional = 10.0

// sendRetries bounds the notification retry backoff per report.
const sendRetries = 3

// SentimentSource produces one sentiment snapshot per cycle.
type SentimentSource interface {
	Collect() *model.SentimentSnapshot
}

// Config holds the per-run trading parameters.
type Config struct {
	Product     string
	Interval    time.Duration
	TargetValue float64 // stop gracefully once total value reaches this; 0 disables
}

// Trader runs the decision loop: collect, analyze, fuse, gate, execute,
// persist, report. One cycle per interval; cancellation is observed at
// the wait boundary so a cycle never dies halfway through.
type Trader struct {
	market    exchange.MarketData
	executor  exchange.Executor
	sentiment SentimentSource
	ledger    *ledger.Ledger
	machine   *risk.Machine
	recorder  recorder.Recorder
	notifier  notifier.Notifier
	cfg       Config

	// analyze is swappable so the loop can be driven with synthetic
	// snapshots in tests.
	analyze func([]model.Candle, model.Settings) model.TechSnapshot

	// ctx bounds the notification retry backoff; set by Run.
	ctx context.Context

	mu         sync.Mutex
	lastEval   risk.Evaluation
	lastPhase  model.RiskPhase
	needsFlush bool
}

func New(market exchange.MarketData, executor exchange.Executor, sent SentimentSource,
	led *ledger.Ledger, machine *risk.Machine, rec recorder.Recorder,
	notif notifier.Notifier, cfg Config) *Trader {
	return &Trader{
		market:    market,
		executor:  executor,
		sentiment: sent,
		ledger:    led,
		machine:   machine,
		recorder:  rec,
		notifier:  notif,
		cfg:       cfg,
		analyze:   strategy.AnalyzeTechnical,
		ctx:       context.Background(),
		lastEval:  risk.Evaluation{Phase: model.PhaseActive},
		lastPhase: model.PhaseActive,
	}
}

// Run executes cycles until the context is cancelled or the target
// value is reached. The first cycle runs immediately.
func (t *Trader) Run(ctx context.Context) error {
	t.ctx = ctx
	log.Printf("[INFO] trader started: %s every %s, executor=%s", t.cfg.Product, t.cfg.Interval, t.executor.Name())
	for {
		if t.RunCycle() {
			log.Println("[INFO] trader stopped")
			return nil
		}
		select {
		case <-ctx.Done():
			log.Println("[INFO] trader cancelled")
			return ctx.Err()
		case <-time.After(t.cfg.Interval):
		}
	}
}

// RunCycle performs one full decision cycle. Returns true when trading
// should stop for good.
func (t *Trader) RunCycle() (stop bool) {
	t.retryFlush()

	price, err := t.market.CurrentPrice(t.cfg.Product)
	if err != nil {
		t.skipCycle("price", err)
		return false
	}
	pf, err := exchange.Snapshot(t.executor, t.cfg.Product, price)
	if err != nil {
		t.skipCycle("balances", err)
		return false
	}

	if err := t.ledger.MarkUnrealized(price); err != nil {
		log.Printf("[WARN] mark unrealized: %v", err)
	}
	t.ensureBaseline(pf.TotalValue)

	if t.cfg.TargetValue > 0 && pf.TotalValue >= t.cfg.TargetValue {
		return t.stopAtTarget(pf)
	}

	eval := t.machine.Evaluate(pf.TotalValue)
	// Unconfirmed ledger writes block trading until the flush succeeds.
	if t.dirty() && eval.Phase == model.PhaseActive {
		eval = risk.Evaluation{Phase: model.PhasePaused, Reason: "ledger persistence failing"}
	}
	t.notePhase(eval)

	settings := t.ledger.Settings()
	tech := t.techSnapshot(price)
	sent := t.sentiment.Collect()
	fusion := strategy.Fuse(&tech, sent)
	raw := strategy.Decide(fusion.Combined, settings.SignalThreshold)

	dec := &model.Decision{
		Action:     raw,
		TechNorm:   fusion.TechNorm,
		SentNorm:   fusion.SentNorm,
		Combined:   fusion.Combined,
		Threshold:  settings.SignalThreshold,
		Confidence: strategy.Confidence(fusion.Combined),
		Phase:      eval.Phase,
	}

	pos := t.ledger.OpenPosition()
	switch {
	case eval.Phase != model.PhaseActive:
		if raw != model.ActionHold {
			dec.Gated = true
			dec.GateReason = fmt.Sprintf("risk phase %s: %s", eval.Phase, eval.Reason)
		}
		dec.Action = model.ActionHold
	default:
		gated, reason := risk.Gate(raw, pos != nil)
		if gated != raw {
			dec.Gated = true
			dec.GateReason = reason
		}
		dec.Action = gated
	}

	dec.Reason, dec.Reasoning = BuildReasoning(&tech, sent, fusion, dec)
	if pos != nil {
		dec.Reasoning += fmt.Sprintf("\nOpen position: entry $%.2f.", pos.Price)
	}
	if stats := t.ledger.Stats(); stats.ClosedTrades > 0 {
		dec.Reasoning += fmt.Sprintf("\nTrack record: %.0f%% win rate over %d closed trades.", stats.WinRate, stats.ClosedTrades)
	}
	log.Printf("[INFO] cycle: price=%.2f combined=%+.2f threshold=%.2f action=%s phase=%s",
		price, dec.Combined, dec.Threshold, dec.Action, dec.Phase)

	switch dec.Action {
	case model.ActionBuy:
		t.executeBuy(dec, pf, settings)
	case model.ActionSell:
		t.executeSell(dec, pf, pos, settings)
	}

	if err := t.recorder.RecordDecision(&recorder.DecisionSnapshot{
		Price:     price,
		Tech:      &tech,
		Sentiment: sent,
		Decision:  dec,
		Equity:    pf.TotalValue,
	}); err != nil {
		log.Printf("[ERROR] record decision: %v", err)
	}

	if dec.Executed || dec.Gated {
		t.trySend(notifier.FormatDecisionReport(dec, &tech, sent, pf))
	}
	return false
}

// skipCycle journals a cycle abandoned before any decision could be
// made. Price and balances have no meaningful neutral fallback.
func (t *Trader) skipCycle(stage string, cause error) {
	log.Printf("[ERROR] fetch %s: %v, skipping cycle", stage, cause)
	if err := t.recorder.RecordSkip(&recorder.SkipEvent{Stage: stage, Reason: cause.Error()}); err != nil {
		log.Printf("[ERROR] record skip: %v", err)
	}
}

// techSnapshot fetches candles and runs the technical stage. A fetch
// failure degrades to an insufficient snapshot (score 0) instead of
// killing the cycle.
func (t *Trader) techSnapshot(price float64) model.TechSnapshot {
	candles, err := t.market.Candles(t.cfg.Product, t.cfg.Interval, candleLimit)
	if err != nil {
		log.Printf("[WARN] fetch candles: %v, treating as insufficient history", err)
		return model.TechSnapshot{RSI: 50, Price: price, Insufficient: true}
	}
	return t.analyze(candles, t.ledger.Settings())
}

func (t *Trader) ensureBaseline(total float64) {
	state := t.ledger.State()
	if state.StartingValue > 0 {
		return
	}
	if err := t.ledger.UpdateState(func(s *model.BrainState) {
		s.StartingValue = total
	}); err != nil {
		log.Printf("[ERROR] persist starting value: %v", err)
	} else {
		log.Printf("[INFO] starting value recorded: %.2f", total)
	}
}

func (t *Trader) stopAtTarget(pf model.Portfolio) bool {
	reason := fmt.Sprintf("target value %.2f reached (current %.2f)", t.cfg.TargetValue, pf.TotalValue)
	log.Printf("[INFO] %s", reason)
	if err := t.machine.Stop(reason); err != nil {
		log.Printf("[ERROR] persist target stop: %v", err)
	}
	if err := t.recorder.RecordRiskEvent(&recorder.RiskEvent{Phase: model.PhaseStopped, Reason: reason}); err != nil {
		log.Printf("[ERROR] record risk event: %v", err)
	}
	t.trySend(fmt.Sprintf("🎯 <b>Target reached</b>\n\n%s\nTrading stopped.", reason))
	return true
}

// notePhase records phase transitions for the journal and the /risk
// command.
func (t *Trader) notePhase(eval risk.Evaluation) {
	t.mu.Lock()
	changed := eval.Phase != t.lastPhase
	t.lastEval = eval
	t.lastPhase = eval.Phase
	t.mu.Unlock()

	if !changed {
		return
	}
	log.Printf("[WARN] risk phase is now %s: %s", eval.Phase, eval.Reason)
	if err := t.recorder.RecordRiskEvent(&recorder.RiskEvent{
		Phase:       eval.Phase,
		Reason:      eval.Reason,
		DrawdownPct: eval.DrawdownPct,
		Streak:      eval.Streak,
	}); err != nil {
		log.Printf("[ERROR] record risk event: %v", err)
	}
	if eval.Phase != model.PhaseActive {
		t.trySend(fmt.Sprintf("⚠️ <b>Risk phase: %s</b>\n\n%s", eval.Phase, eval.Reason))
	}
}

func (t *Trader) executeBuy(dec *model.Decision, pf model.Portfolio, settings model.Settings) {
	funds := pf.Quote * settings.TradePercent
	if funds < minOrderNotional {
		log.Printf("[WARN] buy skipped: %.2f below minimum order size", funds)
		return
	}
	fill, err := t.executor.MarketBuy(t.cfg.Product, funds, pf.Price)
	if err != nil {
		log.Printf("[ERROR] market buy: %v", err)
		return
	}
	dec.Executed = true
	log.Printf("[INFO] bought %.8f at %.2f (order %s)", fill.Size, fill.Price, fill.OrderID)

	rec, err := t.ledger.Append(model.TradeRecord{
		Action:    model.ActionBuy,
		Amount:    fill.Funds,
		Price:     fill.Price,
		Reasoning: dec.Reasoning,
		Outcome:   model.OutcomeOpen,
	})
	if err != nil {
		t.noteSaveFailure(err)
	}
	if err := t.recorder.RecordTrade(&recorder.TradeEvent{
		TradeID:   rec.ID,
		Action:    model.ActionBuy,
		Amount:    fill.Funds,
		Price:     fill.Price,
		OrderID:   fill.OrderID,
		Reasoning: dec.Reason,
	}); err != nil {
		log.Printf("[ERROR] record trade: %v", err)
	}
	t.trySend(notifier.FormatTradeAlert(rec, fill.Funds))
}

func (t *Trader) executeSell(dec *model.Decision, pf model.Portfolio, pos *model.TradeRecord, settings model.Settings) {
	if pos == nil || pf.Base <= 0 {
		log.Println("[WARN] sell skipped: no position")
		return
	}
	fill, err := t.executor.MarketSell(t.cfg.Product, pf.Base, pf.Price)
	if err != nil {
		log.Printf("[ERROR] market sell: %v", err)
		return
	}
	dec.Executed = true

	pnlPct := 0.0
	if pos.Price > 0 {
		pnlPct = (fill.Price - pos.Price) / pos.Price * 100
	}
	outcome := model.OutcomeLoss
	if pnlPct > 0 {
		outcome = model.OutcomeWin
	}
	log.Printf("[INFO] sold %.8f at %.2f: %s %+.2f%% (order %s)", fill.Size, fill.Price, outcome, pnlPct, fill.OrderID)

	if _, err := t.ledger.CloseTrade(pos.ID, outcome, pnlPct, fill.Price); err != nil {
		t.noteSaveFailure(err)
	}
	sellRec, err := t.ledger.Append(model.TradeRecord{
		Action:        model.ActionSell,
		Amount:        fill.Size,
		Price:         fill.Price,
		Reasoning:     dec.Reasoning,
		Outcome:       outcome,
		ProfitLossPct: &pnlPct,
	})
	if err != nil {
		t.noteSaveFailure(err)
	}
	if err := t.recorder.RecordTrade(&recorder.TradeEvent{
		TradeID:   sellRec.ID,
		Action:    model.ActionSell,
		Amount:    fill.Size,
		Price:     fill.Price,
		OrderID:   fill.OrderID,
		PnLPct:    pnlPct,
		Reasoning: dec.Reason,
	}); err != nil {
		log.Printf("[ERROR] record trade: %v", err)
	}
	t.trySend(notifier.FormatTradeAlert(sellRec, fill.Funds))

	t.adaptThreshold(settings)
}

// adaptThreshold reviews the recent closed positions after each
// realization and nudges the signal threshold.
func (t *Trader) adaptThreshold(settings model.Settings) {
	recent := t.ledger.RecentOutcomes(strategy.AdaptWindow)
	current := settings.SignalThreshold
	next := strategy.AdaptThreshold(current, recent)
	if next == current {
		return
	}
	wins := 0
	for _, o := range recent {
		if o == model.OutcomeWin {
			wins++
		}
	}
	winRate := float64(wins) / float64(len(recent)) * 100
	log.Printf("[INFO] threshold adapted: %.2f -> %.2f (win rate %.0f%% over %d)", current, next, winRate, len(recent))

	if err := t.ledger.UpdateSettings(func(s *model.Settings) { s.SignalThreshold = next }); err != nil {
		t.noteSaveFailure(err)
	}
	if err := t.recorder.RecordThreshold(&recorder.ThresholdEvent{
		Old:     current,
		New:     next,
		WinRate: winRate,
		Sample:  len(recent),
	}); err != nil {
		log.Printf("[ERROR] record threshold: %v", err)
	}
}

// noteSaveFailure marks the ledger dirty so the next cycle retries the
// write before trading again.
func (t *Trader) noteSaveFailure(err error) {
	log.Printf("[ERROR] ledger write failed: %v", err)
	t.mu.Lock()
	t.needsFlush = true
	t.mu.Unlock()
	t.trySend(fmt.Sprintf("🚨 <b>Ledger write failed</b>\n\n%v\nWill retry next cycle.", err))
}

func (t *Trader) dirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.needsFlush
}

func (t *Trader) retryFlush() {
	t.mu.Lock()
	dirty := t.needsFlush
	t.mu.Unlock()
	if !dirty {
		return
	}
	if err := t.ledger.Flush(); err != nil {
		log.Printf("[ERROR] ledger flush retry failed: %v", err)
		return
	}
	log.Println("[INFO] ledger flush retry succeeded")
	t.mu.Lock()
	t.needsFlush = false
	t.mu.Unlock()
}

// HandleCommand serves the Telegram operator commands.
func (t *Trader) HandleCommand(command string) string {
	switch command {
	case "/stats":
		return notifier.FormatStats(t.ledger.Stats(), t.ledger.Settings().SignalThreshold)
	case "/status":
		price, err := t.market.CurrentPrice(t.cfg.Product)
		if err != nil {
			return fmt.Sprintf("price unavailable: %v", err)
		}
		pf, err := exchange.Snapshot(t.executor, t.cfg.Product, price)
		if err != nil {
			return fmt.Sprintf("balances unavailable: %v", err)
		}
		return notifier.FormatStatus(pf, t.ledger.State(), t.ledger.OpenPosition())
	case "/risk":
		t.mu.Lock()
		eval := t.lastEval
		t.mu.Unlock()
		return notifier.FormatRisk(eval.Phase, eval.Reason, eval.DrawdownPct, eval.Streak, t.ledger.Settings())
	default:
		return "Commands:\n/stats - performance\n/status - portfolio and position\n/risk - risk state"
	}
}

// DailySummary builds the scheduled end-of-day report.
func (t *Trader) DailySummary() string {
	price, err := t.market.CurrentPrice(t.cfg.Product)
	if err != nil {
		log.Printf("[WARN] daily summary price: %v", err)
		return ""
	}
	pf, err := exchange.Snapshot(t.executor, t.cfg.Product, price)
	if err != nil {
		log.Printf("[WARN] daily summary balances: %v", err)
		return ""
	}
	return notifier.FormatDailySummary(t.ledger.Stats(), pf, t.ledger.State(), t.ledger.Settings().SignalThreshold)
}

func (t *Trader) trySend(text string) {
	if text == "" {
		return
	}
	if err := t.notifier.SendWithRetry(t.ctx, text, sendRetries); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
