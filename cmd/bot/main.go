package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"CoinPilot/internal/config"
	"CoinPilot/internal/exchange"
	"CoinPilot/internal/ledger"
	"CoinPilot/internal/model"
	"CoinPilot/internal/notifier"
	"CoinPilot/internal/recorder"
	"CoinPilot/internal/risk"
	"CoinPilot/internal/sentiment"
	"CoinPilot/internal/trader"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] CoinPilot starting...")

	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env")
	}

	target := flag.Float64("target", 0, "stop trading once portfolio value reaches this (0 = run forever)")
	intervalMin := flag.Int("interval", 0, "minutes between decision cycles")
	tradePct := flag.Float64("trade-percent", 0, "fraction of balance per trade (0..1)")
	cfgPath := flag.String("config", "configs/config.yaml", "path to YAML config")
	flag.Parse()

	if v := os.Getenv("CONFIG_PATH"); v != "" {
		*cfgPath = v
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}

	// Flags beat file and env.
	if *target > 0 {
		cfg.Trading.TargetValue = *target
	}
	if *intervalMin > 0 {
		cfg.Trading.IntervalMinutes = *intervalMin
	}
	if *tradePct > 0 {
		cfg.Trading.TradePercent = *tradePct
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Ledger: a corrupt file is fatal, history is never discarded.
	led, err := ledger.Open(cfg.Trading.LedgerFile)
	if err != nil {
		if errors.Is(err, ledger.ErrCorrupt) {
			log.Fatalf("[FATAL] %v: fix or move the file, refusing to overwrite trade history", err)
		}
		log.Fatalf("[FATAL] open ledger: %v", err)
	}
	if err := led.UpdateSettings(func(s *model.Settings) {
		s.TradePercent = cfg.Trading.TradePercent
	}); err != nil {
		log.Fatalf("[FATAL] persist settings: %v", err)
	}

	// Exchange wiring: live Coinbase for market data, live or paper
	// execution.
	market := exchange.NewCoinbaseClient(cfg.Exchange.Key, cfg.Exchange.Secret, cfg.Exchange.Passphrase)
	var executor exchange.Executor
	if cfg.Exchange.Paper {
		executor = exchange.NewPaperExecutor(cfg.Exchange.PaperQuote)
	} else {
		executor = market
	}
	log.Printf("[INFO] executor: %s, product: %s", executor.Name(), cfg.Exchange.Product)

	// Sentiment feeds, all optional at runtime.
	reddit := sentiment.NewRedditClient()
	agg := &sentiment.Aggregator{
		FearGreed:   sentiment.NewAlternativeMeClient(),
		Community:   reddit,
		News:        sentiment.NewCryptoPanicClient(cfg.Sentiment.CryptoPanicToken),
		Communities: cfg.Sentiment.Communities,
	}

	// Recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Telegram
	var notif notifier.Notifier = notifier.NewNoopNotifier()
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		notif = tn
	} else {
		log.Println("[WARN] telegram not configured, reports disabled")
	}

	tr := trader.New(market, executor, agg, led, risk.NewMachine(led), rec, notif,
		trader.Config{
			Product:     cfg.Exchange.Product,
			Interval:    time.Duration(cfg.Trading.IntervalMinutes) * time.Minute,
			TargetValue: cfg.Trading.TargetValue,
		})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Daily summary on cron.
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(cfg.Schedule.DailySummaryCron, func() {
		if msg := tr.DailySummary(); msg != "" {
			if err := notif.SendWithRetry(ctx, msg, 3); err != nil {
				log.Printf("[ERROR] send daily summary: %v", err)
			}
		}
	}); err != nil {
		log.Fatalf("[FATAL] register daily summary: %v", err)
	}
	c.Start()
	defer c.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, tr.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Shutdown on signal; the loop finishes its wait and exits.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[INFO] shutdown signal received, stopping...")
		cancel()
	}()

	tradesAtStart := len(led.Trades())
	if err := tr.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("[FATAL] trader: %v", err)
	}

	stats := led.Stats()
	log.Printf("[INFO] session summary: %d trades this session, %d total, realized P/L %+.2f%%",
		stats.TotalTrades-tradesAtStart, stats.TotalTrades, stats.TotalPnLPct)
	log.Println("[INFO] CoinPilot stopped")
}
