package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Exchange struct {
		Product     string  `yaml:"product"` // e.g. BTC-USDC
		Key         string  `yaml:"key"`
		Secret      string  `yaml:"secret"`
		Passphrase  string  `yaml:"passphrase"`
		Paper       bool    `yaml:"paper"`       // simulate fills instead of trading live
		PaperQuote  float64 `yaml:"paper_quote"` // starting simulated balance
	} `yaml:"exchange"`
	Trading struct {
		IntervalMinutes int     `yaml:"interval_minutes"`
		TargetValue     float64 `yaml:"target_value"`
		TradePercent    float64 `yaml:"trade_percent"`
		LedgerFile      string  `yaml:"ledger_file"`
	} `yaml:"trading"`
	Sentiment struct {
		CryptoPanicToken string   `yaml:"cryptopanic_token"`
		Communities      []string `yaml:"communities"`
	} `yaml:"sentiment"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		DailySummaryCron string `yaml:"daily_summary_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is fine; env vars alone can
// carry a full configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("COINBASE_API_KEY"); v != "" {
		cfg.Exchange.Key = v
	}
	if v := os.Getenv("COINBASE_API_SECRET"); v != "" {
		cfg.Exchange.Secret = v
	}
	if v := os.Getenv("COINBASE_API_PASSPHRASE"); v != "" {
		cfg.Exchange.Passphrase = v
	}
	if v := os.Getenv("PRODUCT"); v != "" {
		cfg.Exchange.Product = v
	}
	if v := os.Getenv("PAPER_TRADING"); v != "" {
		cfg.Exchange.Paper = v == "1" || v == "true"
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("CRYPTOPANIC_TOKEN"); v != "" {
		cfg.Sentiment.CryptoPanicToken = v
	}
	if v := os.Getenv("TARGET_VALUE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Trading.TargetValue = f
		}
	}
	if v := os.Getenv("INTERVAL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Trading.IntervalMinutes = n
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.Exchange.Product == "" {
		cfg.Exchange.Product = "BTC-USDC"
	}
	if cfg.Exchange.PaperQuote == 0 {
		cfg.Exchange.PaperQuote = 1000
	}
	if cfg.Trading.IntervalMinutes == 0 {
		cfg.Trading.IntervalMinutes = 60
	}
	if cfg.Trading.TradePercent == 0 {
		cfg.Trading.TradePercent = 0.5
	}
	if cfg.Trading.LedgerFile == "" {
		cfg.Trading.LedgerFile = "data/ledger.json"
	}
	if len(cfg.Sentiment.Communities) == 0 {
		cfg.Sentiment.Communities = []string{"Bitcoin", "CryptoCurrency"}
	}
	if cfg.Schedule.DailySummaryCron == "" {
		cfg.Schedule.DailySummaryCron = "0 0 21 * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/coinpilot.db"
	}

	return cfg, nil
}

// Validate checks that the configuration can actually run.
func (c *Config) Validate() error {
	if c.Exchange.Product == "" {
		return fmt.Errorf("exchange.product is required")
	}
	if !c.Exchange.Paper {
		if c.Exchange.Key == "" || c.Exchange.Secret == "" {
			return fmt.Errorf("exchange credentials are required for live trading (set exchange.paper for simulation)")
		}
	}
	if c.Trading.IntervalMinutes <= 0 {
		return fmt.Errorf("trading.interval_minutes must be positive")
	}
	if c.Trading.TradePercent <= 0 || c.Trading.TradePercent > 1 {
		return fmt.Errorf("trading.trade_percent must be in (0, 1]")
	}
	if c.Trading.TargetValue < 0 {
		return fmt.Errorf("trading.target_value must not be negative")
	}
	return nil
}
