package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"CommoditySentinel/internal/decision"
	"CommoditySentinel/internal/scorer"
)

// AssetConfig identifies one tracked instrument.
type AssetConfig struct {
	Name   string `yaml:"name"`
	Ticker string `yaml:"ticker"`
	Unit   string `yaml:"unit"`
}

// Config holds all application configuration.
type Config struct {
	Assets []AssetConfig `yaml:"assets"`
	Scorer struct {
		Name        string  `yaml:"name"`
		LongWindow  int     `yaml:"long_window"`
		ShortWindow int     `yaml:"short_window"`
		LongWeight  float64 `yaml:"long_weight"`
		ShortWeight float64 `yaml:"short_weight"`
		MinBars     int     `yaml:"min_bars"`
	} `yaml:"scorer"`
	Trend struct {
		StrongUp   float64 `yaml:"strong_up"`
		Up         float64 `yaml:"up"`
		Down       float64 `yaml:"down"`
		StrongDown float64 `yaml:"strong_down"`
	} `yaml:"trend"`
	Guard struct {
		MinRows          int   `yaml:"min_rows"`
		TimeframeSeconds int64 `yaml:"timeframe_seconds"`
		StaleMultiplier  int   `yaml:"stale_multiplier"`
	} `yaml:"guard"`
	Rules   map[string][]decision.Rule `yaml:"rules"`
	Tracker struct {
		HorizonDays int    `yaml:"horizon_days"`
		Store       string `yaml:"store"` // csv | sqlite
		CSVPath     string `yaml:"csv_path"`
		SQLitePath  string `yaml:"sqlite_path"`
	} `yaml:"tracker"`
	Report struct {
		OutputPath string `yaml:"output_path"`
	} `yaml:"report"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Fetcher      string `yaml:"fetcher"` // yahoo | mock
	LookbackDays int    `yaml:"lookback_days"`
	Proxy        string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error: defaults apply.
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
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("TRADE_LOG_CSV"); v != "" {
		cfg.Tracker.CSVPath = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Tracker.SQLitePath = v
	}
	if v := os.Getenv("HORIZON_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Tracker.HorizonDays = n
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Assets) == 0 {
		cfg.Assets = []AssetConfig{
			{Name: "GOLD", Ticker: "GC=F", Unit: "USD/oz"},
			{Name: "SILVER", Ticker: "SI=F", Unit: "USD/oz"},
			{Name: "COPPER", Ticker: "HG=F", Unit: "USD/lb"},
			{Name: "NATURAL GAS", Ticker: "NG=F", Unit: "USD/MMBtu"},
		}
	}
	if cfg.Scorer.Name == "" {
		cfg.Scorer.Name = "momentum"
	}
	if cfg.Guard.StaleMultiplier == 0 {
		cfg.Guard.StaleMultiplier = 2
	}
	if cfg.Guard.MinRows == 0 {
		cfg.Guard.MinRows = 30
	}
	if cfg.Tracker.HorizonDays == 0 {
		cfg.Tracker.HorizonDays = 5
	}
	if cfg.Tracker.Store == "" {
		cfg.Tracker.Store = "csv"
	}
	if cfg.Tracker.CSVPath == "" {
		cfg.Tracker.CSVPath = "data/trade_log.csv"
	}
	if cfg.Tracker.SQLitePath == "" {
		cfg.Tracker.SQLitePath = "data/commodity_sentinel.db"
	}
	if cfg.Report.OutputPath == "" {
		cfg.Report.OutputPath = "data/latest_report.txt"
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 0 22 * * 1-5"
	}
	if cfg.Fetcher == "" {
		cfg.Fetcher = "yahoo"
	}
	if cfg.LookbackDays == 0 {
		cfg.LookbackDays = 365
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if len(c.Assets) == 0 {
		return fmt.Errorf("at least one asset is required")
	}
	seen := make(map[string]bool, len(c.Assets))
	for _, a := range c.Assets {
		if a.Name == "" || a.Ticker == "" {
			return fmt.Errorf("asset name and ticker are required")
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate asset: %s", a.Name)
		}
		seen[a.Name] = true
	}
	switch c.Tracker.Store {
	case "csv", "sqlite":
	default:
		return fmt.Errorf("tracker.store must be csv or sqlite, got %q", c.Tracker.Store)
	}
	if c.Tracker.HorizonDays <= 0 {
		return fmt.Errorf("tracker.horizon_days must be positive")
	}
	if c.Guard.StaleMultiplier <= 0 {
		return fmt.Errorf("guard.stale_multiplier must be positive")
	}
	for asset, rules := range c.Rules {
		for i, r := range rules {
			if r.Action == "" {
				return fmt.Errorf("rules.%s[%d]: action is required", asset, i)
			}
			if r.MinScore == nil && r.MaxScore == nil {
				return fmt.Errorf("rules.%s[%d]: min_score or max_score is required", asset, i)
			}
		}
	}
	return nil
}

// RuleTables returns the configured per-asset rule tables, falling back to the
// built-in defaults when none are configured.
func (c *Config) RuleTables() map[string][]decision.Rule {
	if len(c.Rules) == 0 {
		return decision.DefaultTables()
	}
	return c.Rules
}

// TrendBreakpoints returns the configured trend buckets, falling back to the
// standard ones when the section is absent.
func (c *Config) TrendBreakpoints() scorer.TrendBreakpoints {
	t := c.Trend
	if t.StrongUp == 0 && t.Up == 0 && t.Down == 0 && t.StrongDown == 0 {
		return scorer.DefaultTrendBreakpoints()
	}
	return scorer.TrendBreakpoints{
		StrongUp:   t.StrongUp,
		Up:         t.Up,
		Down:       t.Down,
		StrongDown: t.StrongDown,
	}
}
