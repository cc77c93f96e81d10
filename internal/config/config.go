package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"InflectionTracker/internal/indexer"
	"InflectionTracker/internal/inflection"
	"InflectionTracker/internal/model"
	"InflectionTracker/internal/news"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Price and news providers.
const (
	ProviderYahoo        = "yahoo"
	ProviderAlphaVantage = "alphavantage"
	ProviderFile         = "file"
	ProviderNone         = "none"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Symbol   string `yaml:"symbol"`
		Years    int    `yaml:"years"`
	} `yaml:"data_source"`
	Detector struct {
		Window      int     `yaml:"window"`
		Threshold   float64 `yaml:"threshold"`
		MinDistance int     `yaml:"min_distance"`
	} `yaml:"detector"`
	Association struct {
		UnmatchedPolicy string `yaml:"unmatched_policy"`
	} `yaml:"association"`
	News struct {
		Provider     string `yaml:"provider"`
		File         string `yaml:"file"`
		EarliestDate string `yaml:"earliest_date"`
		BeforeDays   int    `yaml:"before_days"`
		AfterDays    int    `yaml:"after_days"`
		Limit        int    `yaml:"limit"`
	} `yaml:"news"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env, then the YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	// Preset so that absent keys take the default and explicit zeros reach Validate.
	def := inflection.DefaultConfig()
	cfg.Detector.Window = def.Window
	cfg.Detector.Threshold = def.Threshold.InexactFloat64()
	cfg.Detector.MinDistance = def.MinDistance

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("PRICE_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		c.DataSource.Symbol = v
	}
	if v := os.Getenv("LOOKBACK_YEARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.DataSource.Years = n
		}
	}
	if v := os.Getenv("INFLECTION_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Detector.Threshold = f
		}
	}
	if v := os.Getenv("NEWS_FILE"); v != "" {
		c.News.File = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		c.Schedule.Cron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
	}
	if c.DataSource.Symbol == "" {
		c.DataSource.Symbol = "OXY"
	}
	if c.DataSource.Years == 0 {
		c.DataSource.Years = 20
	}
	if c.News.Provider == "" {
		if c.News.File != "" {
			c.News.Provider = ProviderFile
		} else {
			c.News.Provider = ProviderNone
		}
	}
	wdef := news.DefaultWindowConfig()
	if c.News.BeforeDays == 0 {
		c.News.BeforeDays = wdef.BeforeDays
	}
	if c.News.AfterDays == 0 {
		c.News.AfterDays = wdef.AfterDays
	}
	if c.News.Limit == 0 {
		c.News.Limit = 50
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "data"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/inflection_tracker.db"
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 0 6 1 * *"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderYahoo:
	case ProviderAlphaVantage:
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("data_source.api_key is required for alphavantage")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.Symbol == "" {
		return fmt.Errorf("data_source.symbol is required")
	}
	if c.DataSource.Years < 0 {
		return fmt.Errorf("data_source.years must not be negative")
	}
	if err := c.DetectorConfig().Validate(); err != nil {
		return err
	}
	if _, err := indexer.ParsePolicy(c.Association.UnmatchedPolicy); err != nil {
		return fmt.Errorf("association.unmatched_policy: %w", err)
	}
	switch c.News.Provider {
	case ProviderNone:
	case ProviderFile:
		if c.News.File == "" {
			return fmt.Errorf("news.file is required for the file provider")
		}
	case ProviderAlphaVantage:
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("data_source.api_key is required for alphavantage news")
		}
	default:
		return fmt.Errorf("news.provider %q is not supported", c.News.Provider)
	}
	if _, err := c.WindowConfig(); err != nil {
		return err
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// DetectorConfig converts the detector section.
func (c *Config) DetectorConfig() inflection.Config {
	return inflection.Config{
		Window:      c.Detector.Window,
		Threshold:   decimal.NewFromFloat(c.Detector.Threshold),
		MinDistance: c.Detector.MinDistance,
	}
}

// Policy returns the configured unmatched-record policy.
func (c *Config) Policy() indexer.UnmatchedPolicy {
	p, err := indexer.ParsePolicy(c.Association.UnmatchedPolicy)
	if err != nil {
		return indexer.PolicyDrop
	}
	return p
}

// WindowConfig converts the news window settings.
func (c *Config) WindowConfig() (news.WindowConfig, error) {
	w := news.WindowConfig{BeforeDays: c.News.BeforeDays, AfterDays: c.News.AfterDays}
	if c.News.EarliestDate != "" {
		t, err := time.Parse(model.DateLayout, c.News.EarliestDate)
		if err != nil {
			return w, fmt.Errorf("news.earliest_date: %w", err)
		}
		w.Earliest = t
	}
	return w, nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
