package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"NewsAggregator/internal/domain"
)

const (
	configPathEnv     = "NEWS_AGGREGATOR_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	llmAPIKeyEnv      = "LLM_API_KEY"
	llmModelEnv       = "LLM_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Harvest       HarvestConfig      `yaml:"harvest"`
	Enrich        EnrichConfig       `yaml:"enrich"`
	Backfill      BackfillConfig     `yaml:"backfill"`
	LLM           LLMConfig          `yaml:"llm"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
	Feeds         []FeedConfig       `yaml:"feeds"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN selects
// the in-memory store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines how often pipeline cycles run.
type SchedulerConfig struct {
	HarvestInterval  time.Duration `yaml:"harvestInterval"`
	BackfillInterval time.Duration `yaml:"backfillInterval"`
}

// HarvestConfig bounds one harvest run.
type HarvestConfig struct {
	Concurrency     int           `yaml:"concurrency"`
	MaxPerFeed      int           `yaml:"maxPerFeed"`
	FreshnessWindow time.Duration `yaml:"freshnessWindow"`
	Retention       time.Duration `yaml:"retention"`
	FetchTimeout    time.Duration `yaml:"fetchTimeout"`
}

// EnrichConfig bounds one process-queue run.
type EnrichConfig struct {
	BatchSize    int           `yaml:"batchSize"`
	Concurrency  int           `yaml:"concurrency"`
	RetryCeiling int           `yaml:"retryCeiling"`
	ItemTimeout  time.Duration `yaml:"itemTimeout"`
	ClaimTTL     time.Duration `yaml:"claimTTL"`
	MinRawLength int           `yaml:"minRawLength"`
}

// BackfillConfig controls the stale-item recovery sweep.
type BackfillConfig struct {
	OlderThan time.Duration `yaml:"olderThan"`
}

// LLMConfig defines how to contact the OpenAI-compatible analysis API.
type LLMConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LoggingConfig sets the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// FeedConfig describes a single registered feed source.
type FeedConfig struct {
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Bias     string `yaml:"bias"`
}

// Sources converts the configured feed list into domain feed sources.
// Unrecognized bias strings become the unknown prior.
func (c Config) Sources() []domain.FeedSource {
	sources := make([]domain.FeedSource, 0, len(c.Feeds))
	for _, f := range c.Feeds {
		if f.URL == "" {
			continue
		}
		sources = append(sources, domain.FeedSource{
			FeedURL:  f.URL,
			Category: f.Category,
			Prior:    domain.ParseBias(f.Bias),
		})
	}
	return sources
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Feeds) == 0 {
		cfg.Feeds = defaultConfig().Feeds
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}

	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Scheduler.HarvestInterval > 0 {
		base.Scheduler.HarvestInterval = override.Scheduler.HarvestInterval
	}
	if override.Scheduler.BackfillInterval > 0 {
		base.Scheduler.BackfillInterval = override.Scheduler.BackfillInterval
	}

	if override.Harvest.Concurrency > 0 {
		base.Harvest.Concurrency = override.Harvest.Concurrency
	}
	if override.Harvest.MaxPerFeed > 0 {
		base.Harvest.MaxPerFeed = override.Harvest.MaxPerFeed
	}
	if override.Harvest.FreshnessWindow > 0 {
		base.Harvest.FreshnessWindow = override.Harvest.FreshnessWindow
	}
	if override.Harvest.Retention > 0 {
		base.Harvest.Retention = override.Harvest.Retention
	}
	if override.Harvest.FetchTimeout > 0 {
		base.Harvest.FetchTimeout = override.Harvest.FetchTimeout
	}

	if override.Enrich.BatchSize > 0 {
		base.Enrich.BatchSize = override.Enrich.BatchSize
	}
	if override.Enrich.Concurrency > 0 {
		base.Enrich.Concurrency = override.Enrich.Concurrency
	}
	if override.Enrich.RetryCeiling > 0 {
		base.Enrich.RetryCeiling = override.Enrich.RetryCeiling
	}
	if override.Enrich.ItemTimeout > 0 {
		base.Enrich.ItemTimeout = override.Enrich.ItemTimeout
	}
	if override.Enrich.ClaimTTL > 0 {
		base.Enrich.ClaimTTL = override.Enrich.ClaimTTL
	}
	if override.Enrich.MinRawLength > 0 {
		base.Enrich.MinRawLength = override.Enrich.MinRawLength
	}

	if override.Backfill.OlderThan > 0 {
		base.Backfill.OlderThan = override.Backfill.OlderThan
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{DSN: ""},
		Scheduler: SchedulerConfig{
			HarvestInterval:  30 * time.Minute,
			BackfillInterval: 6 * time.Hour,
		},
		Harvest: HarvestConfig{
			Concurrency:     4,
			MaxPerFeed:      12,
			FreshnessWindow: 48 * time.Hour,
			Retention:       7 * 24 * time.Hour,
			FetchTimeout:    20 * time.Second,
		},
		Enrich: EnrichConfig{
			BatchSize:    10,
			Concurrency:  3,
			RetryCeiling: 3,
			ItemTimeout:  45 * time.Second,
			ClaimTTL:     2 * time.Minute,
			MinRawLength: 200,
		},
		Backfill: BackfillConfig{OlderThan: 2 * time.Hour},
		LLM: LLMConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
			APIKey:   "",
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
		Logging: LoggingConfig{Level: "info"},
		Feeds: []FeedConfig{
			{URL: "http://feeds.bbci.co.uk/news/politics/rss.xml", Category: "Politics", Bias: "Center"},
			{URL: "https://rss.nytimes.com/services/xml/rss/nyt/Politics.xml", Category: "Politics", Bias: "Lean Left"},
			{URL: "http://feeds.bbci.co.uk/news/world/rss.xml", Category: "International", Bias: "Center"},
			{URL: "https://www.aljazeera.com/xml/rss/all.xml", Category: "International", Bias: "Lean Left"},
			{URL: "https://www.eonline.com/news/rss.xml", Category: "Entertainment"},
			{URL: "https://rss.nytimes.com/services/xml/rss/nyt/Movies.xml", Category: "Entertainment", Bias: "Lean Left"},
			{URL: "https://www.espn.com/espn/rss/news", Category: "Sports", Bias: "Center"},
			{URL: "http://feeds.bbci.co.uk/sport/rss.xml", Category: "Sports", Bias: "Center"},
		},
	}
}
