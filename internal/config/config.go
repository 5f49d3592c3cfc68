// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var webhookSecretRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token         string  `yaml:"token"`
	Mode          string  `yaml:"mode"` // polling | webhook
	WebhookURL    string  `yaml:"webhook_url"`
	WebhookPath   string  `yaml:"webhook_path"`
	WebhookSecret string  `yaml:"webhook_secret"` // echoed by Telegram in X-Telegram-Bot-Api-Secret-Token
	Workers       int     `yaml:"workers"`        // update workers
	AdminIDs      []int64 `yaml:"admin_ids"`
	MiniAppURL    string  `yaml:"miniapp_url"`

	SendPerSecond float64 `yaml:"send_per_second"`
	SendBurst     int     `yaml:"send_burst"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port           int      `yaml:"port"`
	AdminJWTSecret string   `yaml:"admin_jwt_secret"`
	CORSOrigins    []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	URL         string `yaml:"url"`
	MaxConns    int32  `yaml:"max_conns"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AIConfig struct {
	Provider        string `yaml:"provider"` // openai | gemini | noop
	OpenAIKey       string `yaml:"openai_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	DefaultModel    string `yaml:"default_model"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent AI calls
}

type RateLimitConfig struct {
	Backend         string `yaml:"backend"` // memory | redis
	Limit           int    `yaml:"limit"`
	IntervalSeconds int    `yaml:"interval_seconds"`
}

type SchedulerConfig struct {
	TickSeconds           int `yaml:"tick_seconds"`
	NetworkTimeoutSeconds int `yaml:"network_timeout_seconds"`
}

type QuotaConfig struct {
	DefaultDailyLimit int `yaml:"default_daily_limit"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        AIConfig        `yaml:"ai"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Quota     QuotaConfig     `yaml:"quota"`

	Runtime RuntimeConfig `yaml:"-"`
}

// Load reads the optional YAML file at path, applies .env and environment
// overrides, fills defaults and validates the identifiers needed at startup.
// A missing config file is not an error.
func Load(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setStr := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setInt := func(dst *int, key string) {
		if v, ok := os.LookupEnv(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	setStr(&cfg.Bot.Token, "BOT_TOKEN")
	setStr(&cfg.Bot.WebhookURL, "WEBHOOK_URL")
	setStr(&cfg.Bot.WebhookPath, "WEBHOOK_PATH")
	setStr(&cfg.Bot.WebhookSecret, "WEBHOOK_SECRET")
	setStr(&cfg.Bot.MiniAppURL, "MINIAPP_URL")
	setStr(&cfg.Database.URL, "DATABASE_URL")
	setStr(&cfg.Redis.URL, "REDIS_URL")
	setStr(&cfg.AI.OpenAIKey, "OPENAI_API_KEY")
	setStr(&cfg.AI.GeminiKey, "GEMINI_API_KEY")
	setStr(&cfg.HTTP.AdminJWTSecret, "ADMIN_JWT_SECRET")
	setInt(&cfg.HTTP.Port, "WEBAPP_PORT")

	if v, ok := os.LookupEnv("ADMIN_ID"); ok {
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.Bot.AdminIDs = appendUnique(cfg.Bot.AdminIDs, id)
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	cfg.Bot.Mode = strings.ToLower(cfg.Bot.Mode)
	if cfg.Bot.WebhookPath == "" {
		cfg.Bot.WebhookPath = "/telegram/webhook"
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.SendPerSecond <= 0 {
		cfg.Bot.SendPerSecond = 25
	}
	if cfg.Bot.SendBurst <= 0 {
		cfg.Bot.SendBurst = 5
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}

	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o"
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 4
	}
	if cfg.AI.Provider == "" {
		switch {
		case cfg.AI.OpenAIKey != "":
			cfg.AI.Provider = "openai"
		case cfg.AI.GeminiKey != "":
			cfg.AI.Provider = "gemini"
		default:
			cfg.AI.Provider = "noop"
		}
	}

	if cfg.RateLimit.Backend == "" {
		cfg.RateLimit.Backend = "memory"
	}
	if cfg.RateLimit.Limit <= 0 {
		cfg.RateLimit.Limit = 5
	}
	if cfg.RateLimit.IntervalSeconds <= 0 {
		cfg.RateLimit.IntervalSeconds = 60
	}
	if cfg.Scheduler.TickSeconds <= 0 {
		cfg.Scheduler.TickSeconds = 60
	}
	if cfg.Scheduler.NetworkTimeoutSeconds <= 0 {
		cfg.Scheduler.NetworkTimeoutSeconds = 15
	}
	if cfg.Quota.DefaultDailyLimit <= 0 {
		cfg.Quota.DefaultDailyLimit = 5
	}
}

// Validate checks the identifiers that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Bot.Token == "" && !c.Runtime.Dev {
		return errors.New("bot.token is required")
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Bot.Mode == "webhook" {
		if c.Bot.WebhookURL == "" {
			return errors.New("bot.webhook_url is required in webhook mode")
		}
		if !webhookSecretRe.MatchString(c.Bot.WebhookSecret) {
			return errors.New("bot.webhook_secret is required in webhook mode: 1-256 chars of A-Z a-z 0-9 _ -")
		}
	}
	if c.RateLimit.Backend == "redis" && c.Redis.URL == "" {
		return errors.New("redis.url is required for the redis rate limit backend")
	}
	return nil
}

func (c *Config) RateLimitInterval() time.Duration {
	return time.Duration(c.RateLimit.IntervalSeconds) * time.Second
}

func (c *Config) SchedulerTick() time.Duration {
	return time.Duration(c.Scheduler.TickSeconds) * time.Second
}

func (c *Config) NetworkTimeout() time.Duration {
	return time.Duration(c.Scheduler.NetworkTimeoutSeconds) * time.Second
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
