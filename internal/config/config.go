// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Mode     string  `yaml:"mode"`    // polling | webhook (future)
	Workers  int     `yaml:"workers"` // polling workers
	AdminIDs []int64 `yaml:"admin_ids"`
	Language string  `yaml:"language"` // default reply language
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port      int           `yaml:"port"`
	APIKey    string        `yaml:"api_key"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // verdict cache TTL
}

type TikTokConfig struct {
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`      // multiplied by attempt number
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent probes
	BulkRate        float64       `yaml:"bulk_rate"`        // bulk probes per second
	UserAgent       string        `yaml:"user_agent"`
}

type CheckerConfig struct {
	BulkMax      int  `yaml:"bulk_max"` // max usernames per uploaded file
	DisableCache bool `yaml:"disable_cache"`
}

type RetentionConfig struct {
	HistoryDays   int           `yaml:"history_days"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	TikTok    TikTokConfig    `yaml:"tiktok"`
	Checker   CheckerConfig   `yaml:"checker"`
	Retention RetentionConfig `yaml:"retention"`

	Runtime RuntimeConfig `yaml:"-"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func LoadConfig() (*Config, error) {
	var configPath string = ""
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	return LoadFromFile(configPath, dev)
}

func LoadFromFile(configPath string, dev bool) (*Config, error) {
	// .env is optional; system environment always wins over the file.
	_ = godotenv.Load()

	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()

	cfg.Runtime.Dev = dev

	// Minimal validation. Dev mode may run without a token (noop bot).
	if cfg.Bot.Token == "" && !dev {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	return &cfg, nil
}

func (cfg *Config) applyEnv() {
	cfg.Bot.Token = envOr("BOT_TOKEN", cfg.Bot.Token)
	cfg.Database.URL = envOr("DATABASE_URL", cfg.Database.URL)
	cfg.Redis.URL = envOr("REDIS_URL", cfg.Redis.URL)
	cfg.Redis.Password = envOr("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Admin.APIKey = envOr("ADMIN_API_KEY", cfg.Admin.APIKey)
	cfg.Admin.JWTSecret = envOr("ADMIN_JWT_SECRET", cfg.Admin.JWTSecret)
	cfg.TikTok.BaseURL = envOr("TIKTOK_BASE_URL", cfg.TikTok.BaseURL)
	cfg.TikTok.Timeout = envOrDuration("TIKTOK_TIMEOUT", cfg.TikTok.Timeout)
	cfg.Redis.TTL = envOrDuration("CACHE_TTL", cfg.Redis.TTL)
	cfg.Checker.BulkMax = envOrInt("BULK_MAX", cfg.Checker.BulkMax)
}

func (cfg *Config) applyDefaults() {
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.Language == "" {
		cfg.Bot.Language = "ru"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port <= 0 {
		cfg.Admin.Port = 8090
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 30 * time.Minute
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.TikTok.BaseURL == "" {
		cfg.TikTok.BaseURL = "https://www.tiktok.com"
	}
	if cfg.TikTok.Timeout <= 0 {
		cfg.TikTok.Timeout = 15 * time.Second
	}
	if cfg.TikTok.MaxRetries <= 0 {
		cfg.TikTok.MaxRetries = 3
	}
	if cfg.TikTok.RetryDelay <= 0 {
		cfg.TikTok.RetryDelay = 2 * time.Second
	}
	if cfg.TikTok.ConcurrentLimit <= 0 {
		cfg.TikTok.ConcurrentLimit = 10
	}
	if cfg.TikTok.BulkRate <= 0 {
		cfg.TikTok.BulkRate = 2
	}
	if cfg.TikTok.UserAgent == "" {
		cfg.TikTok.UserAgent = defaultUserAgent
	}
	if cfg.Checker.BulkMax <= 0 {
		cfg.Checker.BulkMax = 500
	}
	if cfg.Retention.HistoryDays <= 0 {
		cfg.Retention.HistoryDays = 90
	}
	if cfg.Retention.SweepInterval <= 0 {
		cfg.Retention.SweepInterval = time.Hour
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
