package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModeServe  = "serve"
	ModeOnce   = "once"
	ModeDigest = "digest"
)

type Config struct {
	Mode string // serve | once | digest

	// Provider settings
	NewsAPIKey        string
	NewsAPIBaseURL    string
	Country           string
	PageSize          int
	DailyRequestQuota int

	// Source and category configuration
	SourcesConfigPath    string
	FeedsConfigPath      string
	CategoriesConfigPath string
	PreferredSources     []string

	// Scraper settings
	ScrapeConcurrency int
	ScrapeMaxArticles int

	// Cache settings
	CacheTTL  time.Duration
	RedisAddr string

	// HTTP and scheduling
	HTTPPort    string
	RefreshCron string

	// Telegram digest
	TelegramToken  string
	TelegramChatID string
	DigestSize     int

	// App settings
	LogLevel       string
	Debug          bool
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
}

// Load reads an optional .env file, then the environment, then validates.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Mode:                 ModeServe,
		NewsAPIBaseURL:       "https://newsapi.org/v2",
		Country:              "us",
		PageSize:             50,
		DailyRequestQuota:    100,
		SourcesConfigPath:    "configs/sources.yaml",
		FeedsConfigPath:      "configs/feeds.yaml",
		CategoriesConfigPath: "configs/categories.yaml",
		ScrapeConcurrency:    4,
		ScrapeMaxArticles:    10,
		CacheTTL:             10 * time.Minute,
		HTTPPort:             "8080",
		RefreshCron:          "*/15 * * * *",
		DigestSize:           5,
		RequestTimeout:       30 * time.Second,
		RetryAttempts:        3,
		RetryDelay:           2 * time.Second,
	}

	if mode := os.Getenv("APP_MODE"); mode != "" {
		cfg.Mode = strings.ToLower(mode)
	}

	cfg.NewsAPIKey = os.Getenv("NEWSAPI_KEY")
	cfg.NewsAPIBaseURL = getEnvOrDefault("NEWSAPI_BASE_URL", cfg.NewsAPIBaseURL)
	cfg.Country = getEnvOrDefault("NEWS_COUNTRY", cfg.Country)
	cfg.PageSize = getEnvIntOrDefault("PAGE_SIZE", cfg.PageSize)
	cfg.DailyRequestQuota = getEnvIntOrDefault("DAILY_REQUEST_QUOTA", cfg.DailyRequestQuota)

	cfg.SourcesConfigPath = getEnvOrDefault("SOURCES_CONFIG_PATH", cfg.SourcesConfigPath)
	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)
	cfg.CategoriesConfigPath = getEnvOrDefault("CATEGORIES_CONFIG_PATH", cfg.CategoriesConfigPath)
	if v := os.Getenv("PREFERRED_SOURCES"); v != "" {
		cfg.PreferredSources = splitList(v)
	}

	if v := os.Getenv("SCRAPE_CONCURRENCY"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.ScrapeConcurrency = val
		}
	}
	if v := os.Getenv("SCRAPE_MAX_ARTICLES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.ScrapeMaxArticles = val
		}
	}

	if v := os.Getenv("CACHE_TTL_MINUTES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.CacheTTL = time.Duration(val) * time.Minute
		}
	}
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")

	cfg.HTTPPort = getEnvOrDefault("HTTP_PORT", cfg.HTTPPort)
	cfg.RefreshCron = getEnvOrDefault("REFRESH_CRON", cfg.RefreshCron)

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.DigestSize = getEnvIntOrDefault("DIGEST_SIZE", cfg.DigestSize)

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}
	cfg.RequestTimeout = getEnvDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)
	cfg.RetryDelay = getEnvDurationOrDefault("RETRY_DELAY", cfg.RetryDelay)

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("5s") or plain seconds ("5").
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeServe, ModeOnce, ModeDigest:
	default:
		return fmt.Errorf("APP_MODE must be one of serve, once, digest")
	}
	if c.PageSize <= 0 || c.PageSize > 100 {
		return fmt.Errorf("PAGE_SIZE must be between 1 and 100")
	}
	if c.DailyRequestQuota < 0 {
		return fmt.Errorf("DAILY_REQUEST_QUOTA must not be negative")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be at least 1")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.Mode == ModeDigest {
		if c.TelegramToken == "" {
			return fmt.Errorf("TELEGRAM_TOKEN is required")
		}
		if c.TelegramChatID == "" {
			return fmt.Errorf("TELEGRAM_CHAT_ID is required")
		}
	}
	return nil
}
