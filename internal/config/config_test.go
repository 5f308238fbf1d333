package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_MODE", "")
	t.Setenv("PAGE_SIZE", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ModeServe, cfg.Mode)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "https://newsapi.org/v2", cfg.NewsAPIBaseURL)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Empty(t, cfg.PreferredSources)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_MODE", "ONCE")
	t.Setenv("NEWSAPI_KEY", "secret")
	t.Setenv("PAGE_SIZE", "20")
	t.Setenv("DAILY_REQUEST_QUOTA", "500")
	t.Setenv("PREFERRED_SOURCES", "reuters.com, apnews.com ,,")
	t.Setenv("CACHE_TTL_MINUTES", "5")
	t.Setenv("REQUEST_TIMEOUT", "7s")
	t.Setenv("RETRY_DELAY", "3")
	t.Setenv("SCRAPE_CONCURRENCY", "0")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DEBUG", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ModeOnce, cfg.Mode)
	assert.Equal(t, "secret", cfg.NewsAPIKey)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 500, cfg.DailyRequestQuota)
	assert.Equal(t, []string{"reuters.com", "apnews.com"}, cfg.PreferredSources)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 7*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3*time.Second, cfg.RetryDelay)
	assert.Equal(t, 4, cfg.ScrapeConcurrency, "non-positive concurrency keeps the default")
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.True(t, cfg.Debug)
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown mode":         {"APP_MODE": "daemon"},
		"page size too big":    {"PAGE_SIZE": "500"},
		"no retries":           {"RETRY_ATTEMPTS": "0"},
		"digest without token": {"APP_MODE": "digest", "TELEGRAM_TOKEN": "", "TELEGRAM_CHAT_ID": "1"},
		"digest without chat":  {"APP_MODE": "digest", "TELEGRAM_TOKEN": "t", "TELEGRAM_CHAT_ID": ""},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NEWS_COUNTRY=gb\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("NEWS_COUNTRY", "")
	require.NoError(t, os.Unsetenv("NEWS_COUNTRY"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gb", cfg.Country)
}

func TestLoad_MissingDotEnvIsFine(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = Load()
	assert.NoError(t, err)
}
