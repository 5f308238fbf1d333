package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deusflow/headlines/internal/app"
	"github.com/deusflow/headlines/internal/cache"
	"github.com/deusflow/headlines/internal/categorize"
	"github.com/deusflow/headlines/internal/config"
	"github.com/deusflow/headlines/internal/dedup"
	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/metrics"
	"github.com/deusflow/headlines/internal/newsapi"
	"github.com/deusflow/headlines/internal/pipeline"
	"github.com/deusflow/headlines/internal/ratelimit"
	"github.com/deusflow/headlines/internal/retry"
	"github.com/deusflow/headlines/internal/rss"
	"github.com/deusflow/headlines/internal/scheduler"
	"github.com/deusflow/headlines/internal/scoring"
	"github.com/deusflow/headlines/internal/scraper"
	"github.com/deusflow/headlines/internal/server"
	"github.com/deusflow/headlines/internal/sources"
	"github.com/deusflow/headlines/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.LogLevel, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("fatal", "mode", cfg.Mode, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	svc, closeFn, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	logger.Info("starting", "mode", cfg.Mode, "provider", cfg.NewsAPIKey != "")
	switch cfg.Mode {
	case config.ModeOnce:
		page, err := svc.Refresh(ctx, app.Request{Strategy: pipeline.StrategyTop})
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(page)

	case config.ModeDigest:
		return svc.SendDigest(ctx)

	default:
		warmer := scheduler.NewWarmer(svc, cfg.RequestTimeout, logger.Component("scheduler"))
		if cfg.RefreshCron != "" {
			if err := warmer.Start(cfg.RefreshCron); err != nil {
				return err
			}
			defer func() { <-warmer.Stop().Done() }()
		}

		if !cfg.Debug {
			gin.SetMode(gin.ReleaseMode)
		}
		router := server.NewRouter(svc, logger.Component("http"))
		return server.Serve(ctx, ":"+cfg.HTTPPort, router, log)
	}
}

// build wires the service from config. The returned func releases
// connections opened here.
func build(ctx context.Context, cfg *config.Config) (*app.Service, func(), error) {
	closeFn := func() {}

	profiles := sources.DefaultProfiles()
	if cfg.SourcesConfigPath != "" {
		loaded, err := sources.Load(cfg.SourcesConfigPath)
		if err != nil {
			return nil, closeFn, fmt.Errorf("load sources: %w", err)
		}
		profiles = loaded
	}

	rules := categorize.DefaultRules()
	if cfg.CategoriesConfigPath != "" {
		loaded, err := categorize.LoadRules(cfg.CategoriesConfigPath)
		if err != nil {
			return nil, closeFn, fmt.Errorf("load categories: %w", err)
		}
		rules = loaded
	}

	feeds := rss.FeedsFromProfiles(profiles)
	if cfg.FeedsConfigPath != "" {
		loaded, err := rss.LoadFeeds(cfg.FeedsConfigPath)
		if err != nil {
			return nil, closeFn, fmt.Errorf("load feeds: %w", err)
		}
		feeds = loaded
	}

	categorizer := categorize.New(rules)
	pipe := pipeline.New(pipeline.Deps{
		Sources:     sources.NewRegistry(profiles),
		Scorer:      scoring.New(),
		Categorizer: categorizer,
		Dedup:       dedup.Config{PreferredSources: cfg.PreferredSources},
		Logger:      logger.Component("pipeline"),
	})

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	retryCfg := retry.RetryConfig{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}

	deps := app.Deps{
		Pipeline: pipe,
		Rules:    categorizer,
		Feeds:    rss.NewFetcher(httpClient, logger.Component("rss")),
		FeedList: feeds,
		Images: scraper.NewExtractor(scraper.Options{
			HTTPClient:  httpClient,
			Concurrency: cfg.ScrapeConcurrency,
			MaxArticles: cfg.ScrapeMaxArticles,
			Logger:      logger.Component("scraper"),
		}),
		CacheTTL:   cfg.CacheTTL,
		Metrics:    metrics.New(),
		Country:    cfg.Country,
		PageSize:   cfg.PageSize,
		DigestSize: cfg.DigestSize,
		Logger:     logger.Component("app"),
	}

	if cfg.NewsAPIKey != "" {
		quota := ratelimit.NewQuota(cfg.DailyRequestQuota, 24*time.Hour, logger.Component("quota"))
		deps.Quota = quota
		deps.Provider = newsapi.NewClient(newsapi.Options{
			BaseURL:    cfg.NewsAPIBaseURL,
			APIKey:     cfg.NewsAPIKey,
			HTTPClient: httpClient,
			Quota:      quota,
			Retry:      retryCfg,
			Logger:     logger.Component("newsapi"),
		})
	} else {
		logger.Warn("NEWSAPI_KEY not set, serving headlines from RSS feeds", "feeds", len(feeds))
	}

	if cfg.RedisAddr != "" {
		store, rdb, err := cache.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, closeFn, err
		}
		deps.Cache = store
		closeFn = func() { rdb.Close() }
	} else {
		mem := cache.NewMemory()
		go mem.RunCleanup(ctx, cfg.CacheTTL)
		deps.Cache = mem
	}

	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		deps.Publisher = telegram.NewClient(telegram.Options{
			Token:      cfg.TelegramToken,
			ChatID:     cfg.TelegramChatID,
			HTTPClient: httpClient,
			Retry:      retryCfg,
			Logger:     logger.Component("telegram"),
		})
	}

	return app.New(deps), closeFn, nil
}
