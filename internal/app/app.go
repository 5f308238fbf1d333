package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/deusflow/headlines/internal/cache"
	"github.com/deusflow/headlines/internal/categorize"
	"github.com/deusflow/headlines/internal/metrics"
	"github.com/deusflow/headlines/internal/news"
	"github.com/deusflow/headlines/internal/newsapi"
	"github.com/deusflow/headlines/internal/pipeline"
	"github.com/deusflow/headlines/internal/ratelimit"
	"github.com/deusflow/headlines/internal/rss"
)

// ErrInvalidRequest marks a request rejected before any fetch.
var ErrInvalidRequest = errors.New("invalid request")

const maxPageSize = 100

// Categories the provider can filter on natively. Other rules fall back
// to a keyword search.
var providerCategories = map[string]bool{
	"business":      true,
	"entertainment": true,
	"general":       true,
	"health":        true,
	"science":       true,
	"sports":        true,
	"technology":    true,
}

type Request struct {
	Strategy pipeline.Strategy
	Category string
	Query    string
	Page     int
	PageSize int
}

// Page is one served result set.
type Page struct {
	Articles     []news.Article `json:"articles"`
	TotalResults int            `json:"totalResults"`
	Page         int            `json:"page"`
	PageSize     int            `json:"pageSize"`
	Origin       string         `json:"origin"`
	Cached       bool           `json:"cached"`
	FetchedAt    time.Time      `json:"fetchedAt"`
}

type Provider interface {
	TopHeadlines(ctx context.Context, q newsapi.Query) (newsapi.Result, error)
	Everything(ctx context.Context, q newsapi.Query) (newsapi.Result, error)
}

type FeedFetcher interface {
	Fetch(ctx context.Context, feeds []rss.Feed) ([]news.RawArticle, error)
}

type ImageEnricher interface {
	EnrichImages(ctx context.Context, articles []news.RawArticle) int
}

type Processor interface {
	Process(raw []news.RawArticle, opts pipeline.Options) ([]news.Article, error)
}

type RuleBook interface {
	Rules() []categorize.Rule
	Rule(key string) (categorize.Rule, bool)
}

type Publisher interface {
	SendMessage(ctx context.Context, text string) error
}

// QuotaReporter exposes upstream request budget usage.
type QuotaReporter interface {
	GetStats() map[string]interface{}
	Remaining() int
}

// Deps wires the service. Provider, Images, Cache and Publisher are
// optional; without a Provider headlines come from Feeds.
type Deps struct {
	Pipeline   Processor
	Rules      RuleBook
	Provider   Provider
	Feeds      FeedFetcher
	FeedList   []rss.Feed
	Images     ImageEnricher
	Cache      cache.Store
	CacheTTL   time.Duration
	Metrics    *metrics.Metrics
	Publisher  Publisher
	Quota      QuotaReporter
	Country    string
	PageSize   int
	DigestSize int
	Now        func() time.Time
	Logger     *slog.Logger
}

type Service struct {
	deps Deps
	log  *slog.Logger
}

func New(deps Deps) *Service {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.PageSize < 1 {
		deps.PageSize = 20
	}
	if deps.DigestSize < 1 {
		deps.DigestSize = 5
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = 10 * time.Minute
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{deps: deps, log: log}
}

func (s *Service) Metrics() *metrics.Metrics { return s.deps.Metrics }

// Stats returns the service metrics, plus quota usage when a quota is set.
func (s *Service) Stats() map[string]interface{} {
	stats := s.deps.Metrics.GetStats()
	if s.deps.Quota != nil {
		quota := s.deps.Quota.GetStats()
		quota["remaining"] = s.deps.Quota.Remaining()
		stats["quota"] = quota
	}
	return stats
}

// Categories lists the configured category rules in priority order.
func (s *Service) Categories() []categorize.Rule { return s.deps.Rules.Rules() }

// Headlines serves a page of processed headlines, from cache when fresh.
func (s *Service) Headlines(ctx context.Context, req Request) (Page, error) {
	s.deps.Metrics.IncrementRequests()

	req, err := s.normalize(req)
	if err != nil {
		return Page{}, err
	}

	key := s.cacheKey(req)
	if s.deps.Cache != nil {
		var cached Page
		ok, err := s.deps.Cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("cache read failed", "key", key, "error", err)
		}
		if ok {
			s.deps.Metrics.IncrementCacheHits()
			cached.Cached = true
			return cached, nil
		}
		s.deps.Metrics.IncrementCacheMisses()
	}

	return s.load(ctx, req, key)
}

// Refresh fetches and processes a request and overwrites its cache entry.
func (s *Service) Refresh(ctx context.Context, req Request) (Page, error) {
	req, err := s.normalize(req)
	if err != nil {
		return Page{}, err
	}
	return s.load(ctx, req, s.cacheKey(req))
}

func (s *Service) normalize(req Request) (Request, error) {
	if req.Strategy == "" {
		req.Strategy = pipeline.StrategyTop
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = s.deps.PageSize
	}
	req.Category = strings.TrimSpace(req.Category)
	req.Query = strings.TrimSpace(req.Query)

	if req.Page < 1 {
		return req, fmt.Errorf("%w: page must be positive", ErrInvalidRequest)
	}
	if req.PageSize < 1 || req.PageSize > maxPageSize {
		return req, fmt.Errorf("%w: pageSize must be between 1 and %d", ErrInvalidRequest, maxPageSize)
	}

	switch req.Strategy {
	case pipeline.StrategyTop:
	case pipeline.StrategyCategory:
		if req.Category == "" {
			return req, fmt.Errorf("%w: category is required", ErrInvalidRequest)
		}
		if _, ok := s.deps.Rules.Rule(req.Category); !ok {
			return req, fmt.Errorf("%w: %q", pipeline.ErrUnknownCategory, req.Category)
		}
	case pipeline.StrategySearch:
		if req.Query == "" {
			return req, fmt.Errorf("%w: q is required", ErrInvalidRequest)
		}
	default:
		return req, fmt.Errorf("%w: unknown strategy %q", ErrInvalidRequest, req.Strategy)
	}
	return req, nil
}

func (s *Service) cacheKey(req Request) string {
	subject := req.Category
	if req.Strategy == pipeline.StrategySearch {
		subject = req.Query
	}
	return cache.Key(string(req.Strategy), subject, req.Page, req.PageSize)
}

func (s *Service) load(ctx context.Context, req Request, key string) (Page, error) {
	start := time.Now()

	var (
		page Page
		err  error
	)
	if s.deps.Provider != nil {
		page, err = s.fromProvider(ctx, req)
	} else {
		page, err = s.fromFeeds(ctx, req)
	}
	if err != nil {
		switch {
		case errors.Is(err, ratelimit.ErrQuotaExceeded):
			s.deps.Metrics.IncrementQuotaRejections()
		case errors.Is(err, pipeline.ErrUnknownCategory):
		default:
			s.deps.Metrics.IncrementUpstreamErrors()
			s.deps.Metrics.SetError(err.Error())
		}
		return Page{}, err
	}

	page.Page = req.Page
	page.PageSize = req.PageSize
	page.FetchedAt = s.deps.Now().UTC()

	s.deps.Metrics.RecordProcessingTime(time.Since(start))
	s.deps.Metrics.SetLastRun()

	if s.deps.Cache != nil {
		if err := s.deps.Cache.Set(ctx, key, page, s.deps.CacheTTL); err != nil {
			s.log.Warn("cache write failed", "key", key, "error", err)
		}
	}

	s.log.Info("headlines loaded",
		"strategy", req.Strategy,
		"category", req.Category,
		"origin", page.Origin,
		"articles", len(page.Articles),
		"took", time.Since(start))
	return page, nil
}

func (s *Service) fromProvider(ctx context.Context, req Request) (Page, error) {
	q := newsapi.Query{Country: s.deps.Country, Page: req.Page, PageSize: req.PageSize}

	var (
		res newsapi.Result
		err error
	)
	switch req.Strategy {
	case pipeline.StrategyCategory:
		rule, _ := s.deps.Rules.Rule(req.Category)
		if providerCategories[rule.Slug] {
			q.Category = rule.Slug
			res, err = s.deps.Provider.TopHeadlines(ctx, q)
		} else {
			q.Country = ""
			q.Search = rule.Name
			res, err = s.deps.Provider.Everything(ctx, q)
		}
	case pipeline.StrategySearch:
		q.Country = ""
		q.Search = req.Query
		res, err = s.deps.Provider.Everything(ctx, q)
	default:
		res, err = s.deps.Provider.TopHeadlines(ctx, q)
	}
	if err != nil {
		return Page{}, fmt.Errorf("fetch headlines: %w", err)
	}

	raw := newsapi.FilterRemoved(res.Articles)
	articles, err := s.process(ctx, raw, req)
	if err != nil {
		return Page{}, err
	}
	return Page{Articles: articles, TotalResults: res.TotalResults, Origin: "newsapi"}, nil
}

func (s *Service) fromFeeds(ctx context.Context, req Request) (Page, error) {
	if s.deps.Feeds == nil {
		return Page{}, errors.New("no headline source configured")
	}
	raw, err := s.deps.Feeds.Fetch(ctx, s.deps.FeedList)
	if err != nil {
		return Page{}, fmt.Errorf("fetch feeds: %w", err)
	}
	if req.Strategy == pipeline.StrategySearch {
		raw = matchQuery(raw, req.Query)
	}

	// Feeds are not pre-filtered by category, so classify everything and
	// keep the requested one.
	procReq := req
	if req.Strategy == pipeline.StrategyCategory {
		procReq.Strategy = pipeline.StrategyTop
	}
	articles, err := s.process(ctx, raw, procReq)
	if err != nil {
		return Page{}, err
	}
	if req.Strategy == pipeline.StrategyCategory {
		rule, _ := s.deps.Rules.Rule(req.Category)
		kept := articles[:0]
		for _, a := range articles {
			if a.Category == rule.Name {
				kept = append(kept, a)
			}
		}
		articles = kept
	}

	total := len(articles)
	return Page{Articles: paginate(articles, req.Page, req.PageSize), TotalResults: total, Origin: "rss"}, nil
}

func (s *Service) process(ctx context.Context, raw []news.RawArticle, req Request) ([]news.Article, error) {
	if s.deps.Images != nil && len(raw) > 0 {
		s.deps.Metrics.AddImagesEnriched(s.deps.Images.EnrichImages(ctx, raw))
	}
	articles, err := s.deps.Pipeline.Process(raw, pipeline.Options{
		Strategy: req.Strategy,
		Category: req.Category,
	})
	if err != nil {
		return nil, err
	}
	s.deps.Metrics.RecordBatch(len(raw), len(articles), len(raw)-len(articles))
	return articles, nil
}

func matchQuery(raw []news.RawArticle, query string) []news.RawArticle {
	terms := strings.Fields(strings.ToLower(query))
	var out []news.RawArticle
	for _, a := range raw {
		text := strings.ToLower(a.Title + " " + a.Description)
		hit := true
		for _, t := range terms {
			if !strings.Contains(text, t) {
				hit = false
				break
			}
		}
		if hit {
			out = append(out, a)
		}
	}
	return out
}

// paginate cuts one page and renumbers it so ids stay 1..N.
func paginate(articles []news.Article, page, size int) []news.Article {
	start := (page - 1) * size
	if start >= len(articles) {
		return []news.Article{}
	}
	end := start + size
	if end > len(articles) {
		end = len(articles)
	}
	out := make([]news.Article, end-start)
	copy(out, articles[start:end])
	for i := range out {
		out[i].ID = i + 1
	}
	return out
}

// SendDigest publishes the current front page to the configured chat.
func (s *Service) SendDigest(ctx context.Context) error {
	if s.deps.Publisher == nil {
		return errors.New("no publisher configured")
	}
	page, err := s.Refresh(ctx, Request{Strategy: pipeline.StrategyTop})
	if err != nil {
		return err
	}
	msg := FormatDigest(page.Articles, s.deps.DigestSize, s.deps.Now())
	if msg == "" {
		s.log.Info("no headlines for digest")
		return nil
	}

	s.log.Info("sending digest", "chars", len(msg))
	if err := s.deps.Publisher.SendMessage(ctx, msg); err != nil {
		s.deps.Metrics.SetError(err.Error())
		return fmt.Errorf("send digest: %w", err)
	}
	s.deps.Metrics.IncrementDigestsSent()
	return nil
}
