package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/headlines/internal/news"
)

// Extractor looks up lead images on article pages.
type Extractor struct {
	client      *http.Client
	concurrency int
	maxArticles int
	log         *slog.Logger
}

type Options struct {
	HTTPClient  *http.Client
	Concurrency int
	MaxArticles int
	Logger      *slog.Logger
}

func NewExtractor(opts Options) *Extractor {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Extractor{
		client:      opts.HTTPClient,
		concurrency: opts.Concurrency,
		maxArticles: opts.MaxArticles,
		log:         opts.Logger,
	}
}

// Try these in order
var imageSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[property="og:image"]`, "content"},
	{`meta[property="og:image:url"]`, "content"},
	{`meta[name="twitter:image"]`, "content"},
	{`meta[name="twitter:image:src"]`, "content"},
	{`link[rel="image_src"]`, "href"},
	{"article img", "src"},
	{"main img", "src"},
}

// ExtractImage returns the absolute URL of the page's lead image.
func (e *Extractor) ExtractImage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; headlines/1.0)")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}

	base, _ := url.Parse(pageURL)
	for _, s := range imageSelectors {
		val, ok := doc.Find(s.selector).First().Attr(s.attr)
		val = strings.TrimSpace(val)
		if !ok || val == "" || strings.HasPrefix(val, "data:") {
			continue
		}
		return resolve(base, val), nil
	}
	return "", nil
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil || base == nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// EnrichImages fills ImageURL on articles that have none by scraping
// their pages. At most maxArticles pages are fetched (0 means no limit)
// and failures leave the article unchanged. The slice is modified in
// place and the number of filled images is returned.
func (e *Extractor) EnrichImages(ctx context.Context, articles []news.RawArticle) int {
	var targets []int
	for i, a := range articles {
		if strings.TrimSpace(a.ImageURL) != "" || a.URL == "" {
			continue
		}
		if e.maxArticles > 0 && len(targets) >= e.maxArticles {
			break
		}
		targets = append(targets, i)
	}
	if len(targets) == 0 {
		return 0
	}

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	filled := 0

	for _, idx := range targets {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			img, err := e.ExtractImage(ctx, articles[idx].URL)
			if err != nil {
				e.log.Debug("can't get image", "url", articles[idx].URL, "error", err)
				return
			}
			if img == "" {
				return
			}
			// each goroutine owns its own index
			articles[idx].ImageURL = img
			mu.Lock()
			filled++
			mu.Unlock()
		}(idx)
	}
	wg.Wait()

	e.log.Debug("image enrichment done", "candidates", len(targets), "filled", filled)
	return filled
}
