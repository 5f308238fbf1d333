package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/headlines/internal/news"
)

// Feed is one configured RSS/Atom source. Name becomes the article's
// source name so the registry can resolve it.
type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// FeedsConfig is YAML config structure
// feeds:
//   - name: BBC News
//     url: https://...
type FeedsConfig struct {
	Feeds []Feed `yaml:"feeds"`
}

// LoadFeeds reads RSS feeds list from YAML file
func LoadFeeds(path string) ([]Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg.Feeds, nil
}

// FeedsFromProfiles lists the feeds declared on source profiles.
func FeedsFromProfiles(profiles []news.SourceProfile) []Feed {
	var feeds []Feed
	for _, p := range profiles {
		if p.FeedURL != "" {
			feeds = append(feeds, Feed{Name: p.Name, URL: p.FeedURL})
		}
	}
	return feeds
}

type Fetcher struct {
	client *http.Client
	log    *slog.Logger
}

func NewFetcher(client *http.Client, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{client: client, log: log}
}

// Fetch downloads all feeds in parallel. A failing feed is logged and
// skipped; an error is returned only when every feed failed.
func (f *Fetcher) Fetch(ctx context.Context, feeds []Feed) ([]news.RawArticle, error) {
	results := make([][]news.RawArticle, len(feeds))
	errs := make([]error, len(feeds))

	var wg sync.WaitGroup
	for i, feed := range feeds {
		wg.Add(1)
		go func(i int, feed Feed) {
			defer wg.Done()
			results[i], errs[i] = f.fetchOne(ctx, feed)
		}(i, feed)
	}
	wg.Wait()

	var all []news.RawArticle
	ok := 0
	var lastErr error
	for i, feed := range feeds {
		if errs[i] != nil {
			f.log.Warn("error parsing feed", "feed", feed.Name, "url", feed.URL, "error", errs[i])
			lastErr = errs[i]
			continue
		}
		ok++
		all = append(all, results[i]...)
		f.log.Debug("loaded feed", "feed", feed.Name, "items", len(results[i]))
	}

	f.log.Info("processed feeds", "ok", ok, "total", len(feeds), "articles", len(all))
	if len(feeds) > 0 && ok == 0 {
		return nil, fmt.Errorf("all %d feeds failed: %w", len(feeds), lastErr)
	}
	return all, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, feed Feed) ([]news.RawArticle, error) {
	parser := gofeed.NewParser()
	parser.Client = f.client
	parsed, err := parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, err
	}

	name := feed.Name
	if name == "" {
		name = parsed.Title
	}
	out := make([]news.RawArticle, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		a := ItemToArticle(item, name)
		if a.Title == "" {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// ItemToArticle converts a feed item, stripping markup from the
// description and picking the best available image.
func ItemToArticle(item *gofeed.Item, sourceName string) news.RawArticle {
	rawDesc := item.Description
	if rawDesc == "" {
		rawDesc = item.Content
	}
	description, inlineImage := cleanHTML(rawDesc)

	published := item.Published
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC().Format(time.RFC3339)
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	return news.RawArticle{
		Title:       strings.TrimSpace(item.Title),
		Description: description,
		URL:         item.Link,
		ImageURL:    pickImage(item, inlineImage),
		PublishedAt: published,
		Source:      &news.Source{Name: sourceName},
	}
}

func pickImage(item *gofeed.Item, inline string) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return inline
}

// cleanHTML returns the visible text of an HTML fragment and the src of
// its first image.
func cleanHTML(fragment string) (string, string) {
	if !strings.Contains(fragment, "<") {
		return strings.TrimSpace(fragment), ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment), ""
	}
	img, _ := doc.Find("img").First().Attr("src")
	text := strings.Join(strings.Fields(doc.Text()), " ")
	return text, img
}
