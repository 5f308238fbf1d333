// Package sources resolves free-text source names to known outlet profiles.
package sources

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/deusflow/headlines/internal/news"
)

// Registry is an immutable, ordered list of source profiles. Earlier
// entries win when a query matches several profiles.
type Registry struct {
	profiles []news.SourceProfile
}

func NewRegistry(profiles []news.SourceProfile) *Registry {
	r := &Registry{profiles: make([]news.SourceProfile, len(profiles))}
	for i, p := range profiles {
		if p.Authority <= 0 {
			p.Authority = news.AuthorityForTier(p.Tier)
		}
		p.Categories = append([]string(nil), p.Categories...)
		r.profiles[i] = p
	}
	return r
}

// Profiles returns a copy of the configured profiles.
func (r *Registry) Profiles() []news.SourceProfile {
	out := make([]news.SourceProfile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// Lookup matches query against each profile's domain and name by
// case-insensitive substring containment in either direction.
func (r *Registry) Lookup(query string) *news.SourceProfile {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	for i := range r.profiles {
		p := &r.profiles[i]
		if matches(q, p.Domain) || matches(q, p.Name) {
			return p
		}
	}
	return nil
}

func matches(q, field string) bool {
	f := strings.ToLower(strings.TrimSpace(field))
	if f == "" {
		return false
	}
	return strings.Contains(f, q) || strings.Contains(q, f)
}

// Resolve finds the profile for an article, trying the source name, the
// source id and finally the host of the article URL.
func (r *Registry) Resolve(a news.RawArticle) *news.SourceProfile {
	if a.Source != nil {
		if p := r.Lookup(a.Source.Name); p != nil {
			return p
		}
		if p := r.Lookup(a.Source.ID); p != nil {
			return p
		}
	}
	if host := hostOf(a.URL); host != "" {
		return r.Lookup(host)
	}
	return nil
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// SourcesConfig is the YAML layout of a sources file:
//
//	sources:
//	  - domain: reuters.com
//	    name: Reuters
//	    tier: 1
//	    categories: [business, politics]
//	    feed: https://...
type SourcesConfig struct {
	Sources []news.SourceProfile `yaml:"sources"`
}

// Load reads source profiles from a YAML file.
func Load(path string) ([]news.SourceProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg SourcesConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for i, p := range cfg.Sources {
		if p.Domain == "" && p.Name == "" {
			return nil, fmt.Errorf("%s: source %d has neither domain nor name", path, i)
		}
		if p.Tier < 0 || p.Tier > 3 {
			return nil, fmt.Errorf("%s: source %q has invalid tier %d", path, p.Name, p.Tier)
		}
	}
	return cfg.Sources, nil
}

// DefaultProfiles is the built-in outlet list.
func DefaultProfiles() []news.SourceProfile {
	return []news.SourceProfile{
		{Domain: "reuters.com", Name: "Reuters", Tier: 1, Categories: []string{"business", "politics", "technology"}},
		{Domain: "apnews.com", Name: "Associated Press", Tier: 1, Categories: []string{"politics"}},
		{Domain: "bbc.co.uk", Name: "BBC News", Tier: 1, Categories: []string{"politics", "science"}, FeedURL: "https://feeds.bbci.co.uk/news/rss.xml"},
		{Domain: "nytimes.com", Name: "The New York Times", Tier: 1, Categories: []string{"politics", "business"}},
		{Domain: "bloomberg.com", Name: "Bloomberg", Tier: 1, Categories: []string{"business"}},
		{Domain: "wsj.com", Name: "The Wall Street Journal", Tier: 1, Categories: []string{"business"}},
		{Domain: "nature.com", Name: "Nature", Tier: 1, Categories: []string{"science", "health"}},
		{Domain: "theguardian.com", Name: "The Guardian", Tier: 2, Categories: []string{"politics", "science"}, FeedURL: "https://www.theguardian.com/world/rss"},
		{Domain: "cnbc.com", Name: "CNBC", Tier: 2, Categories: []string{"business"}},
		{Domain: "politico.com", Name: "Politico", Tier: 2, Categories: []string{"politics"}},
		{Domain: "theverge.com", Name: "The Verge", Tier: 2, Categories: []string{"technology"}, FeedURL: "https://www.theverge.com/rss/index.xml"},
		{Domain: "techcrunch.com", Name: "TechCrunch", Tier: 2, Categories: []string{"technology", "business"}, FeedURL: "https://techcrunch.com/feed/"},
		{Domain: "wired.com", Name: "Wired", Tier: 2, Categories: []string{"technology", "science"}},
		{Domain: "arstechnica.com", Name: "Ars Technica", Tier: 2, Categories: []string{"technology", "science"}, FeedURL: "https://feeds.arstechnica.com/arstechnica/index"},
		{Domain: "statnews.com", Name: "STAT", Tier: 2, Categories: []string{"health"}},
		{Domain: "espn.com", Name: "ESPN", Tier: 2, Categories: []string{"sports"}},
		{Domain: "variety.com", Name: "Variety", Tier: 2, Categories: []string{"entertainment"}},
		{Domain: "engadget.com", Name: "Engadget", Tier: 3, Categories: []string{"technology"}},
		{Domain: "cnet.com", Name: "CNET", Tier: 3, Categories: []string{"technology"}},
		{Domain: "businessinsider.com", Name: "Business Insider", Tier: 3, Categories: []string{"business"}},
		{Domain: "ew.com", Name: "Entertainment Weekly", Tier: 3, Categories: []string{"entertainment"}},
	}
}
