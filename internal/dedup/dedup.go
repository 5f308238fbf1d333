// Package dedup collapses coverage of the same story into one article.
package dedup

import (
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/deusflow/headlines/internal/news"
)

const (
	DefaultMaxWords            = 8
	DefaultSimilarity          = 0.8
	DefaultMinContainmentWords = 5
	DefaultPreferenceMargin    = 5.0
)

type Config struct {
	// MaxWords is how many leading title words take part in comparison.
	MaxWords int
	// Similarity is the Jaccard threshold for two titles to match.
	Similarity float64
	// MinContainmentWords is the minimum size of the shorter title for
	// substring containment to count as a match.
	MinContainmentWords int
	// PreferredSources are domains or names that win a group when their
	// score is within PreferenceMargin of the best one.
	PreferredSources []string
	PreferenceMargin float64
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = DefaultMaxWords
	}
	if cfg.Similarity <= 0 {
		cfg.Similarity = DefaultSimilarity
	}
	if cfg.MinContainmentWords <= 0 {
		cfg.MinContainmentWords = DefaultMinContainmentWords
	}
	if cfg.PreferenceMargin <= 0 {
		cfg.PreferenceMargin = DefaultPreferenceMargin
	}
	return cfg
}

// Group is one duplicate cluster.
type Group struct {
	Representative news.ScoredArticle
	Members        []news.ScoredArticle
}

type Stats struct {
	Original     int     `json:"original"`
	Deduplicated int     `json:"deduplicated"`
	Removed      int     `json:"removed"`
	RemovalRate  float64 `json:"removalRate"`
}

type Deduplicator struct {
	cfg       Config
	preferred []string
}

func New(cfg Config) *Deduplicator {
	cfg = applyConfigDefaults(cfg)
	preferred := make([]string, 0, len(cfg.PreferredSources))
	for _, p := range cfg.PreferredSources {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			preferred = append(preferred, p)
		}
	}
	return &Deduplicator{cfg: cfg, preferred: preferred}
}

// Deduplicate keeps one representative per duplicate cluster, sorted by
// score descending. The input slice is not modified.
func (d *Deduplicator) Deduplicate(articles []news.ScoredArticle) []news.ScoredArticle {
	groups := d.Groups(articles)
	out := make([]news.ScoredArticle, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Representative)
	}
	SortByScore(out)
	return out
}

// Groups returns every cluster with all of its members, seeds in score order.
func (d *Deduplicator) Groups(articles []news.ScoredArticle) []Group {
	if len(articles) == 0 {
		return nil
	}

	sorted := make([]news.ScoredArticle, len(articles))
	copy(sorted, articles)
	SortByScore(sorted)

	titles := make([]string, len(sorted))
	for i, a := range sorted {
		titles[i] = NormalizeTitle(a.Article.Title, d.cfg.MaxWords)
	}

	visited := make([]bool, len(sorted))
	var groups []Group
	for i := range sorted {
		if visited[i] {
			continue
		}
		visited[i] = true
		g := Group{Representative: sorted[i], Members: []news.ScoredArticle{sorted[i]}}

		for j := i + 1; j < len(sorted); j++ {
			if visited[j] || !d.matches(titles[i], titles[j]) {
				continue
			}
			visited[j] = true
			g.Members = append(g.Members, sorted[j])
			g.Representative = d.pick(g.Representative, sorted[j])
		}
		groups = append(groups, g)
	}
	return groups
}

// IsDuplicate reports whether two raw titles describe the same story.
func (d *Deduplicator) IsDuplicate(a, b string) bool {
	return d.matches(NormalizeTitle(a, d.cfg.MaxWords), NormalizeTitle(b, d.cfg.MaxWords))
}

// matches compares normalized titles. Empty titles never match.
func (d *Deduplicator) matches(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if Jaccard(a, b) >= d.cfg.Similarity {
		return true
	}

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	return len(strings.Fields(shorter)) >= d.cfg.MinContainmentWords &&
		strings.Contains(longer, shorter)
}

func (d *Deduplicator) pick(current, candidate news.ScoredArticle) news.ScoredArticle {
	if len(d.preferred) > 0 &&
		math.Abs(current.Score.Total-candidate.Score.Total) < d.cfg.PreferenceMargin {
		cp, np := d.isPreferred(current), d.isPreferred(candidate)
		if np && !cp {
			return candidate
		}
		if cp && !np {
			return current
		}
	}
	if candidate.Score.Total > current.Score.Total {
		return candidate
	}
	return current
}

func (d *Deduplicator) isPreferred(a news.ScoredArticle) bool {
	var names []string
	if a.Profile != nil {
		names = append(names, a.Profile.Domain, a.Profile.Name)
	}
	names = append(names, a.Article.SourceName())
	if u, err := url.Parse(a.Article.URL); err == nil {
		names = append(names, u.Hostname())
	}

	for _, n := range names {
		n = strings.ToLower(n)
		if n == "" {
			continue
		}
		for _, p := range d.preferred {
			if strings.Contains(n, p) {
				return true
			}
		}
	}
	return false
}

// SortByScore orders articles by total score, highest first, keeping the
// relative order of equal scores.
func SortByScore(articles []news.ScoredArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Score.Total > articles[j].Score.Total
	})
}

// ComputeStats summarizes how much a deduplication pass removed.
func ComputeStats(original, deduplicated int) Stats {
	s := Stats{
		Original:     original,
		Deduplicated: deduplicated,
		Removed:      original - deduplicated,
	}
	if original > 0 {
		s.RemovalRate = math.Round(float64(s.Removed)/float64(original)*1000) / 10
	}
	return s
}
