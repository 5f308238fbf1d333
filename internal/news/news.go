// Package news holds the article types shared by the fetchers, the
// processing pipeline and the HTTP layer.
package news

import (
	"time"
)

// Source identifies the outlet a raw article came from.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawArticle is an article as received from a provider or feed.
// Field tags follow the provider's JSON layout so it decodes directly.
type RawArticle struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	URL         string  `json:"url"`
	ImageURL    string  `json:"urlToImage"`
	PublishedAt string  `json:"publishedAt"`
	Source      *Source `json:"source,omitempty"`
}

// SourceName returns the raw source name or id, whichever is set first.
func (a RawArticle) SourceName() string {
	if a.Source == nil {
		return ""
	}
	if a.Source.Name != "" {
		return a.Source.Name
	}
	return a.Source.ID
}

// SourceProfile describes a known outlet.
type SourceProfile struct {
	Domain     string   `yaml:"domain" json:"domain"`
	Name       string   `yaml:"name" json:"name"`
	Tier       int      `yaml:"tier" json:"tier"`
	Authority  int      `yaml:"authority" json:"authority"`
	Categories []string `yaml:"categories" json:"categories"`
	FeedURL    string   `yaml:"feed" json:"feed,omitempty"`
}

// Authority scores by tier.
const (
	AuthorityTier1   = 100
	AuthorityTier2   = 80
	AuthorityTier3   = 60
	AuthorityUnknown = 40
)

// AuthorityForTier maps a curation tier to its default authority score.
func AuthorityForTier(tier int) int {
	switch tier {
	case 1:
		return AuthorityTier1
	case 2:
		return AuthorityTier2
	case 3:
		return AuthorityTier3
	default:
		return AuthorityUnknown
	}
}

// ScoreBreakdown keeps each factor on its native range:
// authority and recency 0-100, image and title 0-50, description 0-30.
type ScoreBreakdown struct {
	SourceAuthority    float64 `json:"sourceAuthority"`
	Recency            float64 `json:"recency"`
	ImageQuality       float64 `json:"imageQuality"`
	TitleQuality       float64 `json:"titleQuality"`
	DescriptionQuality float64 `json:"descriptionQuality"`
}

type ArticleScore struct {
	Total     float64        `json:"total"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// ScoredArticle is a raw article with its score and resolved profile.
// Profile is nil when the source could not be matched.
type ScoredArticle struct {
	Article RawArticle
	Score   ArticleScore
	Profile *SourceProfile
}

// Article is the final record returned to callers.
type Article struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Category    string `json:"category"`
	Score       int    `json:"score"`
	Source      string `json:"source"`

	// Set from the unrounded score.
	Tier     string `json:"tier,omitempty"`
	Featured bool   `json:"featured,omitempty"`
	Trending bool   `json:"trending,omitempty"`
}

var publishedLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParsePublished parses the timestamp formats seen in provider and feed payloads.
func ParsePublished(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
