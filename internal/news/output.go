package news

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	NoDescription     = "No description available."
	UnknownSource     = "Unknown Source"
	placeholderFormat = "https://picsum.photos/seed/%s/800/450"
)

// PlaceholderImage returns a stable image URL for articles without one.
// The same url, title and timestamp always give the same image.
func PlaceholderImage(url, title, publishedAt string) string {
	h := sha256.New()
	h.Write([]byte(url + title + publishedAt))
	return fmt.Sprintf(placeholderFormat, hex.EncodeToString(h.Sum(nil))[:16])
}

// DisplaySource picks the name shown to readers.
func DisplaySource(a RawArticle, profile *SourceProfile) string {
	if profile != nil && profile.Name != "" {
		return profile.Name
	}
	if name := a.SourceName(); name != "" {
		return name
	}
	return UnknownSource
}

// ToArticle builds the output record for position id (1-based).
func ToArticle(id int, s ScoredArticle, category string, score int) Article {
	description := strings.TrimSpace(s.Article.Description)
	if description == "" {
		description = NoDescription
	}
	image := strings.TrimSpace(s.Article.ImageURL)
	if image == "" {
		image = PlaceholderImage(s.Article.URL, s.Article.Title, s.Article.PublishedAt)
	}

	return Article{
		ID:          id,
		Title:       s.Article.Title,
		Description: description,
		URL:         s.Article.URL,
		Image:       image,
		PublishedAt: s.Article.PublishedAt,
		Category:    category,
		Score:       score,
		Source:      DisplaySource(s.Article, s.Profile),
	}
}
