// Package scoring rates articles on a 0-100 quality scale.
package scoring

import (
	"math"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/deusflow/headlines/internal/news"
)

// Factor weights. They sum to 1.
const (
	weightSource      = 0.30
	weightRecency     = 0.25
	weightImage       = 0.15
	weightTitle       = 0.20
	weightDescription = 0.10
)

// Native maxima of the bounded factors.
const (
	maxImage       = 50
	maxTitle       = 50
	maxDescription = 30
)

const (
	FeatureThreshold  = 80
	TrendingThreshold = 75
	TrendingRecency   = 70
)

var cdnMarkers = []string{
	"cloudinary.com", "amazonaws.com", "cloudfront.net", "imgix.net",
	"cdn", "img", "images", "media",
}

var interestingKeywords = []string{
	"announces", "launches", "reveals", "breakthrough", "discovers",
	"first", "record", "unveils", "exclusive", "study finds",
}

var clickbaitPatterns = []string{
	"won't believe", "you won't", "shocking", "this one trick",
	"what happens next", "mind-blowing", "jaw-dropping",
	"will blow your mind", "doctors hate",
}

// Scorer computes article scores. The zero value is not usable; use New.
type Scorer struct {
	now func() time.Time
}

// New returns a Scorer measuring recency against the wall clock.
func New() *Scorer {
	return &Scorer{now: time.Now}
}

// NewWithClock returns a Scorer that reads the current time from now.
func NewWithClock(now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{now: now}
}

// Score rates a single article. profile may be nil. Image, title and
// description points are scaled to 0-100 before weighting so a perfect
// article totals 100.
func (s *Scorer) Score(a news.RawArticle, profile *news.SourceProfile) news.ArticleScore {
	b := news.ScoreBreakdown{
		SourceAuthority:    SourceAuthority(profile),
		Recency:            Recency(a.PublishedAt, s.now()),
		ImageQuality:       ImageQuality(a.ImageURL),
		TitleQuality:       TitleQuality(a.Title),
		DescriptionQuality: DescriptionQuality(a.Description),
	}

	total := weightSource*b.SourceAuthority +
		weightRecency*b.Recency +
		weightImage*scale(b.ImageQuality, maxImage) +
		weightTitle*scale(b.TitleQuality, maxTitle) +
		weightDescription*scale(b.DescriptionQuality, maxDescription)

	return news.ArticleScore{
		Total:     clamp(math.Round(total*10)/10, 0, 100),
		Breakdown: b,
	}
}

func scale(v, max float64) float64 {
	return v / max * 100
}

func SourceAuthority(profile *news.SourceProfile) float64 {
	if profile == nil {
		return news.AuthorityUnknown
	}
	if profile.Authority > 0 {
		return float64(profile.Authority)
	}
	return float64(news.AuthorityForTier(profile.Tier))
}

// Recency is a step function of hours since publication.
// Unparseable timestamps get the floor; future ones count as fresh.
func Recency(publishedAt string, now time.Time) float64 {
	t, ok := news.ParsePublished(publishedAt)
	if !ok {
		return 10
	}

	hours := now.Sub(t).Hours()
	switch {
	case hours < 6:
		return 100
	case hours < 24:
		return 90
	case hours < 72:
		return 70
	case hours < 168:
		return 50
	case hours < 336:
		return 30
	default:
		return 10
	}
}

func ImageQuality(imageURL string) float64 {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return 0
	}
	u, err := url.Parse(imageURL)
	if err != nil || u.Host == "" {
		return 0
	}

	var score float64
	switch strings.ToLower(u.Scheme) {
	case "https":
		score = 40
	case "http":
		score = 30
	default:
		return 0
	}

	if containsAny(strings.ToLower(u.Host+u.Path), cdnMarkers) {
		score += 10
	}
	return math.Min(score, maxImage)
}

func TitleQuality(title string) float64 {
	score := 20.0

	n := utf8.RuneCountInString(title)
	switch {
	case n >= 50 && n <= 100:
		score += 20
	case n >= 30 && n < 50:
		score += 15
	case n > 100 && n <= 150:
		score += 10
	case n < 30:
		score += 5
	}

	lower := strings.ToLower(title)
	if containsAny(lower, interestingKeywords) {
		score += 10
	}
	if containsAny(lower, clickbaitPatterns) {
		score -= 20
	}
	if n > 10 && isShouting(title) {
		score -= 10
	}

	return clamp(score, 0, maxTitle)
}

func DescriptionQuality(description string) float64 {
	n := utf8.RuneCountInString(strings.TrimSpace(description))
	switch {
	case n == 0:
		return 0
	case n >= 100 && n <= 300:
		return 30
	case n >= 50 && n < 100:
		return 20
	case n >= 20 && n < 50:
		return 10
	case n > 300:
		return 20
	default:
		return 0
	}
}

// isShouting reports whether s has letters and none of them is lower case.
func isShouting(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
