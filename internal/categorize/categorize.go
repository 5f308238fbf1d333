// Package categorize assigns a single topical category to an article by
// weighted keyword matching against an ordered rule set.
package categorize

import (
	"math"
	"sort"
	"strings"

	"github.com/deusflow/headlines/internal/news"
)

const (
	General = "General"

	// MinScore is the lowest winning score that is not treated as noise.
	MinScore = 3
	// confidenceCeiling is the score mapped to 100% confidence.
	confidenceCeiling = 20

	affinityBonus = 5
	strongWeight  = 2
	titleBonus    = 1
	weakWeight    = 1
	excludeWeight = 5
)

// Rule describes one category. Keywords are matched as case-insensitive
// substrings.
type Rule struct {
	Slug             string   `yaml:"slug" json:"slug"`
	Name             string   `yaml:"name" json:"name"`
	Strong           []string `yaml:"strong" json:"-"`
	Weak             []string `yaml:"weak" json:"-"`
	Exclude          []string `yaml:"exclude" json:"-"`
	PreferredSources []string `yaml:"preferred_sources" json:"preferredSources,omitempty"`
}

// Input is the article text a category is derived from.
type Input struct {
	Title       string
	Description string
	SourceName  string
}

type CategoryScore struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type Result struct {
	Category   string          `json:"category"`
	Slug       string          `json:"slug,omitempty"`
	Confidence int             `json:"confidence"`
	Scores     []CategoryScore `json:"scores"`
}

// Categorizer is safe for concurrent use; rules are never modified.
type Categorizer struct {
	rules []Rule
}

// New copies rules, lower-casing keywords once so matching stays cheap.
func New(rules []Rule) *Categorizer {
	c := &Categorizer{rules: make([]Rule, len(rules))}
	for i, r := range rules {
		r.Strong = lowerAll(r.Strong)
		r.Weak = lowerAll(r.Weak)
		r.Exclude = lowerAll(r.Exclude)
		r.PreferredSources = append([]string(nil), r.PreferredSources...)
		c.rules[i] = r
	}
	return c
}

// Rules returns the configured rules in declaration order.
func (c *Categorizer) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Rule finds a rule by slug or display name, ignoring case.
func (c *Categorizer) Rule(key string) (Rule, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Rule{}, false
	}
	for _, r := range c.rules {
		if strings.EqualFold(r.Slug, key) || strings.EqualFold(r.Name, key) {
			return r, true
		}
	}
	return Rule{}, false
}

// Categorize never fails; weak or empty signals yield General.
func (c *Categorizer) Categorize(in Input, profile *news.SourceProfile) Result {
	title := strings.ToLower(in.Title)
	content := title + " " + strings.ToLower(in.Description)

	scores := make([]CategoryScore, len(c.rules))
	for i, r := range c.rules {
		scores[i] = CategoryScore{Slug: r.Slug, Name: r.Name, Score: scoreRule(r, title, content, profile)}
	}

	ranked := make([]CategoryScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	if len(ranked) == 0 || ranked[0].Score < MinScore {
		return Result{Category: General, Confidence: 0, Scores: scores}
	}

	best := ranked[0]
	confidence := int(math.Min(100, math.Round(float64(best.Score)/confidenceCeiling*100)))
	return Result{
		Category:   best.Name,
		Slug:       best.Slug,
		Confidence: confidence,
		Scores:     scores,
	}
}

// CategorizeBatch categorizes each input on its own. profiles may be
// shorter than inputs; missing entries count as unknown sources.
func (c *Categorizer) CategorizeBatch(inputs []Input, profiles []*news.SourceProfile) []Result {
	out := make([]Result, len(inputs))
	for i, in := range inputs {
		var p *news.SourceProfile
		if i < len(profiles) {
			p = profiles[i]
		}
		out[i] = c.Categorize(in, p)
	}
	return out
}

func scoreRule(r Rule, title, content string, profile *news.SourceProfile) int {
	score := 0
	if profile != nil && hasAffinity(profile.Categories, r) {
		score += affinityBonus
	}
	for _, kw := range r.Strong {
		if kw == "" || !strings.Contains(content, kw) {
			continue
		}
		score += strongWeight
		if strings.Contains(title, kw) {
			score += titleBonus
		}
	}
	for _, kw := range r.Weak {
		if kw != "" && strings.Contains(content, kw) {
			score += weakWeight
		}
	}
	for _, kw := range r.Exclude {
		if kw != "" && strings.Contains(content, kw) {
			score -= excludeWeight
		}
	}
	return score
}

func hasAffinity(categories []string, r Rule) bool {
	for _, c := range categories {
		if strings.EqualFold(c, r.Slug) || strings.EqualFold(c, r.Name) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
