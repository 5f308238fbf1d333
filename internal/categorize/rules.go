package categorize

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RulesConfig is the YAML layout of a category file:
//
//	categories:
//	  - slug: technology
//	    name: Technology
//	    strong: [software, smartphone]
//	    weak: [tech]
//	    exclude: [recipe]
//	    preferred_sources: [theverge.com]
type RulesConfig struct {
	Categories []Rule `yaml:"categories"`
}

// LoadRules reads an ordered rule set from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg RulesConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := ValidateRules(cfg.Categories); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg.Categories, nil
}

// ValidateRules checks that every rule is addressable by a unique slug.
func ValidateRules(rules []Rule) error {
	if len(rules) == 0 {
		return fmt.Errorf("no categories defined")
	}
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.Slug) == "" || strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("category %d: slug and name are required", i)
		}
		key := strings.ToLower(r.Slug)
		if seen[key] {
			return fmt.Errorf("duplicate category slug %q", r.Slug)
		}
		seen[key] = true
	}
	return nil
}

// DefaultRules is the built-in category set. Order is tie-break precedence.
func DefaultRules() []Rule {
	return []Rule{
		{
			Slug: "technology",
			Name: "Technology",
			Strong: []string{
				"technology", "software", "smartphone", "iphone", "android",
				"artificial intelligence", "machine learning", "cybersecurity",
				"semiconductor", "startup", "silicon valley", "chipmaker", "app store",
			},
			Weak:             []string{"apple", "google", "microsoft", "tech", "device", "computer", "internet", "cloud", "robot", "gadget"},
			Exclude:          []string{"apple pie", "recipe"},
			PreferredSources: []string{"techcrunch.com", "theverge.com", "wired.com", "arstechnica.com", "engadget.com"},
		},
		{
			Slug: "business",
			Name: "Business",
			Strong: []string{
				"stock market", "earnings", "revenue", "shares", "investors",
				"wall street", "economy", "inflation", "merger", "acquisition",
				"interest rate", "federal reserve",
			},
			Weak:             []string{"market", "profit", "company", "ceo", "bank", "trade", "sales", "growth", "price", "deal"},
			PreferredSources: []string{"bloomberg.com", "wsj.com", "ft.com", "cnbc.com", "reuters.com"},
		},
		{
			Slug: "politics",
			Name: "Politics",
			Strong: []string{
				"senate", "congress", "legislation", "election", "president",
				"parliament", "lawmakers", "governor", "white house", "campaign",
				"democrat", "republican", "supreme court",
			},
			Weak:             []string{"vote", "policy", "government", "minister", "political", "diplomat", "sanctions"},
			PreferredSources: []string{"politico.com", "thehill.com", "apnews.com"},
		},
		{
			Slug: "science",
			Name: "Science",
			Strong: []string{
				"scientists", "researchers", "study finds", "nasa", "physics",
				"astronomy", "climate change", "species", "telescope", "genome",
			},
			Weak:             []string{"research", "study", "climate", "planet", "experiment", "laboratory", "fossil", "ocean", "space"},
			PreferredSources: []string{"nature.com", "scientificamerican.com", "newscientist.com"},
		},
		{
			Slug: "health",
			Name: "Health",
			Strong: []string{
				"health", "medical", "vaccine", "disease", "hospital", "patients",
				"cancer", "virus", "pandemic", "clinical trial",
			},
			Weak:             []string{"doctor", "drug", "treatment", "diet", "fitness", "wellness", "therapy", "symptoms"},
			PreferredSources: []string{"statnews.com", "webmd.com"},
		},
		{
			Slug: "sports",
			Name: "Sports",
			Strong: []string{
				"football", "soccer", "basketball", "tennis", "olympic",
				"championship", "tournament", "world cup", "baseball", "cricket",
				"playoffs", "super bowl",
			},
			Weak:             []string{"match", "team", "coach", "league", "season", "player", "victory"},
			PreferredSources: []string{"espn.com", "theathletic.com"},
		},
		{
			Slug: "entertainment",
			Name: "Entertainment",
			Strong: []string{
				"movie", "box office", "celebrity", "hollywood", "netflix",
				"album", "concert", "tv series", "oscar", "grammy", "actress",
			},
			Weak:             []string{"film", "music", "streaming", "festival", "singer", "premiere", "series"},
			PreferredSources: []string{"variety.com", "hollywoodreporter.com", "ew.com"},
		},
	}
}
