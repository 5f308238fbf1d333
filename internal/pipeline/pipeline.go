// Package pipeline turns a raw article batch into ranked, deduplicated and
// categorized output records.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/deusflow/headlines/internal/categorize"
	"github.com/deusflow/headlines/internal/dedup"
	"github.com/deusflow/headlines/internal/news"
	"github.com/deusflow/headlines/internal/scoring"
)

// ErrUnknownCategory is returned when a category fetch has no rule to apply.
var ErrUnknownCategory = errors.New("no category rule for category strategy")

type Strategy string

const (
	StrategyTop      Strategy = "top"
	StrategyCategory Strategy = "category"
	StrategySearch   Strategy = "search"
)

// Options controls a single Process call.
type Options struct {
	Strategy Strategy
	// Category is resolved against the categorizer rules when the
	// strategy is StrategyCategory and PresetCategory is nil.
	Category string
	// PresetCategory, when set, is assigned to every article instead of
	// running the categorizer.
	PresetCategory *categorize.Rule
}

// SourceResolver finds the profile of an article's source.
type SourceResolver interface {
	Resolve(a news.RawArticle) *news.SourceProfile
}

type Scorer interface {
	Score(a news.RawArticle, profile *news.SourceProfile) news.ArticleScore
}

type Classifier interface {
	Categorize(in categorize.Input, profile *news.SourceProfile) categorize.Result
	Rule(key string) (categorize.Rule, bool)
}

// Deps wires the pipeline stages.
type Deps struct {
	Sources     SourceResolver
	Scorer      Scorer
	Categorizer Classifier
	// Dedup is the base deduplication config. Preferred sources of a
	// preset category are appended per call.
	Dedup  dedup.Config
	Logger *slog.Logger
}

// Pipeline holds only immutable dependencies, so one value can serve
// concurrent Process calls.
type Pipeline struct {
	sources     SourceResolver
	scorer      Scorer
	categorizer Classifier
	dedup       dedup.Config
	log         *slog.Logger
}

func New(deps Deps) *Pipeline {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg := deps.Dedup
	cfg.PreferredSources = append([]string(nil), cfg.PreferredSources...)
	return &Pipeline{
		sources:     deps.Sources,
		scorer:      deps.Scorer,
		categorizer: deps.Categorizer,
		dedup:       cfg,
		log:         log,
	}
}

// Process runs resolve, score, deduplicate, sort, categorize and transform.
// The input must already be free of untitled and removed records.
func (p *Pipeline) Process(raw []news.RawArticle, opts Options) ([]news.Article, error) {
	preset, err := p.presetRule(opts)
	if err != nil {
		return nil, err
	}

	scored := make([]news.ScoredArticle, len(raw))
	for i, a := range raw {
		var profile *news.SourceProfile
		if p.sources != nil {
			profile = p.sources.Resolve(a)
		}
		scored[i] = news.ScoredArticle{
			Article: a,
			Score:   p.scorer.Score(a, profile),
			Profile: profile,
		}
	}

	cfg := p.dedup
	if preset != nil {
		cfg.PreferredSources = append(append([]string(nil), cfg.PreferredSources...), preset.PreferredSources...)
	}
	unique := dedup.New(cfg).Deduplicate(scored)
	dedup.SortByScore(unique)

	stats := dedup.ComputeStats(len(scored), len(unique))
	p.log.Debug("deduplicated batch",
		"strategy", opts.Strategy,
		"original", stats.Original,
		"kept", stats.Deduplicated,
		"removal_rate", stats.RemovalRate)

	out := make([]news.Article, len(unique))
	for i, s := range unique {
		category := ""
		if preset != nil {
			category = preset.Name
		} else {
			res := p.categorizer.Categorize(categorize.Input{
				Title:       s.Article.Title,
				Description: s.Article.Description,
				SourceName:  s.Article.SourceName(),
			}, s.Profile)
			category = res.Category
		}
		out[i] = news.ToArticle(i+1, s, category, int(math.Round(s.Score.Total)))
		out[i].Tier = string(scoring.ScoreTier(s.Score))
		out[i].Featured = scoring.ShouldFeature(s.Score)
		out[i].Trending = scoring.IsTrending(s.Score)
	}
	return out, nil
}

func (p *Pipeline) presetRule(opts Options) (*categorize.Rule, error) {
	if opts.PresetCategory != nil {
		return opts.PresetCategory, nil
	}
	if opts.Strategy != StrategyCategory {
		return nil, nil
	}
	rule, ok := p.categorizer.Rule(opts.Category)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, opts.Category)
	}
	return &rule, nil
}
