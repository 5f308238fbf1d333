package scoring

import "github.com/deusflow/headlines/internal/news"

type Tier string

const (
	TierPremium  Tier = "premium"
	TierGood     Tier = "good"
	TierStandard Tier = "standard"
	TierLow      Tier = "low"
)

// ShouldFeature reports whether an article is eligible for the front slot.
func ShouldFeature(s news.ArticleScore) bool {
	return s.Total >= FeatureThreshold
}

func IsTrending(s news.ArticleScore) bool {
	return s.Total >= TrendingThreshold && s.Breakdown.Recency >= TrendingRecency
}

func ScoreTier(s news.ArticleScore) Tier {
	switch {
	case s.Total >= 80:
		return TierPremium
	case s.Total >= 65:
		return TierGood
	case s.Total >= 50:
		return TierStandard
	default:
		return TierLow
	}
}
