package usecase

import "github.com/pricelens/backend/internal/domain"

// Merge collapses a match group into one product.
//
// A singleton group yields its member unchanged. Otherwise brand and category
// are decided by plurality vote (ties go to the earliest member's value),
// keywords are unioned, source listings are concatenated in group order, and
// every other field is taken from the anchor. Group members are not modified.
func Merge(group domain.MatchGroup) *domain.NormalizedProduct {
	switch len(group) {
	case 0:
		return nil
	case 1:
		return group[0]
	}

	anchor := group[0]
	merged := &domain.NormalizedProduct{
		NormalizedName: anchor.NormalizedName,
		Subcategory:    anchor.Subcategory,
		BaseUnit:       anchor.BaseUnit,
		UnitSize:       anchor.UnitSize,
		UnitType:       anchor.UnitType,
		Organic:        anchor.Organic,
		Keywords:       make(domain.KeywordSet),
	}

	brands := make([]string, 0, len(group))
	categories := make([]string, 0, len(group))
	for _, member := range group {
		brands = append(brands, member.Brand)
		categories = append(categories, member.Category)
		merged.Keywords = merged.Keywords.Union(member.Keywords)
		merged.SourceListings = append(merged.SourceListings, member.SourceListings...)
	}
	merged.Brand = pluralityVote(brands)
	merged.Category = pluralityVote(categories)

	return merged
}

// pluralityVote returns the most frequent value. Among equally frequent
// values the one appearing first wins.
func pluralityVote(values []string) string {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	var winner string
	best := 0
	for _, v := range values {
		if counts[v] > best {
			winner, best = v, counts[v]
		}
	}
	return winner
}
