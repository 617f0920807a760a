package usecase

import (
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/pricelens/backend/internal/domain"
)

// Weights are the contributions of each signal to a similarity score.
// Name, Brand, Category, Unit and Keywords should sum to 1.0.
type Weights struct {
	Name     float64
	Brand    float64
	Category float64
	Unit     float64
	// UnitMismatch is the fraction of Unit credited when unit types differ.
	UnitMismatch float64
	Keywords     float64
}

// DefaultWeights returns the standard signal weights.
func DefaultWeights() Weights {
	return Weights{
		Name:         0.4,
		Brand:        0.2,
		Category:     0.2,
		Unit:         0.1,
		UnitMismatch: 0.5,
		Keywords:     0.1,
	}
}

// Scorer computes how likely two normalized products denote the same item.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer. Zero-value weights fall back to DefaultWeights.
func NewScorer(weights Weights) *Scorer {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights}
}

// Weights returns the scorer's weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns the weighted similarity of a and b in [0,1].
// It is symmetric and reads its inputs only.
func (s *Scorer) Score(a, b *domain.NormalizedProduct) float64 {
	if a == nil || b == nil {
		return 0
	}
	// Identity is decided on the five signals, not the pointer, so a copy
	// scores like the original even when both keyword sets are empty.
	if sameSignals(a, b) {
		return 1
	}

	w := s.weights

	unitCredit := w.UnitMismatch
	if a.UnitType == b.UnitType {
		unitCredit = 1
	}

	// Each term is converted explicitly so the compiler cannot fuse the
	// multiply into the addition; the sum must not depend on argument order.
	name := float64(w.Name * NameSimilarity(a.NormalizedName, b.NormalizedName))
	brand := float64(w.Brand * boolScore(a.Brand == b.Brand))
	category := float64(w.Category * boolScore(a.Category == b.Category))
	unit := float64(w.Unit * unitCredit)
	keywords := float64(w.Keywords * Jaccard(a.Keywords, b.Keywords))

	return clamp01(name + brand + category + unit + keywords)
}

func sameSignals(a, b *domain.NormalizedProduct) bool {
	return a.NormalizedName == b.NormalizedName &&
		a.Brand == b.Brand &&
		a.Category == b.Category &&
		a.UnitType == b.UnitType &&
		a.Keywords.Equal(b.Keywords)
}

var levenshtein = metrics.NewLevenshtein()

// NameSimilarity is the edit-distance ratio of two names:
// 1 minus the Levenshtein distance over the longer length.
func NameSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	return clamp01(strutil.Similarity(a, b, levenshtein))
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when either set is empty.
func Jaccard(a, b domain.KeywordSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	intersection := 0
	for w := range small {
		if large.Has(w) {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func boolScore(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
