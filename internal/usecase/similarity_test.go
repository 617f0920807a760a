package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/backend/internal/domain"
)

func newProduct(name, brand, category, unit string, keywords ...string) *domain.NormalizedProduct {
	return &domain.NormalizedProduct{
		NormalizedName: name,
		Brand:          brand,
		Category:       category,
		BaseUnit:       unit,
		UnitSize:       1,
		UnitType:       unit,
		Keywords:       domain.NewKeywordSet(keywords...),
		SourceListings: []domain.RawListing{{Name: name, StoreChain: "Metro"}},
	}
}

func scenarioListings() []domain.RawListing {
	return []domain.RawListing{
		{
			Name:         "Organic Valley Whole Milk 1L",
			Brand:        domain.StringPtr("Organic Valley"),
			CurrentPrice: domain.FloatPtr(5.99),
			StoreChain:   "Metro",
		},
		{
			Name:         "Organic Valley Milk Whole 1 Liter",
			Brand:        domain.StringPtr("Organic Valley"),
			CurrentPrice: domain.FloatPtr(6.29),
			StoreChain:   "Loblaws",
		},
		{
			Name:         "PC Organic Whole Milk 1L",
			Brand:        domain.StringPtr("President's Choice"),
			CurrentPrice: domain.FloatPtr(4.99),
			StoreChain:   "NoFrills",
		},
	}
}

func scenarioProducts(t *testing.T) []*domain.NormalizedProduct {
	t.Helper()
	n := NewNormalizer(NormalizerConfig{})
	var products []*domain.NormalizedProduct
	for _, l := range scenarioListings() {
		p, err := n.NormalizeListing(l)
		require.NoError(t, err)
		products = append(products, p)
	}
	return products
}

func TestNewScorer(t *testing.T) {
	t.Run("zero weights use defaults", func(t *testing.T) {
		assert.Equal(t, DefaultWeights(), NewScorer(Weights{}).Weights())
	})

	t.Run("keeps custom weights", func(t *testing.T) {
		w := Weights{Name: 1}
		assert.Equal(t, w, NewScorer(w).Weights())
	})
}

func TestScore(t *testing.T) {
	scorer := NewScorer(DefaultWeights())

	t.Run("same product scores one", func(t *testing.T) {
		p := newProduct("organic whole milk", "Organic Valley", "dairy", "liter", "organic", "whole", "milk")
		assert.Equal(t, 1.0, scorer.Score(p, p))
	})

	t.Run("identical products score one", func(t *testing.T) {
		a := newProduct("organic whole milk", "Organic Valley", "dairy", "liter", "organic", "whole", "milk")
		b := newProduct("organic whole milk", "Organic Valley", "dairy", "liter", "milk", "whole", "organic")
		assert.Equal(t, 1.0, scorer.Score(a, b))
	})

	t.Run("disjoint products keep unit partial credit", func(t *testing.T) {
		a := newProduct("aaaa", "Alpha", "dairy", "liter", "alpha")
		b := newProduct("bbbb", "Beta", "meat", "gram", "beta")
		assert.InDelta(t, 0.05, scorer.Score(a, b), 1e-12)
	})

	t.Run("disjoint products score zero without partial credit", func(t *testing.T) {
		strict := NewScorer(Weights{Name: 0.4, Brand: 0.2, Category: 0.2, Unit: 0.1, Keywords: 0.1})
		a := newProduct("aaaa", "Alpha", "dairy", "liter", "alpha")
		b := newProduct("bbbb", "Beta", "meat", "gram", "beta")
		assert.Equal(t, 0.0, strict.Score(a, b))
	})

	t.Run("copies without keywords score like the original", func(t *testing.T) {
		a := newProduct("milk", "A", "dairy", "liter")
		b := newProduct("milk", "A", "dairy", "liter")
		assert.Equal(t, 1.0, scorer.Score(a, a))
		assert.Equal(t, 1.0, scorer.Score(a, b))
	})

	t.Run("empty keyword sets contribute nothing", func(t *testing.T) {
		a := newProduct("milk", "A", "dairy", "liter")
		b := newProduct("milk", "B", "dairy", "liter")
		assert.InDelta(t, 0.7, scorer.Score(a, b), 1e-9)
	})

	t.Run("nil product", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.Score(nil, newProduct("milk", "A", "dairy", "liter")))
	})

	t.Run("reordered milk listings match", func(t *testing.T) {
		products := scenarioProducts(t)
		score := scorer.Score(products[0], products[1])
		assert.InDelta(t, 0.852, score, 1e-9)
		assert.GreaterOrEqual(t, score, DefaultSimilarityThreshold)
	})

	t.Run("other brand stays below threshold", func(t *testing.T) {
		products := scenarioProducts(t)
		assert.Less(t, scorer.Score(products[0], products[2]), DefaultSimilarityThreshold)
		assert.Less(t, scorer.Score(products[1], products[2]), DefaultSimilarityThreshold)
	})

	t.Run("inputs are not modified", func(t *testing.T) {
		a := newProduct("organic whole milk", "A", "dairy", "liter", "organic", "milk")
		b := newProduct("whole milk", "B", "dairy", "gram", "milk")
		scorer.Score(a, b)
		assert.Equal(t, newProduct("organic whole milk", "A", "dairy", "liter", "organic", "milk"), a)
		assert.Equal(t, newProduct("whole milk", "B", "dairy", "gram", "milk"), b)
	})
}

func TestScoreSymmetric(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	products := append(scenarioProducts(t),
		newProduct("aaaa", "Alpha", "dairy", "liter", "alpha"),
		newProduct("whole wheat bread", "Dempsters", "bakery", "gram", "whole", "wheat", "bread"),
		newProduct("", "Generic", "other", "each"),
	)

	for i, a := range products {
		for j, b := range products {
			assert.Equal(t, scorer.Score(a, b), scorer.Score(b, a), "pair %d,%d", i, j)
		}
	}
}

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "whole milk", "whole milk", 1},
		{"both empty", "", "", 1},
		{"one empty", "milk", "", 0},
		{"disjoint", "abc", "xyz", 0},
		{"reordered words", "organic valley whole milk", "organic valley milk whole", 0.68},
		{"one edit", "milk", "silk", 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NameSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b domain.KeywordSet
		want float64
	}{
		{"overlap", domain.NewKeywordSet("a", "b", "c"), domain.NewKeywordSet("b", "c", "d"), 0.5},
		{"identical", domain.NewKeywordSet("a", "b"), domain.NewKeywordSet("b", "a"), 1},
		{"disjoint", domain.NewKeywordSet("a"), domain.NewKeywordSet("b"), 0},
		{"left empty", domain.NewKeywordSet(), domain.NewKeywordSet("a"), 0},
		{"both nil", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Jaccard(tt.a, tt.b), 1e-12)
			assert.InDelta(t, tt.want, Jaccard(tt.b, tt.a), 1e-12)
		})
	}
}
