package usecase

import (
	"go.uber.org/zap"

	"github.com/pricelens/backend/internal/domain"
)

// DefaultSimilarityThreshold is the minimum score for two products to match.
const DefaultSimilarityThreshold = 0.8

// Clustering strategies accepted by NewClusterer.
const (
	StrategyGreedy  = "greedy"
	StrategyLinkage = "linkage"
)

// Clusterer partitions normalized products into match groups.
// Every input product appears in exactly one returned group.
type Clusterer interface {
	Cluster(products []*domain.NormalizedProduct) []domain.MatchGroup
}

// NewClusterer returns the clusterer for the named strategy.
// Unknown or empty strategies fall back to greedy.
func NewClusterer(strategy string, scorer *Scorer, threshold float64, debug bool) Clusterer {
	if strategy == StrategyLinkage {
		return NewLinkageClusterer(scorer, threshold, debug)
	}
	return NewGreedyClusterer(scorer, threshold, debug)
}

// GreedyClusterer groups products around anchors in a single pass.
// The first product left in the pool becomes the anchor and claims every
// remaining product scoring at least the threshold against it. Products are
// compared to the anchor only, so grouping depends on input order.
type GreedyClusterer struct {
	scorer    *Scorer
	threshold float64
	debug     bool
}

// NewGreedyClusterer creates a greedy clusterer. A nil scorer uses default
// weights; a non-positive threshold uses DefaultSimilarityThreshold.
func NewGreedyClusterer(scorer *Scorer, threshold float64, debug bool) *GreedyClusterer {
	if scorer == nil {
		scorer = NewScorer(DefaultWeights())
	}
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &GreedyClusterer{scorer: scorer, threshold: threshold, debug: debug}
}

// Cluster implements Clusterer.
func (c *GreedyClusterer) Cluster(products []*domain.NormalizedProduct) []domain.MatchGroup {
	pool := make([]*domain.NormalizedProduct, len(products))
	copy(pool, products)

	var groups []domain.MatchGroup
	for len(pool) > 0 {
		anchor := pool[0]
		group := domain.MatchGroup{anchor}

		remaining := pool[1:]
		next := make([]*domain.NormalizedProduct, 0, len(remaining))
		for _, candidate := range remaining {
			score := c.scorer.Score(anchor, candidate)
			if c.debug {
				logPairScore(anchor, candidate, score)
			}
			if score >= c.threshold {
				group = append(group, candidate)
				continue
			}
			next = append(next, candidate)
		}

		groups = append(groups, group)
		pool = next
	}

	return groups
}

// LinkageClusterer groups products by single linkage: any two products scoring
// at least the threshold end up in the same group, transitively.
// Groups are ordered by their earliest member; members keep input order.
type LinkageClusterer struct {
	scorer    *Scorer
	threshold float64
	debug     bool
}

// NewLinkageClusterer creates a single-linkage clusterer with the same
// defaults as NewGreedyClusterer.
func NewLinkageClusterer(scorer *Scorer, threshold float64, debug bool) *LinkageClusterer {
	if scorer == nil {
		scorer = NewScorer(DefaultWeights())
	}
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &LinkageClusterer{scorer: scorer, threshold: threshold, debug: debug}
}

// Cluster implements Clusterer.
func (c *LinkageClusterer) Cluster(products []*domain.NormalizedProduct) []domain.MatchGroup {
	sets := newDisjointSet(len(products))
	for i := 0; i < len(products); i++ {
		for j := i + 1; j < len(products); j++ {
			if sets.find(i) == sets.find(j) {
				continue
			}
			score := c.scorer.Score(products[i], products[j])
			if c.debug {
				logPairScore(products[i], products[j], score)
			}
			if score >= c.threshold {
				sets.union(i, j)
			}
		}
	}

	groupIndex := make(map[int]int, len(products))
	var groups []domain.MatchGroup
	for i, product := range products {
		root := sets.find(i)
		idx, ok := groupIndex[root]
		if !ok {
			idx = len(groups)
			groupIndex[root] = idx
			groups = append(groups, nil)
		}
		groups[idx] = append(groups[idx], product)
	}
	return groups
}

// disjointSet is a union-find over indices with path compression.
type disjointSet struct {
	parent []int
	rank   []int
}

func newDisjointSet(n int) *disjointSet {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &disjointSet{parent: parent, rank: make([]int, n)}
}

func (d *disjointSet) find(i int) int {
	for d.parent[i] != i {
		d.parent[i] = d.parent[d.parent[i]]
		i = d.parent[i]
	}
	return i
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	switch {
	case d.rank[ra] < d.rank[rb]:
		d.parent[ra] = rb
	case d.rank[ra] > d.rank[rb]:
		d.parent[rb] = ra
	default:
		d.parent[rb] = ra
		d.rank[ra]++
	}
}

func logPairScore(a, b *domain.NormalizedProduct, score float64) {
	zap.L().Debug("similarity",
		zap.String("a", a.NormalizedName),
		zap.String("b", b.NormalizedName),
		zap.Float64("score", score),
	)
}
