package usecase

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/pricelens/backend/internal/domain"
)

// DefaultTopN is the number of comparisons listed as top savings in a report.
const DefaultTopN = 10

// EngineConfig holds configuration for the matching engine
type EngineConfig struct {
	SimilarityThreshold float64
	Strategy            string
	TopN                int
	Tables              Tables
	Weights             Weights
	StemKeywords        bool
	EnableDebugLogging  bool
	// Clusterer overrides Strategy when set.
	Clusterer Clusterer
}

// Engine normalizes, clusters and compares a batch of raw listings.
// It holds no per-run state and may be shared between goroutines.
type Engine struct {
	normalizer *Normalizer
	scorer     *Scorer
	clusterer  Clusterer
	topN       int
}

// NewEngine creates a matching engine with the given configuration
func NewEngine(config EngineConfig) *Engine {
	threshold := config.SimilarityThreshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	topN := config.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	scorer := NewScorer(config.Weights)
	clusterer := config.Clusterer
	if clusterer == nil {
		clusterer = NewClusterer(config.Strategy, scorer, threshold, config.EnableDebugLogging)
	}

	return &Engine{
		normalizer: NewNormalizer(NormalizerConfig{
			Tables:       config.Tables,
			StemKeywords: config.StemKeywords,
		}),
		scorer:    scorer,
		clusterer: clusterer,
		topN:      topN,
	}
}

// Normalizer returns the engine's normalizer.
func (e *Engine) Normalizer() *Normalizer {
	return e.normalizer
}

// Scorer returns the engine's similarity scorer.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// NormalizeBatch normalizes every listing in order. Listings that cannot be
// normalized are dropped and reported as diagnostics; they never abort the batch.
func (e *Engine) NormalizeBatch(listings []domain.RawListing) ([]*domain.NormalizedProduct, []domain.Diagnostic) {
	products := make([]*domain.NormalizedProduct, 0, len(listings))
	diagnostics := make([]domain.Diagnostic, 0)

	for i, listing := range listings {
		product, err := e.normalizeOne(listing)
		if err != nil {
			diagnostic := domain.Diagnostic{Index: i, Name: listing.Name, Reason: err.Error()}
			diagnostics = append(diagnostics, diagnostic)
			zap.L().Warn("listing dropped",
				zap.Int("index", i),
				zap.String("store_chain", listing.StoreChain),
				zap.String("reason", diagnostic.Reason),
			)
			continue
		}
		products = append(products, product)
	}

	return products, diagnostics
}

// normalizeOne isolates a single listing so a panic only drops that listing.
func (e *Engine) normalizeOne(listing domain.RawListing) (product *domain.NormalizedProduct, err error) {
	defer func() {
		if r := recover(); r != nil {
			product = nil
			err = fmt.Errorf("normalization failed: %v", r)
		}
	}()
	return e.normalizer.NormalizeListing(listing)
}

// Cluster groups normalized products with the configured clusterer.
func (e *Engine) Cluster(products []*domain.NormalizedProduct) []domain.MatchGroup {
	if len(products) == 0 {
		return []domain.MatchGroup{}
	}
	return e.clusterer.Cluster(products)
}

// FindPriceComparisons clusters the products and builds a comparison for every
// product sold at more than one store, sorted by price difference descending.
func (e *Engine) FindPriceComparisons(products []*domain.NormalizedProduct) []domain.PriceComparison {
	return buildComparisons(e.Cluster(products))
}

// GenerateReport runs the full pipeline over a batch of raw listings.
func (e *Engine) GenerateReport(listings []domain.RawListing) *domain.Report {
	products, diagnostics := e.NormalizeBatch(listings)
	groups := e.Cluster(products)
	comparisons := buildComparisons(groups)

	categories := make(map[string]int)
	brands := make(map[string]int)
	for _, p := range products {
		categories[p.Category]++
		brands[p.Brand]++
	}

	multiStore := 0
	for _, g := range groups {
		if len(g) > 1 {
			multiStore++
		}
	}

	top := comparisons
	if len(top) > e.topN {
		top = top[:e.topN]
	}

	report := &domain.Report{
		Summary: domain.ReportSummary{
			TotalProducts:      len(listings),
			NormalizedProducts: len(products),
			ProductGroups:      len(groups),
			MultiStoreProducts: multiStore,
			PriceComparisons:   len(comparisons),
			DroppedListings:    len(diagnostics),
		},
		Categories:     categories,
		Brands:         brands,
		TopSavings:     top,
		AllComparisons: comparisons,
		Diagnostics:    diagnostics,
	}

	zap.L().Info("matching run complete",
		zap.Int("listings", report.Summary.TotalProducts),
		zap.Int("normalized", report.Summary.NormalizedProducts),
		zap.Int("groups", report.Summary.ProductGroups),
		zap.Int("comparisons", report.Summary.PriceComparisons),
		zap.Int("dropped", report.Summary.DroppedListings),
	)

	return report
}

func buildComparisons(groups []domain.MatchGroup) []domain.PriceComparison {
	comparisons := make([]domain.PriceComparison, 0)
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		comparison, err := compareGroup(Merge(group))
		if err != nil {
			continue
		}
		comparisons = append(comparisons, comparison)
	}

	sort.SliceStable(comparisons, func(i, j int) bool {
		return comparisons[i].PriceDifference > comparisons[j].PriceDifference
	})
	return comparisons
}

var errNoUsablePrice = errors.New("no listing carries a usable price")

// compareGroup builds the price comparison for a merged product.
func compareGroup(merged *domain.NormalizedProduct) (domain.PriceComparison, error) {
	stores := make([]domain.StoreSnapshot, 0, len(merged.SourceListings))
	prices := make([]float64, 0, len(merged.SourceListings))

	for _, listing := range merged.SourceListings {
		stores = append(stores, snapshotOf(listing))
		if price, ok := listing.EffectivePrice(); ok {
			prices = append(prices, price)
		}
	}

	if len(prices) == 0 {
		return domain.PriceComparison{}, errNoUsablePrice
	}

	minPrice, maxPrice, sum := prices[0], prices[0], 0.0
	for _, p := range prices {
		minPrice = min(minPrice, p)
		maxPrice = max(maxPrice, p)
		sum += p
	}

	savings := 0.0
	if maxPrice > 0 {
		savings = (maxPrice - minPrice) / maxPrice * 100
	}

	return domain.PriceComparison{
		ProductName:       merged.NormalizedName,
		Brand:             merged.Brand,
		Category:          merged.Category,
		UnitSize:          merged.UnitSize,
		UnitType:          merged.UnitType,
		Organic:           merged.Organic,
		StoreCount:        merged.StoreCount(),
		MinPrice:          minPrice,
		MaxPrice:          maxPrice,
		AvgPrice:          sum / float64(len(prices)),
		PriceDifference:   maxPrice - minPrice,
		SavingsPercentage: savings,
		Stores:            stores,
	}, nil
}

func snapshotOf(listing domain.RawListing) domain.StoreSnapshot {
	onSale := false
	if listing.OnSale != nil {
		onSale = *listing.OnSale
	}
	return domain.StoreSnapshot{
		StoreChain:    listing.StoreChain,
		StoreLocation: listing.StoreLocation,
		CurrentPrice:  listing.CurrentPrice,
		RegularPrice:  listing.RegularPrice,
		SalePrice:     listing.SalePrice,
		OnSale:        onSale,
		UnitPrice:     listing.UnitPrice,
		Size:          listing.SizeText,
	}
}
