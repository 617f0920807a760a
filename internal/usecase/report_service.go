package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pricelens/backend/internal/domain"
)

// ReportServiceConfig holds configuration for the report service
type ReportServiceConfig struct {
	CacheTTL time.Duration
}

// ReportService runs the engine over listing batches and keeps the results.
type ReportService struct {
	engine   *Engine
	cache    domain.CacheRepository
	reports  domain.ReportRepository
	cacheTTL time.Duration
	now      func() time.Time
}

// NewReportService creates a report service. cache and reports may be nil,
// which disables caching and persistence respectively.
func NewReportService(
	engine *Engine,
	cache domain.CacheRepository,
	reports domain.ReportRepository,
	config ReportServiceConfig,
) *ReportService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	return &ReportService{
		engine:   engine,
		cache:    cache,
		reports:  reports,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Engine returns the underlying matching engine.
func (s *ReportService) Engine() *Engine {
	return s.engine
}

// GenerateReport builds a report for the listings.
// Flow: check cache -> run engine -> assign id -> persist -> cache -> return
func (s *ReportService) GenerateReport(ctx context.Context, listings []domain.RawListing) (*domain.ReportRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cacheKey, err := reportCacheKey(listings)
	if err != nil {
		return nil, eris.Wrap(err, "report: hash listings")
	}

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		return cached, nil
	}

	record := &domain.ReportRecord{
		ID:          uuid.NewString(),
		GeneratedAt: s.now().UTC(),
		Report:      s.engine.GenerateReport(listings),
	}

	if s.reports != nil {
		if err := s.reports.SaveReport(ctx, record); err != nil {
			return nil, eris.Wrapf(err, "report: save %s", record.ID)
		}
	}

	if err := s.setInCache(ctx, cacheKey, record); err != nil {
		zap.L().Warn("report cache write failed", zap.String("id", record.ID), zap.Error(err))
	}

	return record, nil
}

// GenerateFromSource loads listings from source and reports on them.
func (s *ReportService) GenerateFromSource(ctx context.Context, source domain.ListingSource) (*domain.ReportRecord, error) {
	listings, err := source.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "report: load listings")
	}
	return s.GenerateReport(ctx, listings)
}

// GetReport returns a previously persisted report.
func (s *ReportService) GetReport(ctx context.Context, id string) (*domain.ReportRecord, error) {
	if id == "" {
		return nil, domain.ErrInvalidRequest
	}
	if s.reports == nil {
		return nil, domain.ErrReportNotFound
	}
	return s.reports.GetReport(ctx, id)
}

// reportCacheKey derives a content-addressed key from the listing batch.
// Format: "report:{sha256 of the JSON-encoded listings}"
func reportCacheKey(listings []domain.RawListing) (string, error) {
	data, err := json.Marshal(listings)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return "report:" + hex.EncodeToString(sum[:]), nil
}

func (s *ReportService) getFromCache(ctx context.Context, key string) (*domain.ReportRecord, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var record domain.ReportRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, eris.Wrap(err, "report: decode cached record")
	}
	return &record, nil
}

func (s *ReportService) setInCache(ctx context.Context, key string, record *domain.ReportRecord) error {
	if s.cache == nil {
		return nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return eris.Wrap(err, "report: encode record")
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
