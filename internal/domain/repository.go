package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ListingSource supplies a batch of raw listings for one matching run.
// Implemented by the sqlite store, the listing feed client and JSON files.
type ListingSource interface {
	Load(ctx context.Context) ([]RawListing, error)
}

// ReportRepository persists generated reports.
type ReportRepository interface {
	SaveReport(ctx context.Context, record *ReportRecord) error
	GetReport(ctx context.Context, id string) (*ReportRecord, error)
}
