package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/backend/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestStore_InsertAndLoad(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	listings := []domain.RawListing{
		{
			Name:          "Organic Valley Whole Milk 1L",
			Brand:         domain.StringPtr("Organic Valley"),
			SizeText:      domain.StringPtr("1L"),
			CurrentPrice:  domain.FloatPtr(5.99),
			RegularPrice:  domain.FloatPtr(6.49),
			OnSale:        domain.BoolPtr(true),
			StoreChain:    "Metro",
			StoreLocation: domain.StringPtr("Toronto"),
		},
		{Name: "", StoreChain: "Metro"},
		{Name: "Bread", StoreChain: "Loblaws"},
		{Name: "   ", StoreChain: "Loblaws"},
		{Name: "Apples", StoreChain: "Metro", OnSale: domain.BoolPtr(false)},
	}

	n, err := st.InsertListings(ctx, listings)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	count, err := st.CountListings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	loaded, err := st.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	assert.Equal(t, "Bread", loaded[0].Name)
	assert.Equal(t, "Loblaws", loaded[0].StoreChain)
	assert.Nil(t, loaded[0].Brand)
	assert.Nil(t, loaded[0].CurrentPrice)
	assert.Nil(t, loaded[0].OnSale)

	assert.Equal(t, "Apples", loaded[1].Name)
	require.NotNil(t, loaded[1].OnSale)
	assert.False(t, *loaded[1].OnSale)

	assert.Equal(t, listings[0], loaded[2])
}

func TestStore_LoadEmpty(t *testing.T) {
	st := newTestStore(t)

	loaded, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, loaded)
	assert.Empty(t, loaded)
}

func TestStore_InsertNothing(t *testing.T) {
	st := newTestStore(t)

	n, err := st.InsertListings(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_SaveAndGetReport(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	record := &domain.ReportRecord{
		ID:          "4b6f6a3e-5d0c-4c8e-9a1b-2f3d4e5f6a7b",
		GeneratedAt: time.Date(2026, 3, 1, 12, 30, 0, 123000000, time.UTC),
		Report: &domain.Report{
			Summary:    domain.ReportSummary{TotalProducts: 3, NormalizedProducts: 3, ProductGroups: 2},
			Categories: map[string]int{"dairy": 3},
			Brands:     map[string]int{"Organic Valley": 2},
			AllComparisons: []domain.PriceComparison{{
				ProductName: "organic valley whole milk",
				StoreCount:  2,
				MinPrice:    5.99,
				MaxPrice:    6.29,
				Stores:      []domain.StoreSnapshot{{StoreChain: "Metro"}, {StoreChain: "Loblaws"}},
			}},
			TopSavings:  []domain.PriceComparison{},
			Diagnostics: []domain.Diagnostic{{Index: 4, Reason: "listing has no product name"}},
		},
	}

	require.NoError(t, st.SaveReport(ctx, record))

	got, err := st.GetReport(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.True(t, record.GeneratedAt.Equal(got.GeneratedAt))
	assert.Equal(t, record.Report, got.Report)
}

func TestStore_SaveReportOverwrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	record := &domain.ReportRecord{ID: "r1", GeneratedAt: time.Now(), Report: &domain.Report{}}
	require.NoError(t, st.SaveReport(ctx, record))

	record.Report = &domain.Report{Summary: domain.ReportSummary{TotalProducts: 7}}
	require.NoError(t, st.SaveReport(ctx, record))

	got, err := st.GetReport(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.Report.Summary.TotalProducts)
}

func TestStore_GetReportMissing(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetReport(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, domain.ErrReportNotFound)
}
