package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/pricelens/backend/internal/domain"
)

// Store persists scraped listings and generated reports in SQLite.
// It serves as both a domain.ListingSource and a domain.ReportRepository.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database at dsn and configures WAL mode.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS products (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	name           TEXT NOT NULL DEFAULT '',
	brand          TEXT,
	size_text      TEXT,
	description    TEXT,
	current_price  REAL,
	regular_price  REAL,
	sale_price     REAL,
	on_sale        INTEGER,
	unit_price     REAL,
	store_chain    TEXT NOT NULL DEFAULT '',
	store_location TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS reports (
	id           TEXT PRIMARY KEY,
	generated_at TEXT NOT NULL,
	report       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_products_store_chain ON products(store_chain);
CREATE INDEX IF NOT EXISTS idx_reports_generated_at ON reports(generated_at);
`

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertListings stores listings in one transaction and returns how many were written.
func (s *Store) InsertListings(ctx context.Context, listings []domain.RawListing) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert listings")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (
			name, brand, size_text, description, current_price, regular_price,
			sale_price, on_sale, unit_price, store_chain, store_location
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert listing")
	}
	defer stmt.Close()

	for i, l := range listings {
		_, err := stmt.ExecContext(ctx,
			l.Name, nullString(l.Brand), nullString(l.SizeText), nullString(l.Description),
			nullFloat(l.CurrentPrice), nullFloat(l.RegularPrice), nullFloat(l.SalePrice),
			nullBool(l.OnSale), nullFloat(l.UnitPrice), l.StoreChain, nullString(l.StoreLocation),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert listing %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert listings")
	}
	return len(listings), nil
}

// Load implements domain.ListingSource. Rows without a name are skipped;
// the rest are ordered by store chain then name.
func (s *Store) Load(ctx context.Context) ([]domain.RawListing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, brand, size_text, description, current_price, regular_price,
		       sale_price, on_sale, unit_price, store_chain, store_location
		FROM products
		WHERE trim(name) <> ''
		ORDER BY store_chain, name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load listings")
	}
	defer rows.Close()

	listings := make([]domain.RawListing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, eris.Wrap(rows.Err(), "sqlite: load listings iterate")
}

// CountListings returns the number of stored product rows.
func (s *Store) CountListings(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count listings")
}

// SaveReport implements domain.ReportRepository.
func (s *Store) SaveReport(ctx context.Context, record *domain.ReportRecord) error {
	reportJSON, err := json.Marshal(record.Report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, generated_at, report) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET generated_at = excluded.generated_at, report = excluded.report`,
		record.ID, record.GeneratedAt.UTC().Format(time.RFC3339Nano), string(reportJSON),
	)
	return eris.Wrapf(err, "sqlite: save report %s", record.ID)
}

// GetReport implements domain.ReportRepository.
func (s *Store) GetReport(ctx context.Context, id string) (*domain.ReportRecord, error) {
	var generatedAt, reportJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT generated_at, report FROM reports WHERE id = ?`, id,
	).Scan(&generatedAt, &reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get report %s", id)
	}

	ts, err := time.Parse(time.RFC3339Nano, generatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse generated_at for report %s", id)
	}

	var report domain.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal report %s", id)
	}

	return &domain.ReportRecord{ID: id, GeneratedAt: ts, Report: &report}, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanListing(row scannable) (*domain.RawListing, error) {
	var (
		l                                      domain.RawListing
		brand, sizeText, description, location sql.NullString
		current, regular, sale, unit           sql.NullFloat64
		onSale                                 sql.NullBool
	)

	err := row.Scan(
		&l.Name, &brand, &sizeText, &description, &current, &regular,
		&sale, &onSale, &unit, &l.StoreChain, &location,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan listing")
	}

	l.Brand = fromNullString(brand)
	l.SizeText = fromNullString(sizeText)
	l.Description = fromNullString(description)
	l.StoreLocation = fromNullString(location)
	l.CurrentPrice = fromNullFloat(current)
	l.RegularPrice = fromNullFloat(regular)
	l.SalePrice = fromNullFloat(sale)
	l.UnitPrice = fromNullFloat(unit)
	if onSale.Valid {
		l.OnSale = domain.BoolPtr(onSale.Bool)
	}
	return &l, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return domain.StringPtr(s.String)
}

func fromNullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return domain.FloatPtr(f.Float64)
}
