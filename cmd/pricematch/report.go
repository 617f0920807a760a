package main

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/export"
	"github.com/pricelens/backend/internal/infrastructure/feed"
	"github.com/pricelens/backend/internal/usecase"
)

var (
	reportJSONFiles []string
	reportDBPath    string
	reportFeedURL   string
	reportOutPath   string
	reportXLSXPath  string
	reportTopN      int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a price comparison report from listing sources",
	Long:  "Loads listings from JSON files, the SQLite store and the listing feed, matches them and writes the report as JSON (and optionally XLSX).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		engine, err := newEngine(cfg.Matching, reportTopN)
		if err != nil {
			return err
		}

		var sources []domain.ListingSource
		for _, path := range reportJSONFiles {
			sources = append(sources, export.JSONFileSource{Path: path})
		}

		dbPath := reportDBPath
		if dbPath == "" {
			dbPath = cfg.Store.DSN
		}

		var reports domain.ReportRepository
		if dbPath != "" {
			st, err := openStore(ctx, dbPath)
			if err != nil {
				return eris.Wrap(err, "open store")
			}
			defer st.Close() //nolint:errcheck
			sources = append(sources, st)
			reports = st
		}

		feedURL := reportFeedURL
		if feedURL == "" {
			feedURL = cfg.Feed.BaseURL
		}
		if feedURL != "" {
			sources = append(sources, feed.NewClient(feed.ClientConfig{
				BaseURL:           feedURL,
				Timeout:           cfg.Feed.Timeout,
				RequestsPerMinute: cfg.RateLimit.Feed,
			}))
		}

		if len(sources) == 0 {
			return eris.New("at least one source is required (--json, --db or --url)")
		}

		listings, err := loadSources(ctx, sources)
		if err != nil {
			return err
		}

		service := usecase.NewReportService(engine, nil, reports, usecase.ReportServiceConfig{})
		record, err := service.GenerateReport(ctx, listings)
		if err != nil {
			return eris.Wrap(err, "generate report")
		}

		if err := writeReport(record, reportOutPath, cmd.OutOrStdout()); err != nil {
			return err
		}

		if reportXLSXPath != "" {
			if err := export.SaveXLSX(reportXLSXPath, record); err != nil {
				return err
			}
		}

		zap.L().Info("report complete",
			zap.String("id", record.ID),
			zap.Int("sources", len(sources)),
			zap.Int("listings", len(listings)),
			zap.Int("comparisons", record.Report.Summary.PriceComparisons),
		)
		return nil
	},
}

// loadSources loads every source concurrently and concatenates the results
// in source order. The first failure cancels the remaining loads.
func loadSources(ctx context.Context, sources []domain.ListingSource) ([]domain.RawListing, error) {
	results := make([][]domain.RawListing, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			listings, err := src.Load(gctx)
			if err != nil {
				return eris.Wrapf(err, "load source %d", i)
			}
			results[i] = listings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.RawListing
	for _, r := range results {
		all = append(all, r...)
	}
	if all == nil {
		all = []domain.RawListing{}
	}
	return all, nil
}

// writeReport writes the record as JSON to path, or to stdout when path is empty.
func writeReport(record *domain.ReportRecord, path string, stdout io.Writer) error {
	if path == "" {
		return export.WriteJSON(stdout, record)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := export.WriteJSON(f, record); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}

func init() {
	reportCmd.Flags().StringSliceVar(&reportJSONFiles, "json", nil, "JSON listing files (repeatable)")
	reportCmd.Flags().StringVar(&reportDBPath, "db", "", "SQLite database to load listings from and store the report in (default from config)")
	reportCmd.Flags().StringVar(&reportFeedURL, "url", "", "listing feed base URL (default from config)")
	reportCmd.Flags().StringVar(&reportOutPath, "out", "", "output JSON path (default stdout)")
	reportCmd.Flags().StringVar(&reportXLSXPath, "xlsx", "", "also write an Excel workbook to this path")
	reportCmd.Flags().IntVar(&reportTopN, "top", 0, "number of top savings opportunities (default from config)")
	rootCmd.AddCommand(reportCmd)
}
