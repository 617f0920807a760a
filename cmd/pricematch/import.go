package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricelens/backend/internal/infrastructure/export"
)

var (
	importDBPath   string
	importJSONPath string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import scraped listings from a JSON file into the SQLite store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		dsn := importDBPath
		if dsn == "" {
			dsn = cfg.Store.DSN
		}
		if dsn == "" {
			return eris.New("database path is required (--db or PRICELENS_STORE_DSN)")
		}

		listings, err := export.JSONFileSource{Path: importJSONPath}.Load(ctx)
		if err != nil {
			return eris.Wrap(err, "import json")
		}

		st, err := openStore(ctx, dsn)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		inserted, err := st.InsertListings(ctx, listings)
		if err != nil {
			return eris.Wrap(err, "insert listings")
		}

		total, err := st.CountListings(ctx)
		if err != nil {
			return eris.Wrap(err, "count listings")
		}

		zap.L().Info("import complete",
			zap.Int("inserted", inserted),
			zap.Int("total", total),
			zap.String("json", importJSONPath),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDBPath, "db", "", "SQLite database path (default from config)")
	importCmd.Flags().StringVar(&importJSONPath, "json", "", "path to JSON listing file (required)")
	_ = importCmd.MarkFlagRequired("json")
	rootCmd.AddCommand(importCmd)
}
