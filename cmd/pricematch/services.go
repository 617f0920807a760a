package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pricelens/backend/config"
	"github.com/pricelens/backend/internal/infrastructure/sqlite"
	"github.com/pricelens/backend/internal/usecase"
)

// newEngine builds the matching engine from the matching config section.
// A positive topN overrides the configured value.
func newEngine(m config.MatchingConfig, topN int) (*usecase.Engine, error) {
	tables := usecase.DefaultTables()
	if m.TablesFile != "" {
		loaded, err := usecase.LoadTables(m.TablesFile)
		if err != nil {
			return nil, eris.Wrapf(err, "load matching tables %s", m.TablesFile)
		}
		tables = loaded
		zap.L().Info("loaded matching tables", zap.String("path", m.TablesFile))
	}

	if topN <= 0 {
		topN = m.TopN
	}

	return usecase.NewEngine(usecase.EngineConfig{
		SimilarityThreshold: m.SimilarityThreshold,
		Strategy:            m.Strategy,
		TopN:                topN,
		Tables:              tables,
		StemKeywords:        m.StemKeywords,
		EnableDebugLogging:  m.Debug,
	}), nil
}

// openStore opens the SQLite store at dsn and applies the schema.
func openStore(ctx context.Context, dsn string) (*sqlite.Store, error) {
	st, err := sqlite.Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
