package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpDelivery "github.com/pricelens/backend/internal/delivery/http"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/cache"
	"github.com/pricelens/backend/internal/usecase"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the matching HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		engine, err := newEngine(cfg.Matching, 0)
		if err != nil {
			return err
		}

		memoryCache := cache.NewMemoryCache(0)
		defer memoryCache.Close()

		var reports domain.ReportRepository
		if cfg.Store.DSN != "" {
			st, err := openStore(ctx, cfg.Store.DSN)
			if err != nil {
				return eris.Wrap(err, "open store")
			}
			defer st.Close() //nolint:errcheck
			reports = st
			zap.L().Info("report persistence enabled", zap.String("dsn", cfg.Store.DSN))
		}

		reportService := usecase.NewReportService(engine, memoryCache, reports, usecase.ReportServiceConfig{
			CacheTTL: cfg.Cache.TTL,
		})

		router := httpDelivery.SetupRouter(cfg, httpDelivery.NewHandler(reportService))

		port := servePort
		if port == "" {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server",
			zap.String("port", port),
			zap.String("environment", cfg.Server.Environment),
			zap.Float64("similarity_threshold", cfg.Matching.SimilarityThreshold),
			zap.String("strategy", cfg.Matching.Strategy),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
