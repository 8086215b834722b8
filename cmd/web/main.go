package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"esales-dashboard/internal/config"
	"esales-dashboard/internal/loader"
	"esales-dashboard/internal/middleware"
	"esales-dashboard/internal/observability"
	"esales-dashboard/internal/server"
	"esales-dashboard/internal/services"
)

const version = "1.0.0"

// openSource picks the configured record source. The returned close func
// releases any database handle and is never nil.
func openSource(ctx context.Context, cfg config.SourceConfig) (loader.Source, func() error, error) {
	if !cfg.UsesSQL() {
		return loader.CSVFile{Path: cfg.CSVFile}, func() error { return nil }, nil
	}

	db, err := loader.OpenPostgres(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return loader.SQLQuery{DB: db, Query: cfg.Query, Label: "postgres"}, db.Close, nil
}

// newHandler wraps the routes in the middleware stack. Metrics sits
// innermost so it sees the pattern the mux matched.
func newHandler(cfg *config.Config, store *services.Store, logger *slog.Logger, metrics *observability.Metrics) http.Handler {
	srv := server.NewServer(store, logger, metrics)
	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.TrustedProxy(cfg.Security),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.Metrics(metrics),
	)
	return chain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger, cfg.Telemetry.ServiceName)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"address", cfg.Address(),
		"sql_source", cfg.Source.UsesSQL(),
	)

	shutdownTracing, err := observability.InitTracing(cfg.Telemetry, os.Stdout, logger)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	store := services.NewStore(logger, metrics)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Source.LoadTimeout)
	src, closeSource, err := openSource(ctx, cfg.Source)
	if err != nil {
		cancel()
		logger.Error("failed to open data source", "error", err)
		os.Exit(1)
	}

	start := time.Now()
	snap, err := store.Load(ctx, src)
	cancel()
	if err != nil {
		logger.Error("failed to load sales data", "source", src.Name(), "error", err)
		closeSource()
		os.Exit(1)
	}
	logger.Info("sales data loaded",
		"source", snap.Source,
		"records", len(snap.Records),
		"duration", time.Since(start),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, store, logger, metrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook("source", func(ctx context.Context) error {
		store.Invalidate()
		return closeSource()
	})
	gracefulServer.RegisterShutdownHook("tracing", shutdownTracing)

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
