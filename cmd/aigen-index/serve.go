package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aigen-index/internal/database"
	"aigen-index/internal/filesystem"
	"aigen-index/internal/handlers"
	"aigen-index/internal/indexer"
	"aigen-index/internal/logging"
	"aigen-index/internal/metrics"
	"aigen-index/internal/middleware"
	"aigen-index/internal/startup"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
)

const (
	metricsInterval = time.Minute
	shutdownTimeout = 30 * time.Second
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP query API and rescan the configured roots periodically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *startup.Config) error {
	startTime := time.Now()

	memoryConfig := startup.ConfigureMemoryLimit()
	startup.PrintBanner(os.Stdout)
	startup.LogSystemInfo()
	startup.LogMemoryConfig(memoryConfig)
	startup.LogConfig(cfg)

	if err := cfg.PrepareDatabaseDir(); err != nil {
		return err
	}

	if cfg.MetricsEnabled {
		metrics.InitializeMetrics()
		filesystem.SetObserver(metrics.NewFilesystemObserver())
	}

	dbStart := time.Now()
	db, err := database.New(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	schemaVersion, _, err := db.SchemaVersion()
	if err != nil {
		_ = db.Close()
		return err
	}
	startup.LogDatabaseInit(db.Path(), schemaVersion, time.Since(dbStart))

	startup.LogIndexerInit(cfg)
	scheduler := indexer.NewScheduler(newIndexer(db, cfg), cfg.ScanRoots, cfg.ScanInterval)
	scheduler.SetPollInterval(cfg.PollInterval)
	scheduler.Start(ctx)
	startup.LogIndexerStarted()

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector(metrics.StatsProviderFunc(func(ctx context.Context) (metrics.Stats, error) {
			db.UpdateDBMetrics()
			return db.MetricsStats(ctx)
		}), metricsInterval)
		collector.Start()
	}

	handler, router := buildHandler(db, scheduler, cfg)
	startup.LogHTTPRoutes(router, cfg.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            cfg.Port,
		MetricsEnabled:  cfg.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var (
		runErr error
		reason string
	)
	select {
	case sig := <-sigChan:
		reason = "received " + sig.String()
	case <-ctx.Done():
		reason = "context cancelled"
	case err := <-serverErr:
		logging.Error("HTTP server failed: %v", err)
		reason = "server error"
		runErr = err
	}

	return errors.Join(runErr, shutdown(startup.BeginShutdown(reason), srv, scheduler, collector, db))
}

// buildHandler assembles the router and wraps it in the middleware chain.
// The bare router is returned as well for route logging.
func buildHandler(db *database.Database, scheduler *indexer.Scheduler, cfg *startup.Config) (http.Handler, *mux.Router) {
	h := handlers.New(db, scheduler)
	router := handlers.NewRouter(h, cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics)
	}

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = cfg.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	return middleware.Compression(loggedHandler), router
}

func shutdown(s *startup.Shutdown, srv *http.Server, scheduler *indexer.Scheduler, collector *metrics.Collector, db *database.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := []error{
		s.Step("HTTP server stopped", func() error { return srv.Shutdown(ctx) }),
		s.Step("Scheduler stopped", func() error {
			scheduler.Stop()
			return nil
		}),
	}
	if collector != nil {
		errs = append(errs, s.Step("Metrics collector stopped", func() error {
			collector.Stop()
			return nil
		}))
	}
	errs = append(errs, s.Step("Database closed", db.Close))

	s.Complete()
	return errors.Join(errs...)
}
