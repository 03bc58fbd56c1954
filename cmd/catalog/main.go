package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/fjod/go_food/internal/config"
	h "github.com/fjod/go_food/internal/http"
	"github.com/fjod/go_food/internal/logger"
	"github.com/fjod/go_food/internal/metrics"
	"github.com/fjod/go_food/internal/restaurant"
	"github.com/fjod/go_food/internal/tracing"
)

func main() {
	cfg, err := config.LoadCatalog()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New("catalog", cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("catalog stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("catalog exited")
}

func run(cfg *config.CatalogConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp := tracing.Init()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	repo, err := restaurant.NewRepository(cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations completed successfully", "db", cfg.DBPath)

	reg := prometheus.NewRegistry()
	serverMetrics := metrics.NewServerMetrics(reg, "catalog")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(serverMetrics.Middleware)

	restaurant.NewHandler(repo, log).Routes(r)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(reg))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "catalog"),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("catalog listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
