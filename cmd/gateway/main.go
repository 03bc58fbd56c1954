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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/fjod/go_food/internal/auth"
	"github.com/fjod/go_food/internal/catalog"
	"github.com/fjod/go_food/internal/config"
	"github.com/fjod/go_food/internal/events"
	h "github.com/fjod/go_food/internal/http"
	"github.com/fjod/go_food/internal/idempotency"
	"github.com/fjod/go_food/internal/logger"
	"github.com/fjod/go_food/internal/metrics"
	"github.com/fjod/go_food/internal/repository"
	"github.com/fjod/go_food/internal/service"
	"github.com/fjod/go_food/internal/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New("gateway", cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("gateway stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("gateway exited")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp := tracing.Init()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	repo, err := openOrderStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := repo.Close(closeCtx); err != nil {
			log.Warn("failed to close order store", "error", err)
		}
	}()

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.EventsTopic, cfg.KafkaBrokers...)
		log.Info("publishing order events", "topic", cfg.EventsTopic, "brokers", cfg.KafkaBrokers)
	}
	defer publisher.Close()

	var idem idempotency.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		idem = idempotency.NewRedisStore(rdb, cfg.IdempotencyTTL)
		log.Info("idempotency keys enabled", "redis", cfg.RedisAddr, "ttl", cfg.IdempotencyTTL.String())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := h.NewRouter(h.RouterDeps{
		Catalog: catalog.NewClient(cfg.CatalogURL, cfg.CatalogTimeout, catalog.WithLogger(log)),
		Orders: service.NewOrderService(repo,
			service.WithPublisher(publisher),
			service.WithLogger(log),
		),
		Auth:           auth.NewStaticAuthenticator(cfg.AuthUsername, cfg.AuthPassword, cfg.AuthToken),
		Idempotency:    idem,
		Metrics:        metrics.NewServerMetrics(reg, "gateway"),
		Gatherer:       reg,
		Logger:         log,
		RequestTimeout: cfg.RequestTimeout,
		MaxBodySize:    cfg.MaxRequestBodySize,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		StoreName:      cfg.OrderStore,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "gateway"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("gateway listening", "addr", srv.Addr, "store", cfg.OrderStore, "catalog", cfg.CatalogURL)
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

func openOrderStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.OrderRepository, error) {
	switch cfg.OrderStore {
	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()

		db, err := repository.ConnectMongoDB(connectCtx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		repo := repository.NewMongoRepository(db)
		if err := repo.CreateIndexes(connectCtx); err != nil {
			_ = repo.Close(context.Background())
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		log.Info("connected to MongoDB", "database", cfg.MongoDBName)
		return repo, nil

	case config.StorePostgres:
		repo, err := repository.NewPostgresRepository(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := repo.RunMigrations(); err != nil {
			_ = repo.Close(context.Background())
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("connected to Postgres, migrations applied")
		return repo, nil

	default:
		log.Warn("using in-memory order store; orders are lost on restart")
		return repository.NewMemoryRepository(), nil
	}
}
