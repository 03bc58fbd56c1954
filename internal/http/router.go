package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/go_food/internal/auth"
	"github.com/fjod/go_food/internal/idempotency"
	"github.com/fjod/go_food/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps holds everything the gateway router needs. Idempotency, Metrics and Gatherer are optional.
type RouterDeps struct {
	Catalog     CatalogClient
	Orders      OrderService
	Auth        auth.TokenAuthenticator
	Idempotency idempotency.Store
	Metrics     *metrics.ServerMetrics
	Gatherer    prometheus.Gatherer
	Logger      *slog.Logger

	RequestTimeout time.Duration
	MaxBodySize    int64
	AllowedOrigins []string
	StoreName      string
}

func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	catalogHandler := NewCatalogHandler(deps.Catalog, timeout, logger)
	authHandler := NewAuthHandler(deps.Auth)
	ordersHandler := NewOrdersHandler(deps.Orders, deps.Idempotency, timeout, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	if deps.MaxBodySize > 0 {
		r.Use(middleware.RequestSize(deps.MaxBodySize))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token", idempotencyKeyHeader},
		ExposedHeaders: []string{"X-Request-Id", replayedHeader},
		MaxAge:         300,
	}))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "gateway",
			"store":   deps.StoreName,
		})
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Get("/restaurants", catalogHandler.ListRestaurants)
	r.Get("/restaurants/{id}/menu", catalogHandler.GetMenu)
	r.Post("/auth/login", authHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(deps.Auth))
		r.Post("/order", ordersHandler.CreateOrder)
		r.Get("/order/{id}", ordersHandler.GetOrder)
		r.Get("/orders", ordersHandler.ListOrders)
	})

	return r
}
