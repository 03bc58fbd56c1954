package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_food/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CatalogClient interface {
	ListRestaurants(ctx context.Context) ([]domain.Restaurant, error)
	GetMenu(ctx context.Context, restaurantID int64) ([]domain.MenuItem, error)
}

type CatalogHandler struct {
	catalog CatalogClient
	timeout time.Duration
	logger  *slog.Logger
}

func NewCatalogHandler(catalog CatalogClient, timeout time.Duration, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		timeout: timeout,
		logger:  logger,
	}
}

// GET /restaurants
func (h *CatalogHandler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	restaurants, err := h.catalog.ListRestaurants(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "error forwarding to catalog", "path", "/restaurants", "error", err)
		handleError(w, err, "Failed to fetch restaurants")
		return
	}

	respondJSON(w, http.StatusOK, restaurants)
}

// GET /restaurants/{id}/menu
func (h *CatalogHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	restaurantID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_restaurant_id", "restaurant id must be an integer")
		return
	}

	items, err := h.catalog.GetMenu(ctx, restaurantID)
	if err != nil {
		h.logger.ErrorContext(ctx, "error forwarding to catalog",
			"path", "/restaurants/{id}/menu", "restaurant_id", restaurantID, "error", err)
		handleError(w, err, "Failed to fetch menu")
		return
	}

	respondJSON(w, http.StatusOK, items)
}
