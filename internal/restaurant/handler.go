package restaurant

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	repo   RepoInterface
	logger *slog.Logger
}

func NewHandler(repo RepoInterface, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Routes mounts the catalog endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/restaurants", h.ListRestaurants)
	r.Get("/restaurants/{id}/menu", h.GetMenu)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "catalog"})
}

func (h *Handler) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.repo.ListRestaurants(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list restaurants", "error", err)
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	h.respondJSON(w, http.StatusOK, restaurants)
}

func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "restaurant id must be an integer"})
		return
	}

	items, err := h.repo.GetMenu(r.Context(), id)
	if errors.Is(err, ErrRestaurantNotFound) {
		h.respondJSON(w, http.StatusNotFound, errorResponse{Error: "Restaurant not found"})
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get menu", "restaurant_id", id, "error", err)
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	h.respondJSON(w, http.StatusOK, items)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
