package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fjod/go_food/internal/auth"
	"github.com/fjod/go_food/internal/catalog"
	"github.com/fjod/go_food/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps domain errors onto HTTP status codes.
// fallback is the message used for unexpected failures.
func handleError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidOrderData):
		respondError(w, http.StatusBadRequest, "invalid_order_data", "Invalid order data")
	case errors.Is(err, service.ErrMissingUsername):
		respondError(w, http.StatusBadRequest, "missing_username", "Username is required")
	case errors.Is(err, service.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "Order not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	case errors.Is(err, auth.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
	case errors.Is(err, catalog.ErrUpstreamUnavailable):
		respondError(w, http.StatusInternalServerError, "upstream_unavailable", fallback)
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}
