package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_food/internal/domain"
	"github.com/fjod/go_food/internal/idempotency"
	"github.com/fjod/go_food/internal/service"
	"github.com/go-chi/chi/v5"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
	timestampLayout      = "2006-01-02T15:04:05.000Z07:00"
)

type OrderService interface {
	CreateOrder(ctx context.Context, in service.CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	OrderHistory(ctx context.Context, username string) ([]*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderService
	idem    idempotency.Store // nil disables Idempotency-Key handling
	timeout time.Duration
	logger  *slog.Logger
}

func NewOrdersHandler(orders OrderService, idem idempotency.Store, timeout time.Duration, logger *slog.Logger) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		idem:    idem,
		timeout: timeout,
		logger:  logger,
	}
}

type OrderItemDTO struct {
	MenuItemID int64   `json:"menuItemId"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
}

type CreateOrderRequestDTO struct {
	RestaurantID int64          `json:"restaurantId"`
	Items        []OrderItemDTO `json:"items"`
	Username     string         `json:"username"`
}

type CreateOrderResponseDTO struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
}

type OrderResponseDTO struct {
	OrderID      int64          `json:"orderId"`
	RestaurantID int64          `json:"restaurantId"`
	Items        []OrderItemDTO `json:"items"`
	Status       string         `json:"status"`
	CreatedAt    string         `json:"createdAt"`
	UpdatedAt    string         `json:"updatedAt"`
}

// POST /order
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	key := r.Header.Get(idempotencyKeyHeader)
	if key != "" && h.idem != nil {
		rec, claimed, err := h.idem.Begin(ctx, key)
		switch {
		case errors.Is(err, idempotency.ErrInProgress):
			respondError(w, http.StatusConflict, "request_in_progress", "a request with this Idempotency-Key is in progress")
			return
		case err != nil:
			// idempotency is best effort; serve the request without it
			h.logger.WarnContext(ctx, "idempotency store unavailable", "error", err)
			key = ""
		case !claimed:
			w.Header().Set(replayedHeader, "true")
			respondRawJSON(w, rec.StatusCode, rec.Body)
			return
		}
	} else {
		key = ""
	}

	order, err := h.orders.CreateOrder(ctx, service.CreateOrderInput{
		RestaurantID: req.RestaurantID,
		Items:        toDomainItems(req.Items),
		Username:     req.Username,
	})
	if err != nil {
		if key != "" {
			h.release(ctx, key)
		}
		if !isClientError(err) {
			h.logger.ErrorContext(ctx, "error creating order", "error", err)
		}
		handleError(w, err, "Failed to create order")
		return
	}

	body, err := json.Marshal(CreateOrderResponseDTO{OrderID: order.OrderID, Status: string(order.Status)})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to create order")
		return
	}

	if key != "" {
		rec := idempotency.Record{StatusCode: http.StatusCreated, Body: body}
		if err := h.idem.Complete(ctx, key, rec); err != nil {
			h.logger.WarnContext(ctx, "failed to store idempotency record", "order_id", order.OrderID, "error", err)
		}
	}

	respondRawJSON(w, http.StatusCreated, append(body, '\n'))
}

// GET /order/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be an integer")
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		if !isClientError(err) {
			h.logger.ErrorContext(ctx, "error fetching order", "order_id", orderID, "error", err)
		}
		handleError(w, err, "Failed to fetch order")
		return
	}

	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

// GET /orders?username=
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	username := r.URL.Query().Get("username")
	orders, err := h.orders.OrderHistory(ctx, username)
	if err != nil {
		if !isClientError(err) {
			h.logger.ErrorContext(ctx, "error fetching order history", "username", username, "error", err)
		}
		handleError(w, err, "Failed to fetch order history")
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, toOrderResponse(o))
	}

	respondJSON(w, http.StatusOK, dtos)
}

func (h *OrdersHandler) release(ctx context.Context, key string) {
	// the request context may already be done; the claim must still go
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := h.idem.Release(ctx, key); err != nil {
		h.logger.WarnContext(ctx, "failed to release idempotency key", "error", err)
	}
}

func isClientError(err error) bool {
	return errors.Is(err, service.ErrInvalidOrderData) ||
		errors.Is(err, service.ErrMissingUsername) ||
		errors.Is(err, service.ErrOrderNotFound)
}

func toDomainItems(items []OrderItemDTO) []domain.OrderItem {
	if items == nil {
		return nil
	}
	out := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, domain.OrderItem{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      item.Price,
		})
	}
	return out
}

func toOrderResponse(o *domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      item.Price,
		})
	}

	return OrderResponseDTO{
		OrderID:      o.OrderID,
		RestaurantID: o.RestaurantID,
		Items:        items,
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:    o.UpdatedAt.UTC().Format(timestampLayout),
	}
}
