package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/fjod/go_food/internal/domain"
	"github.com/fjod/go_food/internal/idempotency"
	"github.com/fjod/go_food/internal/service"
	"github.com/go-chi/chi/v5"
)

var errBoom = errors.New("boom")

// --- Catalog mock ---

type CatalogClientMock struct {
	restaurants []domain.Restaurant
	menu        []domain.MenuItem
	err         error
	menuFor     int64
}

func (m *CatalogClientMock) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.restaurants, nil
}

func (m *CatalogClientMock) GetMenu(ctx context.Context, restaurantID int64) ([]domain.MenuItem, error) {
	m.menuFor = restaurantID
	if m.err != nil {
		return nil, m.err
	}
	return m.menu, nil
}

// --- Order service mock ---

type OrderServiceMock struct {
	mu sync.Mutex

	order  *domain.Order
	orders []*domain.Order
	err    error

	createCalls int
	lastInput   service.CreateOrderInput
	lastID      int64
	lastUser    string
}

func (m *OrderServiceMock) CreateOrder(ctx context.Context, in service.CreateOrderInput) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	m.lastInput = in
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *OrderServiceMock) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastID = orderID
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *OrderServiceMock) OrderHistory(ctx context.Context, username string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUser = username
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

// --- Idempotency mock ---

type IdempotencyStoreMock struct {
	records  map[string]*idempotency.Record
	pending  map[string]bool
	beginErr error

	completed []string
	released  []string
}

func newIdempotencyStoreMock() *IdempotencyStoreMock {
	return &IdempotencyStoreMock{
		records: make(map[string]*idempotency.Record),
		pending: make(map[string]bool),
	}
}

func (m *IdempotencyStoreMock) Begin(ctx context.Context, key string) (*idempotency.Record, bool, error) {
	if m.beginErr != nil {
		return nil, false, m.beginErr
	}
	if rec, ok := m.records[key]; ok {
		return rec, false, nil
	}
	if m.pending[key] {
		return nil, false, idempotency.ErrInProgress
	}
	m.pending[key] = true
	return nil, true, nil
}

func (m *IdempotencyStoreMock) Complete(ctx context.Context, key string, rec idempotency.Record) error {
	delete(m.pending, key)
	m.records[key] = &rec
	m.completed = append(m.completed, key)
	return nil
}

func (m *IdempotencyStoreMock) Release(ctx context.Context, key string) error {
	delete(m.pending, key)
	m.released = append(m.released, key)
	return nil
}

// --- helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
