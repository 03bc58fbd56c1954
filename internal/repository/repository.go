package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_food/internal/domain"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicateOrderID = errors.New("order with this id already exists")
	// ErrStaleStatus is returned by Update when the stored status is already at or past the new one.
	ErrStaleStatus = errors.New("order status already advanced")
)

// OrderRepository defines the interface for order data operations.
// Order IDs are allocated from durable state, so allocation survives restarts.
type OrderRepository interface {
	// NextOrderID returns the current maximum order id plus one, or domain.FirstOrderID for an empty store.
	NextOrderID(ctx context.Context) (int64, error)
	// Insert stores a new order. It returns ErrDuplicateOrderID when the id is taken.
	Insert(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, orderID int64) (*domain.Order, error)
	// Update overwrites status and updatedAt, only moving the stored status forward.
	Update(ctx context.Context, order *domain.Order) error
	// FindByUsername returns the user's orders, newest first.
	FindByUsername(ctx context.Context, username string) ([]*domain.Order, error)
	Close(ctx context.Context) error
}
