package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/fjod/go_food/internal/domain"
	"github.com/fjod/go_food/internal/events"
	"github.com/fjod/go_food/internal/repository"
)

// advanceThreshold: a status read advances the order when the draw exceeds it (30% of reads).
const advanceThreshold = 0.7

type CreateOrderInput struct {
	RestaurantID int64
	Items        []domain.OrderItem
	Username     string
}

type OrderService struct {
	repo      repository.OrderRepository
	publisher events.Publisher
	logger    *slog.Logger
	random    func() float64
	now       func() time.Time
}

type Option func(*OrderService)

// WithRandom replaces the uniform [0,1) source used for status advancement.
func WithRandom(random func() float64) Option {
	return func(s *OrderService) { s.random = random }
}

func WithClock(now func() time.Time) Option {
	return func(s *OrderService) { s.now = now }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *OrderService) { s.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *OrderService) { s.logger = l }
}

func NewOrderService(repo repository.OrderRepository, opts ...Option) *OrderService {
	s := &OrderService{
		repo:      repo,
		publisher: events.NopPublisher{},
		logger:    slog.Default(),
		random:    rand.Float64,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if in.RestaurantID == 0 || len(in.Items) == 0 {
		return nil, ErrInvalidOrderData
	}
	if in.Username == "" {
		return nil, ErrMissingUsername
	}

	now := s.now().UTC()
	order := &domain.Order{
		RestaurantID: in.RestaurantID,
		Username:     in.Username,
		Items:        append([]domain.OrderItem(nil), in.Items...),
		Status:       domain.OrderStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// One retry: a concurrent creation may have taken the id between allocation and insert.
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if order.OrderID, err = s.repo.NextOrderID(ctx); err != nil {
			return nil, fmt.Errorf("allocate order id: %w", err)
		}

		err = s.repo.Insert(ctx, order)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateOrderID) {
			return nil, fmt.Errorf("insert order: %w", err)
		}
		s.logger.WarnContext(ctx, "order id collision", "order_id", order.OrderID, "attempt", attempt+1)
	}
	if err != nil {
		return nil, ErrOrderIDConflict
	}

	s.logger.InfoContext(ctx, "order created",
		"order_id", order.OrderID, "username", order.Username, "restaurant_id", order.RestaurantID)
	s.publish(ctx, events.OrderCreated, order)
	return order, nil
}

// GetOrder returns the order after giving it a chance to progress.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order, _, err = s.ProgressOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ProgressOrder moves a non-delivered order one step forward with probability 0.3 and
// persists the change. It reports whether this call advanced the order. When a concurrent
// read advanced it first, the stored order is returned unchanged.
func (s *OrderService) ProgressOrder(ctx context.Context, order *domain.Order) (*domain.Order, bool, error) {
	next, ok := order.Status.Next()
	if !ok || s.random() <= advanceThreshold {
		return order, false, nil
	}

	advanced := *order
	advanced.Status = next
	advanced.UpdatedAt = s.now().UTC()

	err := s.repo.Update(ctx, &advanced)
	if errors.Is(err, repository.ErrStaleStatus) {
		current, findErr := s.findOrder(ctx, order.OrderID)
		if findErr != nil {
			return nil, false, findErr
		}
		return current, false, nil
	}
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, false, ErrOrderNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("update order status: %w", err)
	}

	s.logger.InfoContext(ctx, "order status advanced",
		"order_id", advanced.OrderID, "from", string(order.Status), "to", string(advanced.Status))
	s.publish(ctx, events.OrderStatusChanged, &advanced)
	return &advanced, true, nil
}

// OrderHistory lists the user's orders, newest first.
func (s *OrderService) OrderHistory(ctx context.Context, username string) ([]*domain.Order, error) {
	if username == "" {
		return nil, ErrMissingUsername
	}

	orders, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find orders by username: %w", err)
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return orders, nil
}

func (s *OrderService) findOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, eventType events.EventType, order *domain.Order) {
	if err := s.publisher.Publish(ctx, events.NewOrderEvent(eventType, order)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order event",
			"event_type", string(eventType), "order_id", order.OrderID, "error", err)
	}
}
