package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/fjod/go_food/internal/domain"
)

// MemoryRepository implements OrderRepository with in-memory storage.
// Orders are lost on restart; it backs local demos and tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[int64]*domain.Order // orderID -> order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders: make(map[int64]*domain.Order),
	}
}

func (s *MemoryRepository) NextOrderID(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.orders) == 0 {
		return domain.FirstOrderID, nil
	}

	var maxID int64
	for id := range s.orders {
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1, nil
}

func (s *MemoryRepository) Insert(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.OrderID]; exists {
		return ErrDuplicateOrderID
	}
	s.orders[order.OrderID] = cloneOrder(order)
	return nil
}

func (s *MemoryRepository) FindByID(_ context.Context, orderID int64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.orders[orderID]
	if !exists {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (s *MemoryRepository) Update(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.orders[order.OrderID]
	if !exists {
		return ErrOrderNotFound
	}
	if !stored.Status.Before(order.Status) {
		return ErrStaleStatus
	}

	stored.Status = order.Status
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

func (s *MemoryRepository) FindByUsername(_ context.Context, username string) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Order, 0)
	for _, order := range s.orders {
		if order.Username == username {
			result = append(result, cloneOrder(order))
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].OrderID > result[j].OrderID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryRepository) Close(_ context.Context) error {
	return nil
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	return &c
}
