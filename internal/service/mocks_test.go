package service

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_food/internal/domain"
	"github.com/fjod/go_food/internal/events"
	"github.com/fjod/go_food/internal/repository"
)

// MockRepository wraps a MemoryRepository and lets tests inject failures.
type MockRepository struct {
	*repository.MemoryRepository

	NextIDs       []int64 // returned in order by NextOrderID before falling back to the store
	NextIDErr     error
	InsertErrs    []error // consumed one per Insert call
	UpdateErr     error
	FindErr       error
	FindByUserErr error

	InsertCalls int
	UpdateCalls int
}

func NewMockRepository() *MockRepository {
	return &MockRepository{MemoryRepository: repository.NewMemoryRepository()}
}

func (m *MockRepository) NextOrderID(ctx context.Context) (int64, error) {
	if m.NextIDErr != nil {
		return 0, m.NextIDErr
	}
	if len(m.NextIDs) > 0 {
		id := m.NextIDs[0]
		m.NextIDs = m.NextIDs[1:]
		return id, nil
	}
	return m.MemoryRepository.NextOrderID(ctx)
}

func (m *MockRepository) Insert(ctx context.Context, order *domain.Order) error {
	m.InsertCalls++
	if len(m.InsertErrs) > 0 {
		err := m.InsertErrs[0]
		m.InsertErrs = m.InsertErrs[1:]
		if err != nil {
			return err
		}
	}
	return m.MemoryRepository.Insert(ctx, order)
}

func (m *MockRepository) Update(ctx context.Context, order *domain.Order) error {
	m.UpdateCalls++
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	return m.MemoryRepository.Update(ctx, order)
}

func (m *MockRepository) FindByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	return m.MemoryRepository.FindByID(ctx, orderID)
}

func (m *MockRepository) FindByUsername(ctx context.Context, username string) ([]*domain.Order, error) {
	if m.FindByUserErr != nil {
		return nil, m.FindByUserErr
	}
	return m.MemoryRepository.FindByUsername(ctx, username)
}

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	Events []events.OrderEvent
	Err    error
}

func (m *MockPublisher) Publish(_ context.Context, event events.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// fixedRandom always returns v.
func fixedRandom(v float64) func() float64 {
	return func() float64 { return v }
}

var errStoreDown = errors.New("store down")
