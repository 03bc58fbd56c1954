package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/go_food/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runOrderRepositoryContract checks the behaviour every OrderRepository must share.
// newRepo must return an empty store on every call.
func runOrderRepositoryContract(t *testing.T, newRepo func(t *testing.T) OrderRepository) {
	t.Run("NextOrderID_EmptyStore", func(t *testing.T) {
		repo := newRepo(t)

		id, err := repo.NextOrderID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.FirstOrderID, id)
	})

	t.Run("NextOrderID_FollowsMaximum", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Insert(ctx, newTestOrder(1000, "alice", time.Now())))
		id, err := repo.NextOrderID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1001), id)

		require.NoError(t, repo.Insert(ctx, newTestOrder(1005, "bob", time.Now())))
		id, err = repo.NextOrderID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1006), id)
	})

	t.Run("Insert_Duplicate", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Insert(ctx, newTestOrder(1000, "alice", time.Now())))
		err := repo.Insert(ctx, newTestOrder(1000, "bob", time.Now()))
		assert.ErrorIs(t, err, ErrDuplicateOrderID)
	})

	t.Run("FindByID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created := time.Now().UTC().Truncate(time.Millisecond)
		order := newTestOrder(1000, "alice", created)
		require.NoError(t, repo.Insert(ctx, order))

		got, err := repo.FindByID(ctx, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), got.OrderID)
		assert.Equal(t, int64(3), got.RestaurantID)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, domain.OrderStatusPending, got.Status)
		assert.Equal(t, order.Items, got.Items)
		assert.WithinDuration(t, created, got.CreatedAt, time.Millisecond)
		assert.WithinDuration(t, created, got.UpdatedAt, time.Millisecond)
	})

	t.Run("FindByID_NotFound", func(t *testing.T) {
		repo := newRepo(t)

		got, err := repo.FindByID(context.Background(), 4242)
		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.Nil(t, got)
	})

	t.Run("Update_MovesForward", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		order := newTestOrder(1000, "alice", time.Now().Add(-time.Minute))
		require.NoError(t, repo.Insert(ctx, order))

		updated := time.Now().UTC().Truncate(time.Millisecond)
		order.Status = domain.OrderStatusConfirmed
		order.UpdatedAt = updated
		require.NoError(t, repo.Update(ctx, order))

		got, err := repo.FindByID(ctx, 1000)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusConfirmed, got.Status)
		assert.WithinDuration(t, updated, got.UpdatedAt, time.Millisecond)
	})

	t.Run("Update_RejectsRegression", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		order := newTestOrder(1000, "alice", time.Now())
		require.NoError(t, repo.Insert(ctx, order))

		order.Status = domain.OrderStatusPreparing
		require.NoError(t, repo.Update(ctx, order))

		order.Status = domain.OrderStatusConfirmed
		assert.ErrorIs(t, repo.Update(ctx, order), ErrStaleStatus)

		order.Status = domain.OrderStatusPreparing
		assert.ErrorIs(t, repo.Update(ctx, order), ErrStaleStatus)

		order.Status = domain.OrderStatusPending
		assert.ErrorIs(t, repo.Update(ctx, order), ErrStaleStatus)

		got, err := repo.FindByID(ctx, 1000)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPreparing, got.Status)
	})

	t.Run("Update_NotFound", func(t *testing.T) {
		repo := newRepo(t)

		order := newTestOrder(999, "alice", time.Now())
		order.Status = domain.OrderStatusConfirmed
		assert.ErrorIs(t, repo.Update(context.Background(), order), ErrOrderNotFound)
	})

	t.Run("FindByUsername_NewestFirst", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		base := time.Now().UTC().Truncate(time.Millisecond)

		require.NoError(t, repo.Insert(ctx, newTestOrder(1000, "alice", base.Add(-2*time.Hour))))
		require.NoError(t, repo.Insert(ctx, newTestOrder(1001, "bob", base.Add(-time.Hour))))
		require.NoError(t, repo.Insert(ctx, newTestOrder(1002, "alice", base)))
		require.NoError(t, repo.Insert(ctx, newTestOrder(1003, "alice", base.Add(-time.Hour))))

		orders, err := repo.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, orders, 3)
		assert.Equal(t, int64(1002), orders[0].OrderID)
		assert.Equal(t, int64(1003), orders[1].OrderID)
		assert.Equal(t, int64(1000), orders[2].OrderID)
	})

	t.Run("FindByUsername_Empty", func(t *testing.T) {
		repo := newRepo(t)

		orders, err := repo.FindByUsername(context.Background(), "nobody")
		require.NoError(t, err)
		assert.NotNil(t, orders)
		assert.Empty(t, orders)
	})
}

func newTestOrder(id int64, username string, createdAt time.Time) *domain.Order {
	createdAt = createdAt.UTC().Truncate(time.Millisecond)
	return &domain.Order{
		OrderID:      id,
		RestaurantID: 3,
		Username:     username,
		Items: []domain.OrderItem{
			{MenuItemID: 7, Name: "Pizza", Quantity: 2, Price: 250},
		},
		Status:    domain.OrderStatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}
