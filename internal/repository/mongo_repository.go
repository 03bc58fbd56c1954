package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_food/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ordersCollection = "orders"

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection(ordersCollection),
	}
}

func (m *MongoRepository) NextOrderID(ctx context.Context) (int64, error) {
	var last struct {
		OrderID int64 `bson:"orderId"`
	}

	opts := options.FindOne().
		SetSort(bson.D{{Key: "orderId", Value: -1}}).
		SetProjection(bson.M{"orderId": 1})

	err := m.collection.FindOne(ctx, bson.M{}, opts).Decode(&last)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.FirstOrderID, nil
		}
		return 0, fmt.Errorf("failed to find last order id: %w", err)
	}

	return last.OrderID + 1, nil
}

func (m *MongoRepository) Insert(ctx context.Context, order *domain.Order) error {
	_, err := m.collection.InsertOne(ctx, order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrderID
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (m *MongoRepository) FindByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	var order domain.Order

	err := m.collection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

func (m *MongoRepository) Update(ctx context.Context, order *domain.Order) error {
	// Only statuses earlier than the new one may be overwritten.
	earlier := domain.StatusesBefore(order.Status)
	if len(earlier) > 0 {
		filter := bson.M{
			"orderId": order.OrderID,
			"status":  bson.M{"$in": earlier},
		}
		update := bson.M{
			"$set": bson.M{
				"status":    order.Status,
				"updatedAt": order.UpdatedAt,
			},
		}

		result, err := m.collection.UpdateOne(ctx, filter, update)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if result.MatchedCount > 0 {
			return nil
		}
	}

	count, err := m.collection.CountDocuments(ctx, bson.M{"orderId": order.OrderID})
	if err != nil {
		return fmt.Errorf("failed to check order existence: %w", err)
	}
	if count == 0 {
		return ErrOrderNotFound
	}
	return ErrStaleStatus
}

func (m *MongoRepository) FindByUsername(ctx context.Context, username string) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "orderId", Value: -1}})

	cursor, err := m.collection.Find(ctx, bson.M{"username": username}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	return orders, nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "username", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.collection.Database().Client().Disconnect(ctx)
}
