package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out for delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
)

// FirstOrderID is assigned to the first order of an empty store.
const FirstOrderID int64 = 1000

// statusSequence is the only order in which an order may move.
var statusSequence = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

// StatusSequence returns a copy of the fulfillment chain, first to last.
func StatusSequence() []OrderStatus {
	out := make([]OrderStatus, len(statusSequence))
	copy(out, statusSequence)
	return out
}

// Index returns the position of s in the fulfillment chain, or -1 for an unknown status.
func (s OrderStatus) Index() int {
	for i, st := range statusSequence {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) IsValid() bool {
	return s.Index() >= 0
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered
}

// Next returns the status that follows s. Terminal and unknown statuses return s and false.
func (s OrderStatus) Next() (OrderStatus, bool) {
	i := s.Index()
	if i < 0 || i == len(statusSequence)-1 {
		return s, false
	}
	return statusSequence[i+1], true
}

// Before reports whether s comes earlier than other in the chain.
func (s OrderStatus) Before(other OrderStatus) bool {
	i, j := s.Index(), other.Index()
	return i >= 0 && j >= 0 && i < j
}

// StatusesBefore lists every status that precedes s.
func StatusesBefore(s OrderStatus) []OrderStatus {
	i := s.Index()
	if i <= 0 {
		return nil
	}
	out := make([]OrderStatus, i)
	copy(out, statusSequence[:i])
	return out
}

type OrderItem struct {
	MenuItemID int64   `json:"menuItemId" bson:"menuItemId"`
	Name       string  `json:"name" bson:"name"`
	Quantity   int     `json:"quantity" bson:"quantity"`
	Price      float64 `json:"price" bson:"price"`
}

type Order struct {
	OrderID      int64       `bson:"orderId"`
	RestaurantID int64       `bson:"restaurantId"`
	Username     string      `bson:"username"`
	Items        []OrderItem `bson:"items"`
	Status       OrderStatus `bson:"status"`
	CreatedAt    time.Time   `bson:"createdAt"`
	UpdatedAt    time.Time   `bson:"updatedAt"`
}
