package service

import "errors"

var (
	ErrInvalidOrderData = errors.New("invalid order data")
	ErrMissingUsername  = errors.New("username is required")
	ErrOrderNotFound    = errors.New("order not found")
	// ErrOrderIDConflict is returned when the retried insert also collides.
	ErrOrderIDConflict = errors.New("could not allocate order id")
)
