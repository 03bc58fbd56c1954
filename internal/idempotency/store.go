package idempotency

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrInProgress means another request holding the same key has not finished yet.
	ErrInProgress = errors.New("request with this idempotency key is in progress")
)

// Record is the response replayed for a repeated key.
type Record struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
}

type Store interface {
	// Begin claims key. It returns claimed=true for the first caller; later callers get the
	// stored Record, or ErrInProgress while the first one is still running.
	Begin(ctx context.Context, key string) (rec *Record, claimed bool, err error)
	// Complete stores the final response for a claimed key.
	Complete(ctx context.Context, key string, rec Record) error
	// Release drops a claim so the key can be retried.
	Release(ctx context.Context, key string) error
}
