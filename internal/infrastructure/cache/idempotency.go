// Package cache keeps short-lived HTTP idempotency records so a retried
// mutation with the same Idempotency-Key replays the first response instead
// of creating a second load, invoice or settlement.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotReserved is returned when completing a key that was never reserved or
// has already expired
var ErrNotReserved = errors.New("cache: idempotency key not reserved")

// Response is the stored outcome of a completed request
type Response struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore tracks Idempotency-Key lifecycles: reserved while the first
// request runs, then completed with its response until the TTL lapses.
type IdempotencyStore interface {
	// Reserve claims key. It returns false if the key is already reserved or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Complete stores the response for a reserved key
	Complete(ctx context.Context, key string, resp Response, ttl time.Duration) error
	// Lookup returns the stored response. A nil response with found=true means
	// the first request is still running.
	Lookup(ctx context.Context, key string) (resp *Response, found bool, err error)
	// Release drops a reservation so the request can be retried
	Release(ctx context.Context, key string) error
	Close() error
}
