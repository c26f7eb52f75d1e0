package idempotency

import (
	"context"
	"time"

	redisadapter "innkeeper/internal/adapters/redis"
)

type Response = redisadapter.IdempResponse

// Idempotency records the first response produced under an
// Idempotency-Key so retried POSTs replay it instead of re-executing.
type Idempotency struct {
	store *redisadapter.Idempotency
	ttl   time.Duration
}

func New(store *redisadapter.Idempotency, ttl time.Duration) *Idempotency {
	return &Idempotency{store: store, ttl: ttl}
}

func (i *Idempotency) Get(ctx context.Context, key string) (*Response, error) {
	if key == "" {
		return nil, nil
	}
	return i.store.Get(ctx, key)
}

// Set stores the response best-effort; a failed write only costs the
// caller a duplicate execution on retry.
func (i *Idempotency) Set(ctx context.Context, key string, resp Response) {
	if key == "" {
		return
	}
	_ = i.store.Set(ctx, key, resp, i.ttl)
}
