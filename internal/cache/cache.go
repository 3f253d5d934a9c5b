// Package cache provides the optional read cache for daily drop
// lookups. It is strictly an optimization: every implementation may be
// swapped for Noop without affecting correctness.
package cache

import (
	"context"
	"time"
)

// Cache is a TTL-bounded byte store keyed by date:locale strings.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// Noop satisfies Cache while storing nothing.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) ([]byte, bool) {
	return nil, false
}

func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {}

func (Noop) Delete(ctx context.Context, key string) {}

var _ Cache = Noop{}
