// Package ttlstore defines keyed counters and markers that expire on their
// own, and a process-local implementation of them.
package ttlstore

import (
	"context"
	"time"
)

// Hit is the state of a fixed-window counter right after an increment.
type Hit struct {
	Count   int64
	ResetIn time.Duration
}

// Counter counts events per key in a fixed window that starts on the first event.
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (Hit, error)
}

// Marker records the presence of a key until its TTL elapses.
type Marker interface {
	Mark(ctx context.Context, key string, ttl time.Duration) error
	Marked(ctx context.Context, key string) (bool, error)
}

type Store interface {
	Counter
	Marker
}
