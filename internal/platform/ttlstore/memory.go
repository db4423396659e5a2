package ttlstore

import (
	"context"
	"sync"
	"time"
)

const defaultSweepInterval = time.Minute

type item struct {
	count     int64
	expiresAt time.Time
}

// Memory keeps counters in a process-local map. Expired keys are swept
// lazily, at most once per sweep interval, while handling increments.
type Memory struct {
	mu            sync.Mutex
	items         map[string]item
	lastSweep     time.Time
	sweepInterval time.Duration
	now           func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		items:         make(map[string]item),
		sweepInterval: defaultSweepInterval,
		now:           time.Now,
	}
}

func (m *Memory) Increment(_ context.Context, key string, window time.Duration) (Hit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweepLocked(now)

	it, ok := m.items[key]
	if !ok || !it.expiresAt.After(now) {
		it = item{expiresAt: now.Add(window)}
	}
	it.count++
	m.items[key] = it

	return Hit{Count: it.count, ResetIn: it.expiresAt.Sub(now)}, nil
}

func (m *Memory) Mark(_ context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = item{count: 1, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Marked(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[key]
	if !ok {
		return false, nil
	}
	if !it.expiresAt.After(m.now()) {
		delete(m.items, key)
		return false, nil
	}
	return true, nil
}

// Len reports live and not yet swept keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) sweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) < m.sweepInterval {
		return
	}
	m.lastSweep = now
	for key, it := range m.items {
		if !it.expiresAt.After(now) {
			delete(m.items, key)
		}
	}
}
