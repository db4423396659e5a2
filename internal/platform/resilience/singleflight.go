package resilience

import "golang.org/x/sync/singleflight"

// Group deduplicates concurrent calls for the same key and hands every
// waiter the same typed result.
type Group[T any] struct {
	group singleflight.Group
}

func (g *Group[T]) Do(key string, fn func() (T, error)) (T, error, bool) {
	value, err, shared := g.group.Do(key, func() (any, error) {
		return fn()
	})
	typed, _ := value.(T)
	return typed, err, shared
}

// Forget drops an in-flight key so the next caller starts a fresh call.
func (g *Group[T]) Forget(key string) {
	g.group.Forget(key)
}
