package store

import "context"

// Typed gives type-safe access to a Cache for values of type T.
type Typed[T any] struct {
	cache Cache
}

// NewTyped wraps c for values of type T.
func NewTyped[T any](c Cache) *Typed[T] {
	return &Typed[T]{cache: c}
}

// Get returns the value stored under key. ok is false on a miss.
func (t *Typed[T]) Get(ctx context.Context, key string) (v T, ok bool, err error) {
	ok, err = t.cache.Get(ctx, key, &v)
	if err != nil || !ok {
		var zero T
		return zero, ok, err
	}
	return v, true, nil
}

// Put stores value for the given number of minutes.
func (t *Typed[T]) Put(ctx context.Context, key string, value T, minutes int) error {
	return t.cache.Put(ctx, key, value, minutes)
}

// Forever stores value with the long fixed TTL.
func (t *Typed[T]) Forever(ctx context.Context, key string, value T) error {
	return t.cache.Forever(ctx, key, value)
}

// Forget removes key.
func (t *Typed[T]) Forget(ctx context.Context, key string) error {
	return t.cache.Forget(ctx, key)
}
