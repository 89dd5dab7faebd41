package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
)

// Persisted collection keys.
const (
	KeyFavorites      = "favorites"
	KeyMealPlan       = "meal-plan"
	KeyShoppingList   = "shopping-list"
	KeyRecipeRatings  = "recipe-ratings"
	KeyUserRecipes    = "user-recipes"
	KeyRecentSearches = "recent-searches"
)

// ErrUnchanged may be returned by an Update function to skip the write and
// keep the current value.
var ErrUnchanged = errors.New("collection unchanged")

// Collection is a single JSON document of type T stored under one key.
// Every mutation reads the full document, computes a new one and writes it
// back while holding the collection lock.
type Collection[T any] struct {
	kv  KV
	key string

	mu        sync.Mutex
	listeners []func(key string)
}

// NewCollection binds a collection to a key in kv.
func NewCollection[T any](kv KV, key string) *Collection[T] {
	return &Collection[T]{kv: kv, key: key}
}

// Key returns the storage key of the collection.
func (c *Collection[T]) Key() string {
	return c.key
}

// OnChange registers fn to be called after every successful write.
func (c *Collection[T]) OnChange(fn func(key string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Load returns the persisted value. Missing keys, corrupted documents and
// backend failures all yield the zero value.
func (c *Collection[T]) Load(ctx context.Context) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, err := c.read(ctx)
	if err != nil {
		log.Printf("Warning: %v; treating %q as empty", err, c.key)
		var zero T
		return zero
	}
	return v
}

// Update runs fn on the current value and persists the result. If fn or the
// write fails the stored document is left as it was.
func (c *Collection[T]) Update(ctx context.Context, fn func(T) (T, error)) (T, error) {
	next, changed, err := c.update(ctx, fn)
	if err != nil {
		return next, err
	}
	if changed {
		c.notify()
	}
	return next, nil
}

func (c *Collection[T]) update(ctx context.Context, fn func(T) (T, error)) (T, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	current, err := c.read(ctx)
	if err != nil {
		return zero, false, err
	}

	next, err := fn(current)
	if errors.Is(err, ErrUnchanged) {
		return current, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	data, err := json.Marshal(next)
	if err != nil {
		return zero, false, &PersistenceError{Op: "encode", Key: c.key, Err: err}
	}
	if err := c.kv.Put(ctx, c.key, data); err != nil {
		return zero, false, &PersistenceError{Op: "write", Key: c.key, Err: err}
	}
	return next, true, nil
}

// Reset removes the key entirely.
func (c *Collection[T]) Reset(ctx context.Context) error {
	c.mu.Lock()
	err := c.kv.Delete(ctx, c.key)
	c.mu.Unlock()

	if err != nil {
		return &PersistenceError{Op: "delete", Key: c.key, Err: err}
	}
	c.notify()
	return nil
}

// read must be called with c.mu held. A corrupted document is logged and
// read as empty; a backend failure is returned.
func (c *Collection[T]) read(ctx context.Context) (T, error) {
	var v T
	data, err := c.kv.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return v, nil
		}
		return v, &PersistenceError{Op: "read", Key: c.key, Err: err}
	}

	if err := json.Unmarshal(data, &v); err != nil {
		log.Printf("Warning: corrupted JSON under %q, treating as empty: %v", c.key, err)
		var zero T
		return zero, nil
	}
	return v, nil
}

// notify runs the listeners outside the lock so they may read the collection.
func (c *Collection[T]) notify() {
	c.mu.Lock()
	listeners := append([]func(string){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(c.key)
	}
}
