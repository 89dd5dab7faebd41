package shopping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flavor-vault/internal/storage"
)

var (
	// ErrItemNotFound is returned for operations on an unknown item id.
	ErrItemNotFound = errors.New("shopping item not found")
	// ErrEmptyName is returned when a single item is added without a name.
	ErrEmptyName = errors.New("shopping item name is empty")
)

// List is the persisted shopping list.
type List struct {
	coll *storage.Collection[[]Item]
	now  func() time.Time
}

// NewList creates a shopping List backed by kv.
func NewList(kv storage.KV) *List {
	return &List{
		coll: storage.NewCollection[[]Item](kv, storage.KeyShoppingList),
		now:  time.Now,
	}
}

// OnChange registers a listener for writes to the shopping list.
func (l *List) OnChange(fn func(key string)) {
	l.coll.OnChange(fn)
}

// Items returns the list in order.
func (l *List) Items(ctx context.Context) []Item {
	items := l.coll.Load(ctx)
	if items == nil {
		return []Item{}
	}
	return items
}

// Grouped returns the list grouped by category.
func (l *List) Grouped(ctx context.Context) []Group {
	return GroupByCategory(l.coll.Load(ctx))
}

// Merge folds ingredients into the persisted list and returns the result.
func (l *List) Merge(ctx context.Context, ingredients []Ingredient) ([]Item, error) {
	items, err := l.coll.Update(ctx, func(items []Item) ([]Item, error) {
		next := Merge(items, ingredients, IDGenerator(l.now))
		if sameItems(items, next) {
			return nil, storage.ErrUnchanged
		}
		return next, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to merge shopping list: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Add merges a single ingredient and returns the resulting item, which is
// an existing item when the name is already on the list.
func (l *List) Add(ctx context.Context, ing Ingredient) (Item, error) {
	key := NameKey(ing.Name)
	if key == "" {
		return Item{}, ErrEmptyName
	}

	items, err := l.Merge(ctx, []Ingredient{ing})
	if err != nil {
		return Item{}, err
	}
	for _, item := range items {
		if item.Key() == key {
			return item, nil
		}
	}
	return Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, ing.Name)
}

// ToggleChecked flips the checked state of the item with id.
func (l *List) ToggleChecked(ctx context.Context, id string) (Item, error) {
	var toggled Item
	_, err := l.coll.Update(ctx, func(items []Item) ([]Item, error) {
		for i, item := range items {
			if item.ID == id {
				next := append([]Item(nil), items...)
				next[i].Checked = !item.Checked
				toggled = next[i]
				return next, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	})
	if err != nil {
		return Item{}, fmt.Errorf("failed to toggle shopping item: %w", err)
	}
	return toggled, nil
}

// Remove deletes the item with id. Removing an unknown id is a no-op.
func (l *List) Remove(ctx context.Context, id string) error {
	_, err := l.coll.Update(ctx, func(items []Item) ([]Item, error) {
		for i, item := range items {
			if item.ID == id {
				return append(items[:i:i], items[i+1:]...), nil
			}
		}
		return nil, storage.ErrUnchanged
	})
	if err != nil {
		return fmt.Errorf("failed to remove shopping item %s: %w", id, err)
	}
	return nil
}

// ClearAll empties the list.
func (l *List) ClearAll(ctx context.Context) error {
	if err := l.coll.Reset(ctx); err != nil {
		return fmt.Errorf("failed to clear shopping list: %w", err)
	}
	return nil
}

func sameItems(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
