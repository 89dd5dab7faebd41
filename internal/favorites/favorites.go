package favorites

import (
	"context"
	"fmt"

	"flavor-vault/internal/recipe"
	"flavor-vault/internal/storage"
)

// Store is the persisted set of favorite recipes, kept in insertion order.
type Store struct {
	coll *storage.Collection[[]recipe.Recipe]
}

// NewStore creates a favorites Store backed by kv.
func NewStore(kv storage.KV) *Store {
	return &Store{coll: storage.NewCollection[[]recipe.Recipe](kv, storage.KeyFavorites)}
}

// OnChange registers a listener for writes to the favorites collection.
func (s *Store) OnChange(fn func(key string)) {
	s.coll.OnChange(fn)
}

// List returns all favorites in insertion order.
func (s *Store) List(ctx context.Context) []recipe.Recipe {
	favorites := s.coll.Load(ctx)
	if favorites == nil {
		return []recipe.Recipe{}
	}
	return favorites
}

// Contains reports whether a recipe with id is a favorite.
func (s *Store) Contains(ctx context.Context, id string) bool {
	_, ok := s.Find(ctx, id)
	return ok
}

// Find implements recipe.Lookup.
func (s *Store) Find(ctx context.Context, id string) (recipe.Recipe, bool) {
	for _, r := range s.coll.Load(ctx) {
		if r.ID == id {
			return r, true
		}
	}
	return recipe.Recipe{}, false
}

// Add appends a snapshot of r. Adding a recipe that is already a favorite
// is a no-op.
func (s *Store) Add(ctx context.Context, r recipe.Recipe) error {
	_, err := s.coll.Update(ctx, func(favorites []recipe.Recipe) ([]recipe.Recipe, error) {
		for _, fav := range favorites {
			if fav.ID == r.ID {
				return nil, storage.ErrUnchanged
			}
		}
		return append(favorites, snapshot(r)), nil
	})
	if err != nil {
		return fmt.Errorf("failed to add favorite %s: %w", r.ID, err)
	}
	return nil
}

// Remove drops the favorite with id. Removing an unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	_, err := s.coll.Update(ctx, func(favorites []recipe.Recipe) ([]recipe.Recipe, error) {
		for i, fav := range favorites {
			if fav.ID == id {
				return append(favorites[:i:i], favorites[i+1:]...), nil
			}
		}
		return nil, storage.ErrUnchanged
	})
	if err != nil {
		return fmt.Errorf("failed to remove favorite %s: %w", id, err)
	}
	return nil
}

// Clear removes every favorite.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.coll.Reset(ctx); err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}
	return nil
}

// snapshot copies the slices of r so later changes by the caller do not
// leak into the stored favorite.
func snapshot(r recipe.Recipe) recipe.Recipe {
	r.Tags = append([]string(nil), r.Tags...)
	r.Ingredients = append([]recipe.Ingredient(nil), r.Ingredients...)
	return r
}
