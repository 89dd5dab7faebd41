package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"flavor-vault/internal/storage"
)

// ErrInvalidRecipe is returned when a submitted recipe has no name.
var ErrInvalidRecipe = errors.New("invalid recipe")

// UserRepository stores user-submitted recipes under the user-recipes key.
type UserRepository struct {
	coll  *storage.Collection[[]Recipe]
	newID func() string
}

// NewUserRepository creates a UserRepository backed by kv.
func NewUserRepository(kv storage.KV) *UserRepository {
	return &UserRepository{
		coll: storage.NewCollection[[]Recipe](kv, storage.KeyUserRecipes),
		newID: func() string {
			return UserIDPrefix + uuid.NewString()
		},
	}
}

// OnChange registers a listener for writes to the user-recipes collection.
func (r *UserRepository) OnChange(fn func(key string)) {
	r.coll.OnChange(fn)
}

// Add assigns a fresh user id, fills synthesized fields and persists rec.
// The category is added as a tag when not already present.
func (r *UserRepository) Add(ctx context.Context, rec Recipe) (Recipe, error) {
	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		return Recipe{}, fmt.Errorf("%w: name is required", ErrInvalidRecipe)
	}

	rec.ID = r.newID()
	rec = Normalize(rec)
	if rec.Category != "" && !hasTag(rec.Tags, rec.Category) {
		rec.Tags = append([]string{rec.Category}, rec.Tags...)
	}

	if _, err := r.coll.Update(ctx, func(recipes []Recipe) ([]Recipe, error) {
		return append(recipes, rec), nil
	}); err != nil {
		return Recipe{}, fmt.Errorf("failed to save user recipe: %w", err)
	}
	return rec, nil
}

// List returns all user recipes in submission order.
func (r *UserRepository) List(ctx context.Context) []Recipe {
	recipes := r.coll.Load(ctx)
	if recipes == nil {
		return []Recipe{}
	}
	return recipes
}

// Get returns the recipe with id, or nil if there is none.
func (r *UserRepository) Get(ctx context.Context, id string) *Recipe {
	for _, rec := range r.coll.Load(ctx) {
		if rec.ID == id {
			return &rec
		}
	}
	return nil
}

// Find implements Lookup.
func (r *UserRepository) Find(ctx context.Context, id string) (Recipe, bool) {
	if rec := r.Get(ctx, id); rec != nil {
		return *rec, true
	}
	return Recipe{}, false
}

// Remove deletes the recipe with id. Removing an unknown id is a no-op.
func (r *UserRepository) Remove(ctx context.Context, id string) error {
	_, err := r.coll.Update(ctx, func(recipes []Recipe) ([]Recipe, error) {
		for i, rec := range recipes {
			if rec.ID == id {
				return append(recipes[:i:i], recipes[i+1:]...), nil
			}
		}
		return nil, storage.ErrUnchanged
	})
	if err != nil {
		return fmt.Errorf("failed to remove user recipe: %w", err)
	}
	return nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
