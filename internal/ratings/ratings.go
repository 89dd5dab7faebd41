package ratings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"flavor-vault/internal/storage"
)

// ErrInvalidRating is returned for ratings outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// Rating is the user's own rating of a recipe.
type Rating struct {
	Rating int       `json:"rating"`
	Review string    `json:"review"`
	Date   time.Time `json:"date"`
}

// Store keeps ratings keyed by recipe id under the recipe-ratings key.
type Store struct {
	coll *storage.Collection[map[string]Rating]
	now  func() time.Time
}

// NewStore creates a ratings Store backed by kv.
func NewStore(kv storage.KV) *Store {
	return &Store{
		coll: storage.NewCollection[map[string]Rating](kv, storage.KeyRecipeRatings),
		now:  time.Now,
	}
}

// Rate records rating and review for recipeID, replacing any earlier one.
func (s *Store) Rate(ctx context.Context, recipeID string, rating int, review string) (Rating, error) {
	if rating < 1 || rating > 5 {
		return Rating{}, fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}

	r := Rating{Rating: rating, Review: strings.TrimSpace(review), Date: s.now().UTC()}
	_, err := s.coll.Update(ctx, func(all map[string]Rating) (map[string]Rating, error) {
		next := make(map[string]Rating, len(all)+1)
		for id, existing := range all {
			next[id] = existing
		}
		next[recipeID] = r
		return next, nil
	})
	if err != nil {
		return Rating{}, fmt.Errorf("failed to rate recipe %s: %w", recipeID, err)
	}
	return r, nil
}

// Get returns the rating of recipeID, or nil if it has none.
func (s *Store) Get(ctx context.Context, recipeID string) *Rating {
	if r, ok := s.coll.Load(ctx)[recipeID]; ok {
		return &r
	}
	return nil
}

// All returns every rating keyed by recipe id.
func (s *Store) All(ctx context.Context) map[string]Rating {
	all := s.coll.Load(ctx)
	if all == nil {
		return map[string]Rating{}
	}
	return all
}

// Remove deletes the rating of recipeID. Unknown ids are a no-op.
func (s *Store) Remove(ctx context.Context, recipeID string) error {
	_, err := s.coll.Update(ctx, func(all map[string]Rating) (map[string]Rating, error) {
		if _, ok := all[recipeID]; !ok {
			return nil, storage.ErrUnchanged
		}
		next := make(map[string]Rating, len(all))
		for id, existing := range all {
			if id != recipeID {
				next[id] = existing
			}
		}
		return next, nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove rating for %s: %w", recipeID, err)
	}
	return nil
}
