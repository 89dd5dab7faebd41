package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flavor-vault/internal/recipe"
	"flavor-vault/internal/storage"
)

// DefaultCategory tags ingredients whose recipe has no category.
const DefaultCategory = "Other"

// Store is the persisted meal plan. Entries are kept as a flat list; the
// store enforces at most one entry per (day, slot).
type Store struct {
	coll *storage.Collection[[]Entry]
	now  func() time.Time
}

// NewStore creates a meal-plan Store backed by kv.
func NewStore(kv storage.KV) *Store {
	return &Store{
		coll: storage.NewCollection[[]Entry](kv, storage.KeyMealPlan),
		now:  time.Now,
	}
}

// OnChange registers a listener for writes to the meal plan.
func (s *Store) OnChange(fn func(key string)) {
	s.coll.OnChange(fn)
}

// Assign puts ref into (day, slot), replacing any entry already there.
func (s *Store) Assign(ctx context.Context, day string, slot MealSlot, ref RecipeRef, notes string) (Entry, error) {
	day = strings.TrimSpace(day)
	if day == "" || !slot.Valid() {
		return Entry{}, &InvalidSlotError{Day: day, Slot: string(slot)}
	}

	now := s.now()
	entry := Entry{
		ID:          fmt.Sprintf("%s-%s-%d", day, slot, now.UnixMilli()),
		RecipeID:    ref.ID,
		RecipeName:  ref.Name,
		RecipeImage: ref.Image,
		Day:         day,
		Slot:        slot,
		Notes:       notes,
		DateAdded:   now.UTC(),
	}

	_, err := s.coll.Update(ctx, func(entries []Entry) ([]Entry, error) {
		for i, e := range entries {
			if e.Day == day && e.Slot == slot {
				next := append([]Entry(nil), entries...)
				next[i] = entry
				return next, nil
			}
		}
		return append(entries, entry), nil
	})
	if err != nil {
		return Entry{}, fmt.Errorf("failed to assign %s %s: %w", day, slot, err)
	}
	return entry, nil
}

// Unassign empties (day, slot). Unassigning an empty slot is a no-op.
func (s *Store) Unassign(ctx context.Context, day string, slot MealSlot) error {
	day = strings.TrimSpace(day)
	return s.remove(ctx, fmt.Sprintf("%s %s", day, slot), func(e Entry) bool {
		return e.Day == day && e.Slot == slot
	})
}

// RemoveEntry deletes the entry with id. Unknown ids are a no-op.
func (s *Store) RemoveEntry(ctx context.Context, id string) error {
	return s.remove(ctx, id, func(e Entry) bool { return e.ID == id })
}

func (s *Store) remove(ctx context.Context, what string, match func(Entry) bool) error {
	_, err := s.coll.Update(ctx, func(entries []Entry) ([]Entry, error) {
		next := make([]Entry, 0, len(entries))
		for _, e := range entries {
			if !match(e) {
				next = append(next, e)
			}
		}
		if len(next) == len(entries) {
			return nil, storage.ErrUnchanged
		}
		return next, nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove plan entry %s: %w", what, err)
	}
	return nil
}

// EntriesForDay returns the occupied slots of day.
func (s *Store) EntriesForDay(ctx context.Context, day string) map[MealSlot]Entry {
	day = strings.TrimSpace(day)
	meals := make(map[MealSlot]Entry)
	for _, e := range s.coll.Load(ctx) {
		if e.Day == day {
			meals[e.Slot] = e
		}
	}
	return meals
}

// Entries returns every persisted entry, including days outside the
// current window.
func (s *Store) Entries(ctx context.Context) []Entry {
	entries := s.coll.Load(ctx)
	if entries == nil {
		return []Entry{}
	}
	return entries
}

// Week returns the planning window starting at reference with its entries.
func (s *Store) Week(ctx context.Context, reference time.Time) []DayPlan {
	byDay := make(map[string]map[MealSlot]Entry)
	for _, e := range s.coll.Load(ctx) {
		if byDay[e.Day] == nil {
			byDay[e.Day] = make(map[MealSlot]Entry)
		}
		byDay[e.Day][e.Slot] = e
	}

	window := Window(reference)
	week := make([]DayPlan, 0, len(window))
	for _, d := range window {
		meals := byDay[d.Key]
		if meals == nil {
			meals = map[MealSlot]Entry{}
		}
		week = append(week, DayPlan{Day: d, Meals: meals})
	}
	return week
}

// ClearAll removes every entry.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.coll.Reset(ctx); err != nil {
		return fmt.Errorf("failed to clear meal plan: %w", err)
	}
	return nil
}

// IngredientsForPlan resolves each entry's recipe through lookup and returns
// the flattened ingredients. Entries whose recipe cannot be resolved are
// skipped; see UnresolvedRecipeIDs.
func (s *Store) IngredientsForPlan(ctx context.Context, lookup recipe.Lookup) []IngredientRef {
	refs := []IngredientRef{}
	for _, e := range s.coll.Load(ctx) {
		r, ok := lookup.Find(ctx, e.RecipeID)
		if !ok {
			continue
		}
		category := strings.TrimSpace(r.Category)
		if category == "" {
			category = DefaultCategory
		}
		for _, ing := range r.Ingredients {
			refs = append(refs, IngredientRef{
				Name:       ing.Name,
				Measure:    ing.Measure,
				Category:   category,
				RecipeID:   r.ID,
				RecipeName: r.Name,
			})
		}
	}
	return refs
}

// UnresolvedRecipeIDs lists the distinct recipe ids referenced by the plan
// that lookup cannot resolve, in plan order.
func (s *Store) UnresolvedRecipeIDs(ctx context.Context, lookup recipe.Lookup) []string {
	seen := make(map[string]bool)
	missing := []string{}
	for _, e := range s.coll.Load(ctx) {
		if seen[e.RecipeID] {
			continue
		}
		seen[e.RecipeID] = true
		if _, ok := lookup.Find(ctx, e.RecipeID); !ok {
			missing = append(missing, e.RecipeID)
		}
	}
	return missing
}

// RefFrom builds the plan reference of r.
func RefFrom(r recipe.Recipe) RecipeRef {
	return RecipeRef{ID: r.ID, Name: r.Name, Image: r.Thumbnail}
}
