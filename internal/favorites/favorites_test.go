package favorites

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"flavor-vault/internal/recipe"
	"flavor-vault/internal/storage"
)

func teriyaki() recipe.Recipe {
	return recipe.Recipe{
		ID:       "52772",
		Name:     "Teriyaki Chicken",
		Category: "Chicken",
		Ingredients: []recipe.Ingredient{
			{Name: "Soy Sauce", Measure: "1/3 cup"},
			{Name: "Chicken", Measure: "4 pieces"},
		},
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		store := NewStore(storage.NewMemoryStore())
		if got := store.List(ctx); got == nil || len(got) != 0 {
			t.Errorf("Expected empty non-nil list, got %v", got)
		}
		if store.Contains(ctx, "52772") {
			t.Error("Expected empty store to contain nothing")
		}
	})

	t.Run("Add-Idempotent", func(t *testing.T) {
		store := NewStore(storage.NewMemoryStore())
		r := teriyaki()
		if err := store.Add(ctx, r); err != nil {
			t.Fatalf("Failed to add: %v", err)
		}
		once := store.List(ctx)

		if err := store.Add(ctx, r); err != nil {
			t.Fatalf("Failed to add twice: %v", err)
		}
		twice := store.List(ctx)

		if !reflect.DeepEqual(once, twice) {
			t.Errorf("Expected second add to be a no-op, got %v then %v", once, twice)
		}
		if len(twice) != 1 || twice[0].ID != "52772" {
			t.Errorf("Expected exactly one entry, got %v", twice)
		}
	})

	t.Run("Add-Snapshot", func(t *testing.T) {
		store := NewStore(storage.NewMemoryStore())
		r := teriyaki()
		_ = store.Add(ctx, r)
		r.Ingredients[0].Name = "Changed"

		got, _ := store.Find(ctx, "52772")
		if got.Ingredients[0].Name != "Soy Sauce" {
			t.Errorf("Expected stored snapshot to be unaffected, got %s", got.Ingredients[0].Name)
		}
	})

	t.Run("InsertionOrder", func(t *testing.T) {
		store := NewStore(storage.NewMemoryStore())
		for _, id := range []string{"3", "1", "2"} {
			_ = store.Add(ctx, recipe.Recipe{ID: id, Name: "Recipe " + id})
		}
		got := store.List(ctx)
		if got[0].ID != "3" || got[1].ID != "1" || got[2].ID != "2" {
			t.Errorf("Expected insertion order, got %v", got)
		}
	})

	t.Run("Remove-Total", func(t *testing.T) {
		store := NewStore(storage.NewMemoryStore())
		_ = store.Add(ctx, teriyaki())
		before := store.List(ctx)

		if err := store.Remove(ctx, "missing"); err != nil {
			t.Errorf("Expected no error removing unknown id, got %v", err)
		}
		if !reflect.DeepEqual(before, store.List(ctx)) {
			t.Error("Expected removing unknown id to leave the list unchanged")
		}

		if err := store.Remove(ctx, "52772"); err != nil {
			t.Fatalf("Failed to remove: %v", err)
		}
		if store.Contains(ctx, "52772") {
			t.Error("Expected favorite to be removed")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := NewStore(storage.NewMemoryStore())
		_ = store.Add(ctx, teriyaki())
		if err := store.Clear(ctx); err != nil {
			t.Fatalf("Failed to clear: %v", err)
		}
		if len(store.List(ctx)) != 0 {
			t.Error("Expected empty list after clear")
		}
	})

	t.Run("PersistenceFailure", func(t *testing.T) {
		kv := storage.NewMemoryStore()
		store := NewStore(kv)
		kv.Quota = 10

		err := store.Add(ctx, teriyaki())
		var perr *storage.PersistenceError
		if !errors.As(err, &perr) || perr.Key != storage.KeyFavorites {
			t.Fatalf("Expected PersistenceError for favorites, got %v", err)
		}
		if !errors.Is(err, storage.ErrQuotaExceeded) {
			t.Errorf("Expected ErrQuotaExceeded in chain, got %v", err)
		}
		if len(store.List(ctx)) != 0 {
			t.Error("Expected failed write to leave the collection unchanged")
		}
	})

	t.Run("OnChange", func(t *testing.T) {
		store := NewStore(storage.NewMemoryStore())
		var keys []string
		store.OnChange(func(key string) { keys = append(keys, key) })

		_ = store.Add(ctx, teriyaki())
		_ = store.Add(ctx, teriyaki())
		_ = store.Remove(ctx, "52772")

		if len(keys) != 2 || keys[0] != storage.KeyFavorites {
			t.Errorf("Expected two notifications for real changes, got %v", keys)
		}
	})
}
