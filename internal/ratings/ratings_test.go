package ratings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"flavor-vault/internal/storage"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	store := NewStore(kv)
	store.now = func() time.Time { return time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC) }

	t.Run("InvalidRating", func(t *testing.T) {
		for _, v := range []int{0, 6, -1} {
			if _, err := store.Rate(ctx, "52772", v, ""); !errors.Is(err, ErrInvalidRating) {
				t.Errorf("Rate(%d): expected ErrInvalidRating, got %v", v, err)
			}
		}
	})

	t.Run("Rate", func(t *testing.T) {
		if _, err := store.Rate(ctx, "52772", 4, " Great "); err != nil {
			t.Fatalf("Failed to rate: %v", err)
		}
		if _, err := store.Rate(ctx, "52772", 5, "Even better"); err != nil {
			t.Fatalf("Failed to re-rate: %v", err)
		}

		got := store.Get(ctx, "52772")
		if got == nil || got.Rating != 5 || got.Review != "Even better" {
			t.Errorf("Expected latest rating, got %+v", got)
		}
		if len(store.All(ctx)) != 1 {
			t.Errorf("Expected 1 rating, got %d", len(store.All(ctx)))
		}
	})

	t.Run("PersistedShape", func(t *testing.T) {
		data, err := kv.Get(ctx, storage.KeyRecipeRatings)
		if err != nil {
			t.Fatal(err)
		}
		var raw map[string]map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("Expected a JSON object keyed by recipe id: %v", err)
		}
		if raw["52772"]["date"] != "2024-01-01T09:30:00Z" {
			t.Errorf("Expected ISO date, got %v", raw["52772"]["date"])
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := store.Remove(ctx, "missing"); err != nil {
			t.Errorf("Expected no-op, got %v", err)
		}
		if err := store.Remove(ctx, "52772"); err != nil {
			t.Fatalf("Failed to remove: %v", err)
		}
		if store.Get(ctx, "52772") != nil {
			t.Error("Expected rating to be removed")
		}
	})
}
