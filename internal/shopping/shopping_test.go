package shopping

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"flavor-vault/internal/storage"
)

func fixedClock() func() time.Time {
	ts := time.Unix(0, 1700000000000000000)
	return func() time.Time { return ts }
}

func counterIDs() func(Ingredient) string {
	n := 0
	return func(Ingredient) string {
		n++
		return "id-" + string(rune('a'+n-1))
	}
}

func TestMerge(t *testing.T) {
	t.Run("CasingAndAmount", func(t *testing.T) {
		list := Merge(nil, []Ingredient{{Name: "Tomato"}}, counterIDs())
		list = Merge(list, []Ingredient{{Name: "tomato", Amount: "2"}}, counterIDs())

		if len(list) != 1 {
			t.Fatalf("Expected 1 item, got %d: %+v", len(list), list)
		}
		if list[0].Name != "Tomato" || list[0].Amount != "2" {
			t.Errorf("Expected first-seen casing with adopted amount, got %+v", list[0])
		}
	})

	t.Run("ConcatenatesAmounts", func(t *testing.T) {
		list := []Item{{ID: "x", Name: "Soy Sauce", Amount: "1/3 cup", Category: "Chicken", Checked: true}}
		got := Merge(list, []Ingredient{{Name: " SOY SAUCE ", Amount: "2 tbsp", Category: "Beef"}}, counterIDs())

		want := Item{ID: "x", Name: "Soy Sauce", Amount: "1/3 cup, 2 tbsp", Category: "Chicken", Checked: true}
		if len(got) != 1 || got[0] != want {
			t.Errorf("Expected %+v, got %+v", want, got)
		}
		if list[0].Amount != "1/3 cup" {
			t.Error("Expected input list to be left untouched")
		}
	})

	t.Run("KeepsAmountWhenIncomingEmpty", func(t *testing.T) {
		list := []Item{{ID: "x", Name: "Salt", Amount: "pinch"}}
		got := Merge(list, []Ingredient{{Name: "salt"}}, counterIDs())
		if got[0].Amount != "pinch" {
			t.Errorf("Expected amount to stay 'pinch', got %q", got[0].Amount)
		}
	})

	t.Run("DuplicatesWithinBatch", func(t *testing.T) {
		got := Merge(nil, []Ingredient{
			{Name: "Onion", Amount: "1", Category: "Beef"},
			{Name: "onion", Amount: "2", Category: "Chicken"},
		}, counterIDs())
		if len(got) != 1 || got[0].Amount != "1, 2" || got[0].Category != "Beef" {
			t.Errorf("Expected one merged onion, got %+v", got)
		}
	})

	t.Run("NewItemDefaults", func(t *testing.T) {
		got := Merge(nil, []Ingredient{{Name: "  Rice ", Amount: " 1 cup "}}, counterIDs())
		want := Item{ID: "id-a", Name: "Rice", Amount: "1 cup", Category: DefaultCategory}
		if len(got) != 1 || got[0] != want {
			t.Errorf("Expected %+v, got %+v", want, got)
		}
	})

	t.Run("SkipsBlankNames", func(t *testing.T) {
		list := []Item{{ID: "x", Name: "Salt"}}
		got := Merge(list, []Ingredient{{Name: "   ", Amount: "1"}, {Name: ""}}, counterIDs())
		if !reflect.DeepEqual(got, list) {
			t.Errorf("Expected list unchanged, got %+v", got)
		}
	})

	t.Run("UniqueIDs", func(t *testing.T) {
		// A frozen clock makes every generated id collide.
		newID := IDGenerator(fixedClock())
		got := Merge(nil, []Ingredient{
			{Name: "Olive Oil", Category: "Pasta"},
			{Name: "Olive-Oil", Category: "Pasta"},
			{Name: " olive oil ", Category: "Pasta"},
		}, newID)

		if len(got) != 2 {
			t.Fatalf("Expected 2 items, got %+v", got)
		}
		if got[0].ID != "pasta-olive-oil-1700000000000000000" {
			t.Errorf("Unexpected id %s", got[0].ID)
		}
		if got[1].ID != "pasta-olive-oil-1700000000000000000-2" {
			t.Errorf("Expected disambiguated id, got %s", got[1].ID)
		}
	})
}

func TestIDGenerator(t *testing.T) {
	newID := IDGenerator(fixedClock())
	if got := newID(Ingredient{Name: "Crème Fraîche", Category: ""}); got != "other-creme-fraiche-1700000000000000000" {
		t.Errorf("Unexpected id %s", got)
	}
	if got := newID(Ingredient{Name: "!!!", Category: "Sea Food"}); got != "sea-food-item-1700000000000000000" {
		t.Errorf("Unexpected id %s", got)
	}
}

func TestGroupByCategory(t *testing.T) {
	list := []Item{
		{ID: "1", Name: "Soy Sauce", Category: "Chicken"},
		{ID: "2", Name: "Flour", Category: "Dessert"},
		{ID: "3", Name: "Chicken", Category: "Chicken"},
		{ID: "4", Name: "Salt", Category: ""},
		{ID: "5", Name: "Sugar", Category: "Dessert"},
	}

	groups := GroupByCategory(list)

	var order []string
	var ids []string
	for _, g := range groups {
		order = append(order, g.Category)
		for _, item := range g.Items {
			ids = append(ids, item.ID)
		}
	}

	if !reflect.DeepEqual(order, []string{"Chicken", "Dessert", DefaultCategory}) {
		t.Errorf("Unexpected category order %v", order)
	}
	if !reflect.DeepEqual(ids, []string{"1", "3", "2", "5", "4"}) {
		t.Errorf("Unexpected item order %v", ids)
	}

	sort.Strings(ids)
	if !reflect.DeepEqual(ids, []string{"1", "2", "3", "4", "5"}) {
		t.Errorf("Expected the same multiset of ids, got %v", ids)
	}

	if got := GroupByCategory(nil); got == nil || len(got) != 0 {
		t.Errorf("Expected empty groups, got %v", got)
	}
}

func newTestList() *List {
	l := NewList(storage.NewMemoryStore())
	tick := time.Unix(0, 0)
	l.now = func() time.Time {
		tick = tick.Add(time.Nanosecond)
		return tick
	}
	return l
}

func TestList(t *testing.T) {
	ctx := context.Background()
	ingredients := []Ingredient{
		{Name: "Soy Sauce", Amount: "1/3 cup", Category: "Chicken"},
		{Name: "Chicken", Amount: "4 pieces", Category: "Chicken"},
	}

	t.Run("RepeatedGeneration", func(t *testing.T) {
		l := newTestList()
		first, err := l.Merge(ctx, ingredients)
		if err != nil {
			t.Fatalf("Failed to merge: %v", err)
		}
		second, err := l.Merge(ctx, ingredients)
		if err != nil {
			t.Fatalf("Failed to merge again: %v", err)
		}
		if len(first) != 2 || len(second) != 2 {
			t.Errorf("Expected 2 items both times, got %d and %d", len(first), len(second))
		}
		if second[0].ID != first[0].ID {
			t.Error("Expected ids to survive regeneration")
		}
	})

	t.Run("Add", func(t *testing.T) {
		l := newTestList()
		_, _ = l.Merge(ctx, ingredients)

		item, err := l.Add(ctx, Ingredient{Name: "soy sauce", Amount: "1 tbsp"})
		if err != nil {
			t.Fatalf("Failed to add: %v", err)
		}
		if item.Name != "Soy Sauce" || item.Amount != "1/3 cup, 1 tbsp" {
			t.Errorf("Expected merged existing item, got %+v", item)
		}

		if _, err := l.Add(ctx, Ingredient{Name: "  "}); !errors.Is(err, ErrEmptyName) {
			t.Errorf("Expected ErrEmptyName, got %v", err)
		}
		if len(l.Items(ctx)) != 2 {
			t.Errorf("Expected 2 items, got %d", len(l.Items(ctx)))
		}
	})

	t.Run("ToggleChecked", func(t *testing.T) {
		l := newTestList()
		items, _ := l.Merge(ctx, ingredients)

		item, err := l.ToggleChecked(ctx, items[1].ID)
		if err != nil {
			t.Fatalf("Failed to toggle: %v", err)
		}
		if !item.Checked || !l.Items(ctx)[1].Checked {
			t.Error("Expected item to be checked")
		}

		// Checked state survives a merge into the same item.
		_, _ = l.Merge(ctx, []Ingredient{{Name: "CHICKEN", Amount: "1"}})
		if !l.Items(ctx)[1].Checked {
			t.Error("Expected checked state to be kept")
		}

		if _, err := l.ToggleChecked(ctx, "missing"); !errors.Is(err, ErrItemNotFound) {
			t.Errorf("Expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("RemoveAndClear", func(t *testing.T) {
		l := newTestList()
		items, _ := l.Merge(ctx, ingredients)

		if err := l.Remove(ctx, "missing"); err != nil {
			t.Errorf("Expected no error removing unknown id, got %v", err)
		}
		if err := l.Remove(ctx, items[0].ID); err != nil {
			t.Fatalf("Failed to remove: %v", err)
		}
		if got := l.Items(ctx); len(got) != 1 || got[0].Name != "Chicken" {
			t.Errorf("Unexpected items %+v", got)
		}
		if err := l.ClearAll(ctx); err != nil {
			t.Fatalf("Failed to clear: %v", err)
		}
		if len(l.Items(ctx)) != 0 {
			t.Error("Expected empty list")
		}
	})

	t.Run("SkipBlankWritesNothing", func(t *testing.T) {
		l := newTestList()
		writes := 0
		l.OnChange(func(string) { writes++ })

		got, err := l.Merge(ctx, []Ingredient{{Name: "   "}})
		if err != nil || len(got) != 0 {
			t.Errorf("Expected empty list and no error, got %v %v", got, err)
		}
		if writes != 0 {
			t.Errorf("Expected no write, got %d", writes)
		}
	})

	t.Run("PersistenceFailure", func(t *testing.T) {
		kv := storage.NewMemoryStore()
		l := NewList(kv)
		kv.Quota = 5

		_, err := l.Merge(ctx, ingredients)
		var perr *storage.PersistenceError
		if !errors.As(err, &perr) || perr.Key != storage.KeyShoppingList {
			t.Errorf("Expected PersistenceError, got %v", err)
		}
		if len(l.Items(ctx)) != 0 {
			t.Error("Expected failed write to leave the list empty")
		}
	})
}
