package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"flavor-vault/internal/config"
	"flavor-vault/internal/metrics"
	"flavor-vault/internal/planner"
	"flavor-vault/internal/recipe"
	"flavor-vault/internal/shopping"
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

func newTestApp(t *testing.T, mealDBURL string) *App {
	t.Helper()
	cfg := &config.Config{
		MealDBBaseURL:  mealDBURL,
		StorageBackend: config.BackendFile,
		StorageDir:     t.TempDir(),
		ShareSecret:    "test-secret",
		ShareBaseURL:   "http://vault.test",
	}
	return NewWithKV(cfg, storage.NewMemoryStore(), metrics.Nop{}, nil)
}

func TestGenerateShoppingList(t *testing.T) {
	ctx := context.Background()

	t.Run("Teriyaki Chicken end to end", func(t *testing.T) {
		a := newTestApp(t, "http://127.0.0.1:0")

		if err := a.Favorites.Add(ctx, teriyaki()); err != nil {
			t.Fatalf("Failed to add favorite: %v", err)
		}
		if _, err := a.Plan.Assign(ctx, "2024-01-01", planner.Dinner, planner.RefFrom(teriyaki()), ""); err != nil {
			t.Fatalf("Failed to assign: %v", err)
		}

		refs := a.Plan.IngredientsForPlan(ctx, a.LocalRecipes())
		if len(refs) != 2 {
			t.Fatalf("Expected 2 ingredient refs, got %d", len(refs))
		}
		for _, ref := range refs {
			if ref.Category != "Chicken" {
				t.Errorf("Expected category Chicken, got %q", ref.Category)
			}
		}

		result, err := a.GenerateShoppingList(ctx)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(result.Items) != 2 {
			t.Fatalf("Expected 2 items, got %+v", result.Items)
		}
		want := map[string]string{"Soy Sauce": "1/3 cup", "Chicken": "4 pieces"}
		for _, item := range result.Items {
			if item.Category != "Chicken" {
				t.Errorf("Expected category Chicken, got %q", item.Category)
			}
			if want[item.Name] != item.Amount {
				t.Errorf("Unexpected amount %q for %s", item.Amount, item.Name)
			}
		}
		if len(result.Unresolved) != 0 {
			t.Errorf("Expected no unresolved recipes, got %v", result.Unresolved)
		}

		again, err := a.GenerateShoppingList(ctx)
		if err != nil {
			t.Fatalf("Expected no error on regeneration, got %v", err)
		}
		if len(again.Items) != 2 {
			t.Errorf("Expected regeneration to add no duplicates, got %d items", len(again.Items))
		}
	})

	t.Run("Unresolved recipes are reported", func(t *testing.T) {
		a := newTestApp(t, "http://127.0.0.1:0")
		ref := planner.RecipeRef{ID: "gone", Name: "Vanished Stew"}
		if _, err := a.Plan.Assign(ctx, "2024-01-02", planner.Lunch, ref, ""); err != nil {
			t.Fatalf("Failed to assign: %v", err)
		}

		result, err := a.GenerateShoppingList(ctx)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(result.Items) != 0 {
			t.Errorf("Expected empty list, got %+v", result.Items)
		}
		if len(result.Unresolved) != 1 || result.Unresolved[0] != "gone" {
			t.Errorf("Expected [gone], got %v", result.Unresolved)
		}
	})

	t.Run("User recipes resolve", func(t *testing.T) {
		a := newTestApp(t, "http://127.0.0.1:0")
		r, err := a.UserRecipes.Add(ctx, recipe.Recipe{
			Name:        "Toast",
			Ingredients: []recipe.Ingredient{{Name: "Bread", Measure: "2 slices"}},
		})
		if err != nil {
			t.Fatalf("Failed to add user recipe: %v", err)
		}
		if _, err := a.Plan.Assign(ctx, "2024-01-03", planner.Breakfast, planner.RefFrom(r), ""); err != nil {
			t.Fatalf("Failed to assign: %v", err)
		}

		result, err := a.GenerateShoppingList(ctx)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(result.Items) != 1 || result.Items[0].Category != shopping.DefaultCategory {
			t.Errorf("Expected one uncategorized item, got %+v", result.Items)
		}
	})
}

func TestPlanRecipe(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("i") != "52772" {
			fmt.Fprint(w, `{"meals":null}`)
			return
		}
		fmt.Fprint(w, `{"meals":[{"idMeal":"52772","strMeal":"Teriyaki Chicken","strCategory":"Chicken",
			"strIngredient1":"Soy Sauce","strMeasure1":"1/3 cup"}]}`)
	}))
	defer server.Close()

	t.Run("Fetched recipe is planned without favoriting", func(t *testing.T) {
		a := newTestApp(t, server.URL)

		entry, err := a.PlanRecipe(ctx, "2024-01-01", planner.Dinner, "52772", "double it")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if entry.RecipeName != "Teriyaki Chicken" || entry.Notes != "double it" {
			t.Errorf("Unexpected entry %+v", entry)
		}
		if a.Favorites.Contains(ctx, "52772") {
			t.Error("Expected planning to leave favorites untouched")
		}

		result, err := a.GenerateShoppingList(ctx)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(result.Items) != 1 || result.Items[0].Name != "Soy Sauce" || len(result.Unresolved) != 0 {
			t.Errorf("Expected Soy Sauce resolved from TheMealDB, got %+v", result)
		}
	})

	t.Run("Unfavorited recipe still feeds the list", func(t *testing.T) {
		a := newTestApp(t, server.URL)

		if _, err := a.FavoriteByID(ctx, "52772"); err != nil {
			t.Fatalf("Failed to favorite: %v", err)
		}
		if _, err := a.PlanRecipe(ctx, "2024-01-01", planner.Dinner, "52772", ""); err != nil {
			t.Fatalf("Failed to plan: %v", err)
		}
		if err := a.Favorites.Remove(ctx, "52772"); err != nil {
			t.Fatalf("Failed to remove favorite: %v", err)
		}

		result, err := a.GenerateShoppingList(ctx)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(result.Items) != 1 || len(result.Unresolved) != 0 {
			t.Errorf("Expected 1 item and no unresolved ids, got %+v", result)
		}
	})

	t.Run("Unknown recipe", func(t *testing.T) {
		a := newTestApp(t, server.URL)
		_, err := a.PlanRecipe(ctx, "2024-01-01", planner.Dinner, "nope", "")
		if !errors.Is(err, ErrRecipeNotFound) {
			t.Errorf("Expected ErrRecipeNotFound, got %v", err)
		}
	})

	t.Run("Invalid slot", func(t *testing.T) {
		a := newTestApp(t, server.URL)
		if err := a.Favorites.Add(ctx, teriyaki()); err != nil {
			t.Fatalf("Failed to add favorite: %v", err)
		}
		_, err := a.PlanRecipe(ctx, "2024-01-01", planner.MealSlot("brunch"), "52772", "")
		if !errors.Is(err, planner.ErrInvalidSlot) {
			t.Errorf("Expected ErrInvalidSlot, got %v", err)
		}
	})
}

func TestFavoriteByID(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, "http://127.0.0.1:0")

	r, err := a.UserRecipes.Add(ctx, recipe.Recipe{Name: "Pancakes"})
	if err != nil {
		t.Fatalf("Failed to add user recipe: %v", err)
	}

	if _, err := a.FavoriteByID(ctx, r.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := a.FavoriteByID(ctx, r.ID); err != nil {
		t.Fatalf("Expected second add to be a no-op, got %v", err)
	}
	if got := a.Favorites.List(ctx); len(got) != 1 {
		t.Errorf("Expected 1 favorite, got %d", len(got))
	}
}

func TestRenderViews(t *testing.T) {
	ref := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	days := planner.Window(ref)
	week := make([]planner.DayPlan, len(days))
	for i, d := range days {
		week[i] = planner.DayPlan{Day: d, Meals: map[planner.MealSlot]planner.Entry{}}
	}
	week[0].Meals[planner.Dinner] = planner.Entry{RecipeName: "Teriyaki Chicken", Notes: "double"}

	out := RenderWeek(week)
	if !strings.Contains(out, "*Today* (2024-01-01)") || !strings.Contains(out, "• Dinner: Teriyaki Chicken _(double)_") {
		t.Errorf("Unexpected week view:\n%s", out)
	}
	if !strings.Contains(out, "_nothing planned_") {
		t.Error("Expected empty days to be marked")
	}

	groups := []shopping.Group{{Category: "Chicken", Items: []shopping.Item{
		{Name: "Soy Sauce", Amount: "1/3 cup"},
		{Name: "Chicken", Checked: true},
	}}}
	list := RenderShoppingList(groups, []string{"gone"})
	for _, want := range []string{"*Chicken*", "☐ Soy Sauce (1/3 cup)", "☑ Chicken\n", "Recipes not found: gone"} {
		if !strings.Contains(list, want) {
			t.Errorf("Expected shopping view to contain %q:\n%s", want, list)
		}
	}

	card := RenderRecipe(recipe.Normalize(teriyaki()))
	if !strings.Contains(card, "• 1/3 cup Soy Sauce") || !strings.Contains(card, "ID: `52772`") {
		t.Errorf("Unexpected recipe card:\n%s", card)
	}
}
