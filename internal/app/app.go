package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"flavor-vault/internal/clipper"
	"flavor-vault/internal/config"
	"flavor-vault/internal/database"
	"flavor-vault/internal/favorites"
	"flavor-vault/internal/llm"
	"flavor-vault/internal/mealdb"
	"flavor-vault/internal/metrics"
	"flavor-vault/internal/planner"
	"flavor-vault/internal/ratings"
	"flavor-vault/internal/recipe"
	"flavor-vault/internal/share"
	"flavor-vault/internal/shopping"
	"flavor-vault/internal/storage"
)

// ErrRecipeNotFound is returned when no source knows a recipe id.
var ErrRecipeNotFound = errors.New("recipe not found")

// App holds the application's dependencies. Every store is constructed
// once here and handed to the presentation layers.
type App struct {
	Config      *config.Config
	KV          storage.KV
	Favorites   *favorites.Store
	Plan        *planner.Store
	Shopping    *shopping.List
	Ratings     *ratings.Store
	UserRecipes *recipe.UserRepository
	MealDB      *mealdb.Client
	Clipper     *clipper.Clipper
	Sharer      *share.Sharer
	Metrics     *metrics.Store
	StartedAt   time.Time

	closers []func() error
}

// New opens the configured storage backend and wires every component.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	var (
		kv       storage.KV
		mStore   *metrics.Store
		recorder metrics.Recorder = metrics.Nop{}
		closers  []func() error
	)

	switch cfg.StorageBackend {
	case config.BackendFile:
		fs, err := storage.NewFileStore(cfg.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		kv = fs
	case config.BackendSQLite, config.BackendPostgres:
		driver, dsn := database.DriverSQLite, cfg.DatabasePath
		if cfg.StorageBackend == config.BackendPostgres {
			driver, dsn = database.DriverPostgres, cfg.DatabaseURL
		}
		db, err := database.NewDB(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		closers = append(closers, db.Close)
		kv = database.NewKVStore(db.SQL)
		mStore = metrics.NewStore(db.SQL)
		recorder = mStore
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}

	var textGen llm.TextGenerator
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Printf("Warning: recipe import will not use AI extraction: %v", err)
		} else {
			textGen = gemini
			closers = append(closers, gemini.Close)
		}
	}

	a := NewWithKV(cfg, kv, recorder, textGen)
	a.Metrics = mStore
	a.closers = closers
	return a, nil
}

// NewWithKV wires the stores over an already opened backend. textGen may
// be nil.
func NewWithKV(cfg *config.Config, kv storage.KV, rec metrics.Recorder, textGen llm.TextGenerator) *App {
	userRecipes := recipe.NewUserRepository(kv)
	a := &App{
		Config:      cfg,
		KV:          kv,
		Favorites:   favorites.NewStore(kv),
		Plan:        planner.NewStore(kv),
		Shopping:    shopping.NewList(kv),
		Ratings:     ratings.NewStore(kv),
		UserRecipes: userRecipes,
		MealDB:      mealdb.NewClient(cfg, rec),
		Clipper:     clipper.NewClipper(userRecipes, textGen, rec),
		Sharer:      share.NewSharer(cfg.ShareSecret, cfg.ShareBaseURL),
		StartedAt:   time.Now(),
	}
	return a
}

// Close releases the database and LLM clients.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LocalRecipes resolves recipe ids from locally stored recipes only:
// favorites first, then user recipes.
func (a *App) LocalRecipes() recipe.Lookup {
	return recipe.Sources{a.Favorites, a.UserRecipes}
}

// AllRecipes extends LocalRecipes with a TheMealDB lookup.
func (a *App) AllRecipes() recipe.Lookup {
	return recipe.Sources{a.Favorites, a.UserRecipes, a.MealDB}
}

// FindRecipe resolves id through every known source.
func (a *App) FindRecipe(ctx context.Context, id string) (recipe.Recipe, error) {
	r, ok := a.AllRecipes().Find(ctx, id)
	if !ok {
		return recipe.Recipe{}, fmt.Errorf("%w: %s", ErrRecipeNotFound, id)
	}
	return r, nil
}

// FavoriteByID looks the recipe up and adds it to favorites.
func (a *App) FavoriteByID(ctx context.Context, id string) (recipe.Recipe, error) {
	r, err := a.FindRecipe(ctx, id)
	if err != nil {
		return recipe.Recipe{}, err
	}
	if err := a.Favorites.Add(ctx, r); err != nil {
		return recipe.Recipe{}, err
	}
	return r, nil
}

// PlanRecipe assigns the recipe with recipeID to (day, slot). Recipes that
// are not stored locally are fetched from TheMealDB.
func (a *App) PlanRecipe(ctx context.Context, day string, slot planner.MealSlot, recipeID, notes string) (planner.Entry, error) {
	if strings.TrimSpace(day) == "" || !slot.Valid() {
		return planner.Entry{}, &planner.InvalidSlotError{Day: day, Slot: string(slot)}
	}

	r, ok := a.LocalRecipes().Find(ctx, recipeID)
	if !ok {
		fetched := a.MealDB.GetByID(ctx, recipeID)
		if fetched == nil {
			return planner.Entry{}, fmt.Errorf("%w: %s", ErrRecipeNotFound, recipeID)
		}
		r = *fetched
	}
	return a.Plan.Assign(ctx, day, slot, planner.RefFrom(r), notes)
}

// ShoppingResult is the outcome of GenerateShoppingList.
type ShoppingResult struct {
	Items      []shopping.Item
	Unresolved []string
}

// GenerateShoppingList merges the ingredients of every planned recipe into
// the shopping list. Recipes are resolved from favorites, then user
// recipes, then TheMealDB. Entries that no source knows are skipped and
// reported in Unresolved.
func (a *App) GenerateShoppingList(ctx context.Context) (ShoppingResult, error) {
	lookup := recipe.Memo(a.AllRecipes())

	refs := a.Plan.IngredientsForPlan(ctx, lookup)
	ingredients := make([]shopping.Ingredient, 0, len(refs))
	for _, ref := range refs {
		ingredients = append(ingredients, shopping.Ingredient{
			Name:     ref.Name,
			Amount:   ref.Measure,
			Category: ref.Category,
		})
	}

	items, err := a.Shopping.Merge(ctx, ingredients)
	if err != nil {
		return ShoppingResult{}, err
	}

	unresolved := a.Plan.UnresolvedRecipeIDs(ctx, lookup)
	if len(unresolved) > 0 {
		log.Printf("Warning: %d planned recipe(s) could not be resolved: %v", len(unresolved), unresolved)
	}
	return ShoppingResult{Items: items, Unresolved: unresolved}, nil
}

// Health returns a snapshot of process health.
func (a *App) Health() metrics.SysHealth {
	return metrics.GetSysHealth(a.Config.DataPath(), a.StartedAt)
}
