package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"flavor-vault/internal/app"
	"flavor-vault/internal/clipper"
	"flavor-vault/internal/planner"
	"flavor-vault/internal/ratings"
	"flavor-vault/internal/recipe"
	"flavor-vault/internal/share"
	"flavor-vault/internal/shopping"
	"flavor-vault/internal/storage"
)

const (
	minSuggestChars = 2
	maxSuggestions  = 5
)

// Handler handles HTTP requests.
type Handler struct {
	app    *app.App
	recent *RecentSearches
}

// NewHandler creates a new Handler.
func NewHandler(a *app.App) *Handler {
	return &Handler{app: a, recent: NewRecentSearches(a.KV)}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(a *app.App) *gin.Engine {
	h := NewHandler(a)

	r := gin.Default()
	corsConfig := cors.Config{
		AllowOrigins:     a.Config.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))

	h.Register(r)
	return r
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/metrics/usage", h.Usage)

	r.GET("/random", h.Random)
	r.GET("/search", h.Search)
	r.GET("/search/recent", h.RecentSearches)
	r.GET("/search/suggest", h.Suggest)
	r.DELETE("/search/recent", h.ClearRecentSearches)
	r.GET("/categories", h.Categories)
	r.GET("/categories/:name/recipes", h.ByCategory)
	r.GET("/areas", h.Areas)
	r.GET("/areas/:name/recipes", h.ByArea)
	r.GET("/recipes/:id", h.GetRecipe)
	r.GET("/recipes/:id/share", h.ShareRecipe)
	r.GET("/recipes/:id/restaurants", h.FindRestaurants)
	r.GET("/share/:token", h.ResolveShare)

	r.GET("/user-recipes", h.ListUserRecipes)
	r.POST("/user-recipes", h.AddUserRecipe)
	r.POST("/user-recipes/import", h.ImportRecipe)
	r.DELETE("/user-recipes/:id", h.RemoveUserRecipe)

	r.GET("/favorites", h.ListFavorites)
	r.POST("/favorites", h.AddFavorite)
	r.DELETE("/favorites/:id", h.RemoveFavorite)
	r.DELETE("/favorites", h.ClearFavorites)

	r.GET("/plan", h.Week)
	r.GET("/plan/days/:day", h.Day)
	r.PUT("/plan/days/:day/:slot", h.Assign)
	r.DELETE("/plan/days/:day/:slot", h.Unassign)
	r.DELETE("/plan/entries/:id", h.RemoveEntry)
	r.DELETE("/plan", h.ClearPlan)

	r.GET("/shopping", h.ShoppingList)
	r.POST("/shopping/generate", h.GenerateShoppingList)
	r.POST("/shopping/items", h.AddShoppingItem)
	r.PATCH("/shopping/items/:id/toggle", h.ToggleShoppingItem)
	r.DELETE("/shopping/items/:id", h.RemoveShoppingItem)
	r.DELETE("/shopping", h.ClearShoppingList)

	r.GET("/ratings", h.ListRatings)
	r.GET("/ratings/:id", h.GetRating)
	r.PUT("/ratings/:id", h.Rate)
	r.DELETE("/ratings/:id", h.RemoveRating)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, planner.ErrInvalidSlot),
		errors.Is(err, ratings.ErrInvalidRating),
		errors.Is(err, recipe.ErrInvalidRecipe),
		errors.Is(err, shopping.ErrEmptyName),
		errors.Is(err, share.ErrMissingLocation):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrRecipeNotFound),
		errors.Is(err, shopping.ErrItemNotFound),
		errors.Is(err, share.ErrInvalidToken):
		return http.StatusNotFound
	case errors.Is(err, clipper.ErrNoRecipe):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("Error handling %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return fallback
}

// --- System ---

// Health reports process health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "system": h.app.Health()})
}

// Usage returns daily fetch metrics.
func (h *Handler) Usage(c *gin.Context) {
	if h.app.Metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics require a database backend"})
		return
	}
	usage, err := h.app.Metrics.GetDailyUsage(c.Request.Context(), queryInt(c, "days", 7))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

// --- Recipes ---

// Random returns random recipes from TheMealDB.
func (h *Handler) Random(c *gin.Context) {
	count := queryInt(c, "count", 8)
	if count < 1 || count > 24 {
		badRequest(c, "count must be between 1 and 24")
		return
	}
	c.JSON(http.StatusOK, h.app.MealDB.FetchRandom(c.Request.Context(), count))
}

// Search queries TheMealDB by name and filters the result locally.
func (h *Handler) Search(c *gin.Context) {
	ctx := c.Request.Context()
	query := strings.TrimSpace(c.Query("q"))

	minRating, _ := strconv.ParseFloat(c.Query("minRating"), 64)
	f := recipe.Filter{
		Category:       c.Query("category"),
		Area:           c.Query("area"),
		MaxCookingTime: queryInt(c, "maxTime", 0),
		MinRating:      minRating,
		Sort:           recipe.ParseSortKey(c.Query("sort")),
	}

	var results []recipe.Recipe
	switch {
	case query != "":
		results = h.app.MealDB.SearchByName(ctx, query)
		if err := h.recent.Add(ctx, query); err != nil {
			log.Printf("Warning: %v", err)
		}
	case f.Category != "":
		results = h.app.MealDB.ListByCategory(ctx, f.Category)
	case f.Area != "":
		results = h.app.MealDB.ListByArea(ctx, f.Area)
	default:
		badRequest(c, "q, category or area is required")
		return
	}

	c.JSON(http.StatusOK, f.Apply(results))
}

// Suggestion is a compact search result for type-ahead lists.
type Suggestion struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Thumbnail string `json:"thumbnail"`
}

// Suggest returns the first few name matches for a partial query. Queries
// shorter than minSuggestChars yield an empty list and are not recorded as
// recent searches.
func (h *Handler) Suggest(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	suggestions := []Suggestion{}
	if utf8.RuneCountInString(query) < minSuggestChars {
		c.JSON(http.StatusOK, suggestions)
		return
	}

	for _, r := range h.app.MealDB.SearchByName(c.Request.Context(), query) {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, Suggestion{ID: r.ID, Name: r.Name, Category: r.Category, Thumbnail: r.Thumbnail})
	}
	c.JSON(http.StatusOK, suggestions)
}

// RecentSearches lists the latest search queries.
func (h *Handler) RecentSearches(c *gin.Context) {
	c.JSON(http.StatusOK, h.recent.List(c.Request.Context(), shownRecentSearches))
}

// ClearRecentSearches forgets the search history.
func (h *Handler) ClearRecentSearches(c *gin.Context) {
	if err := h.recent.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Categories lists TheMealDB categories.
func (h *Handler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.MealDB.ListCategories(c.Request.Context()))
}

// ByCategory lists the recipes of a category.
func (h *Handler) ByCategory(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.MealDB.ListByCategory(c.Request.Context(), c.Param("name")))
}

// Areas lists TheMealDB cuisines.
func (h *Handler) Areas(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.MealDB.ListAreas(c.Request.Context()))
}

// ByArea lists the recipes of a cuisine.
func (h *Handler) ByArea(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.MealDB.ListByArea(c.Request.Context(), c.Param("name")))
}

// GetRecipe returns a recipe from any source.
func (h *Handler) GetRecipe(c *gin.Context) {
	r, err := h.app.FindRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// ShareRecipe returns a signed share link for a recipe.
func (h *Handler) ShareRecipe(c *gin.Context) {
	r, err := h.app.FindRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	link, err := h.app.Sharer.Link(r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link})
}

// FindRestaurants returns a map search for restaurants serving a recipe
// near the "near" query parameter.
func (h *Handler) FindRestaurants(c *gin.Context) {
	r, err := h.app.FindRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	link, err := share.MapsSearchURL(r.Name, c.Query("near"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link})
}

// ResolveShare verifies a share token and returns the shared recipe.
func (h *Handler) ResolveShare(c *gin.Context) {
	claims, err := h.app.Sharer.Resolve(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	r, err := h.app.FindRecipe(c.Request.Context(), claims.RecipeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// --- User recipes ---

// ListUserRecipes returns recipes created by the user.
func (h *Handler) ListUserRecipes(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.UserRecipes.List(c.Request.Context()))
}

// AddUserRecipe stores a recipe submitted by the user.
func (h *Handler) AddUserRecipe(c *gin.Context) {
	var r recipe.Recipe
	if err := c.ShouldBindJSON(&r); err != nil {
		badRequest(c, err.Error())
		return
	}
	saved, err := h.app.UserRecipes.Add(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

type importRequest struct {
	URL string `json:"url" binding:"required"`
}

// ImportRecipe clips a recipe from a web page.
func (h *Handler) ImportRecipe(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	saved, err := h.app.Clipper.ClipURL(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// RemoveUserRecipe deletes a user recipe.
func (h *Handler) RemoveUserRecipe(c *gin.Context) {
	if err := h.app.UserRecipes.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Favorites ---

// ListFavorites returns every favorite.
func (h *Handler) ListFavorites(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Favorites.List(c.Request.Context()))
}

type favoriteRequest struct {
	ID     string         `json:"id"`
	Recipe *recipe.Recipe `json:"recipe"`
}

// AddFavorite adds a recipe by id or by value.
func (h *Handler) AddFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()

	switch {
	case req.Recipe != nil && req.Recipe.ID != "":
		r := recipe.Normalize(*req.Recipe)
		if err := h.app.Favorites.Add(ctx, r); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, r)
	case req.ID != "":
		r, err := h.app.FavoriteByID(ctx, req.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, r)
	default:
		badRequest(c, "id or recipe is required")
	}
}

// RemoveFavorite removes one favorite.
func (h *Handler) RemoveFavorite(c *gin.Context) {
	if err := h.app.Favorites.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearFavorites removes every favorite.
func (h *Handler) ClearFavorites(c *gin.Context) {
	if err := h.app.Favorites.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Meal plan ---

// Week returns the seven-day window starting at ?from= or today.
func (h *Handler) Week(c *gin.Context) {
	ref := time.Now()
	if from := c.Query("from"); from != "" {
		t, err := time.ParseInLocation(planner.DateKeyLayout, from, time.Local)
		if err != nil {
			badRequest(c, "from must be YYYY-MM-DD")
			return
		}
		ref = t
	}
	c.JSON(http.StatusOK, h.app.Plan.Week(c.Request.Context(), ref))
}

// Day returns the entries of one day keyed by slot.
func (h *Handler) Day(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Plan.EntriesForDay(c.Request.Context(), c.Param("day")))
}

type assignRequest struct {
	RecipeID string `json:"recipeId" binding:"required"`
	Notes    string `json:"notes"`
}

// Assign puts a recipe into a day slot.
func (h *Handler) Assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	slot, err := planner.ParseMealSlot(c.Param("slot"))
	if err != nil {
		respondError(c, err)
		return
	}
	entry, err := h.app.PlanRecipe(c.Request.Context(), c.Param("day"), slot, req.RecipeID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Unassign empties a day slot.
func (h *Handler) Unassign(c *gin.Context) {
	slot, err := planner.ParseMealSlot(c.Param("slot"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.app.Plan.Unassign(c.Request.Context(), c.Param("day"), slot); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveEntry deletes a plan entry by id.
func (h *Handler) RemoveEntry(c *gin.Context) {
	if err := h.app.Plan.RemoveEntry(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearPlan empties the whole plan.
func (h *Handler) ClearPlan(c *gin.Context) {
	if err := h.app.Plan.ClearAll(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Shopping list ---

// ShoppingList returns the items grouped by category.
func (h *Handler) ShoppingList(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Shopping.Grouped(c.Request.Context()))
}

// GenerateShoppingList merges the planned recipes into the list.
func (h *Handler) GenerateShoppingList(c *gin.Context) {
	result, err := h.app.GenerateShoppingList(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"groups":     shopping.GroupByCategory(result.Items),
		"unresolved": result.Unresolved,
	})
}

// AddShoppingItem adds one manual item.
func (h *Handler) AddShoppingItem(c *gin.Context) {
	var ing shopping.Ingredient
	if err := c.ShouldBindJSON(&ing); err != nil {
		badRequest(c, err.Error())
		return
	}
	item, err := h.app.Shopping.Add(c.Request.Context(), ing)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ToggleShoppingItem flips the checked state of an item.
func (h *Handler) ToggleShoppingItem(c *gin.Context) {
	item, err := h.app.Shopping.ToggleChecked(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// RemoveShoppingItem deletes one item.
func (h *Handler) RemoveShoppingItem(c *gin.Context) {
	if err := h.app.Shopping.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearShoppingList empties the list.
func (h *Handler) ClearShoppingList(c *gin.Context) {
	if err := h.app.Shopping.ClearAll(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Ratings ---

// ListRatings returns every rating keyed by recipe id.
func (h *Handler) ListRatings(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Ratings.All(c.Request.Context()))
}

// GetRating returns the rating of one recipe.
func (h *Handler) GetRating(c *gin.Context) {
	r := h.app.Ratings.Get(c.Request.Context(), c.Param("id"))
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not rated"})
		return
	}
	c.JSON(http.StatusOK, r)
}

type rateRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// Rate records the user's rating of a recipe.
func (h *Handler) Rate(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	r, err := h.app.Ratings.Rate(c.Request.Context(), c.Param("id"), req.Rating, req.Review)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// RemoveRating deletes the rating of one recipe.
func (h *Handler) RemoveRating(c *gin.Context) {
	if err := h.app.Ratings.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
