package mealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"flavor-vault/internal/config"
	"flavor-vault/internal/metrics"
	"flavor-vault/internal/recipe"
)

const (
	maxIngredients    = 20
	lookupConcurrency = 5
)

// meal is a raw TheMealDB record. Ingredient columns are numbered
// strIngredient1..20, so it is decoded as a loose map.
type meal map[string]any

type mealsResponse struct {
	Meals []meal `json:"meals"`
}

type categoriesResponse struct {
	Categories []struct {
		ID          string `json:"idCategory"`
		Name        string `json:"strCategory"`
		Thumbnail   string `json:"strCategoryThumb"`
		Description string `json:"strCategoryDescription"`
	} `json:"categories"`
}

// Client talks to TheMealDB. Every method is fail-soft: transport and decode
// failures are logged and reported as empty results.
type Client struct {
	httpClient *http.Client
	baseURL    string
	recorder   metrics.Recorder
}

// NewClient creates a new TheMealDB client. rec may be nil.
func NewClient(cfg *config.Config, rec metrics.Recorder) *Client {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    cfg.MealDBBaseURL,
		recorder:   rec,
	}
}

// FetchRandom returns up to count distinct random recipes.
func (c *Client) FetchRandom(ctx context.Context, count int) []recipe.Recipe {
	start := time.Now()
	seen := make(map[string]bool)
	recipes := make([]recipe.Recipe, 0, count)
	failed := false

	// random.php returns one meal per call; allow some slack for repeats.
	for attempt := 0; attempt < count*2 && len(recipes) < count; attempt++ {
		var resp mealsResponse
		if err := c.get(ctx, "random.php", nil, &resp); err != nil {
			log.Printf("Error fetching random recipe: %v", err)
			failed = true
			break
		}
		for _, m := range resp.Meals {
			r := m.toRecipe()
			if r.ID == "" || seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			recipes = append(recipes, r)
		}
	}

	metrics.Observe(ctx, c.recorder, metrics.SourceMealDB, "random", start, len(recipes), failed)
	return recipes
}

// SearchByName returns the recipes whose name matches query.
func (c *Client) SearchByName(ctx context.Context, query string) []recipe.Recipe {
	start := time.Now()
	recipes, err := c.meals(ctx, "search.php", url.Values{"s": {query}})
	if err != nil {
		log.Printf("Error searching recipes for %q: %v", query, err)
	}
	metrics.Observe(ctx, c.recorder, metrics.SourceMealDB, "search", start, len(recipes), err != nil)
	return recipes
}

// ListByCategory returns the full recipes of a category.
func (c *Client) ListByCategory(ctx context.Context, category string) []recipe.Recipe {
	return c.listFiltered(ctx, "category", url.Values{"c": {category}})
}

// ListByArea returns the full recipes of a cuisine.
func (c *Client) ListByArea(ctx context.Context, area string) []recipe.Recipe {
	return c.listFiltered(ctx, "area", url.Values{"a": {area}})
}

// GetByID returns the recipe with id, or nil when it does not exist or the
// request fails.
func (c *Client) GetByID(ctx context.Context, id string) *recipe.Recipe {
	start := time.Now()
	r, err := c.lookup(ctx, id)
	if err != nil {
		log.Printf("Error fetching recipe %s: %v", id, err)
	}
	results := 0
	if r != nil {
		results = 1
	}
	metrics.Observe(ctx, c.recorder, metrics.SourceMealDB, "lookup", start, results, err != nil)
	return r
}

// Find implements recipe.Lookup against the remote API.
func (c *Client) Find(ctx context.Context, id string) (recipe.Recipe, bool) {
	if r := c.GetByID(ctx, id); r != nil {
		return *r, true
	}
	return recipe.Recipe{}, false
}

// ListCategories returns the browse categories.
func (c *Client) ListCategories(ctx context.Context) []recipe.Category {
	start := time.Now()
	var resp categoriesResponse
	err := c.get(ctx, "categories.php", nil, &resp)
	if err != nil {
		log.Printf("Error fetching categories: %v", err)
	}

	categories := make([]recipe.Category, 0, len(resp.Categories))
	for _, cat := range resp.Categories {
		categories = append(categories, recipe.Category{
			ID:          cat.ID,
			Name:        cat.Name,
			Thumbnail:   cat.Thumbnail,
			Description: cat.Description,
		})
	}
	metrics.Observe(ctx, c.recorder, metrics.SourceMealDB, "categories", start, len(categories), err != nil)
	return categories
}

// ListAreas returns the cuisine names known to TheMealDB.
func (c *Client) ListAreas(ctx context.Context) []string {
	start := time.Now()
	var resp mealsResponse
	err := c.get(ctx, "list.php", url.Values{"a": {"list"}}, &resp)
	if err != nil {
		log.Printf("Error fetching areas: %v", err)
	}

	areas := make([]string, 0, len(resp.Meals))
	for _, m := range resp.Meals {
		if area := m.str("strArea"); area != "" {
			areas = append(areas, area)
		}
	}
	metrics.Observe(ctx, c.recorder, metrics.SourceMealDB, "areas", start, len(areas), err != nil)
	return areas
}

// listFiltered resolves filter.php summaries into full recipes. Summaries
// whose lookup fails are dropped.
func (c *Client) listFiltered(ctx context.Context, operation string, params url.Values) []recipe.Recipe {
	start := time.Now()
	var resp mealsResponse
	if err := c.get(ctx, "filter.php", params, &resp); err != nil {
		log.Printf("Error filtering recipes by %s: %v", operation, err)
		metrics.Observe(ctx, c.recorder, metrics.SourceMealDB, operation, start, 0, true)
		return []recipe.Recipe{}
	}

	found := make([]*recipe.Recipe, len(resp.Meals))
	sem := make(chan struct{}, lookupConcurrency)
	var wg sync.WaitGroup
	for i, m := range resp.Meals {
		id := m.str("idMeal")
		if id == "" {
			continue
		}
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			r, err := c.lookup(ctx, id)
			if err != nil {
				log.Printf("Error fetching recipe %s: %v", id, err)
				return
			}
			found[i] = r
		}(i, id)
	}
	wg.Wait()

	recipes := make([]recipe.Recipe, 0, len(found))
	for _, r := range found {
		if r != nil {
			recipes = append(recipes, *r)
		}
	}
	metrics.Observe(ctx, c.recorder, metrics.SourceMealDB, operation, start, len(recipes), false)
	return recipes
}

func (c *Client) lookup(ctx context.Context, id string) (*recipe.Recipe, error) {
	recipes, err := c.meals(ctx, "lookup.php", url.Values{"i": {id}})
	if err != nil || len(recipes) == 0 {
		return nil, err
	}
	return &recipes[0], nil
}

func (c *Client) meals(ctx context.Context, endpoint string, params url.Values) ([]recipe.Recipe, error) {
	var resp mealsResponse
	if err := c.get(ctx, endpoint, params, &resp); err != nil {
		return []recipe.Recipe{}, err
	}

	recipes := make([]recipe.Recipe, 0, len(resp.Meals))
	for _, m := range resp.Meals {
		if r := m.toRecipe(); r.ID != "" {
			recipes = append(recipes, r)
		}
	}
	return recipes, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := fmt.Sprintf("%s/%s", c.baseURL, endpoint)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mealdb api error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (m meal) str(key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func (m meal) toRecipe() recipe.Recipe {
	r := recipe.Recipe{
		ID:           m.str("idMeal"),
		Name:         m.str("strMeal"),
		Category:     m.str("strCategory"),
		Area:         m.str("strArea"),
		Instructions: m.str("strInstructions"),
		Thumbnail:    m.str("strMealThumb"),
		Source:       m.str("strSource"),
		Youtube:      m.str("strYoutube"),
	}

	for _, tag := range strings.Split(m.str("strTags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			r.Tags = append(r.Tags, tag)
		}
	}

	for i := 1; i <= maxIngredients; i++ {
		name := m.str(fmt.Sprintf("strIngredient%d", i))
		if name == "" {
			continue
		}
		r.Ingredients = append(r.Ingredients, recipe.Ingredient{
			Name:    name,
			Measure: m.str(fmt.Sprintf("strMeasure%d", i)),
		})
	}

	return recipe.Normalize(r)
}
