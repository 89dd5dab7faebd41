package recipe

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Bounds for synthesized fields.
const (
	MinCookingTime = 15
	MaxCookingTime = 90

	UserIDPrefix = "user-"
)

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure"`
}

// Recipe is a normalized dish record, either fetched from TheMealDB or
// submitted by the user.
type Recipe struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Category     string       `json:"category"`
	Area         string       `json:"area"`
	Instructions string       `json:"instructions"`
	Thumbnail    string       `json:"thumbnail"`
	Tags         []string     `json:"tags"`
	Ingredients  []Ingredient `json:"ingredients"`
	CookingTime  int          `json:"cookingTime"`
	Rating       string       `json:"rating"`
	Source       string       `json:"source,omitempty"`
	Youtube      string       `json:"youtube,omitempty"`
}

// Category describes a TheMealDB browse category.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Thumbnail   string `json:"thumbnail"`
	Description string `json:"description"`
}

// IsUserRecipe reports whether the recipe was submitted by the user.
func (r Recipe) IsUserRecipe() bool {
	return strings.HasPrefix(r.ID, UserIDPrefix)
}

// RatingValue parses the rating string. Unparseable ratings are 0.
func (r Recipe) RatingValue() float64 {
	v, err := strconv.ParseFloat(r.Rating, 64)
	if err != nil {
		return 0
	}
	return v
}

// SynthesizeCookingTime estimates minutes from the size of a recipe:
// 10 + 3 per ingredient + 1 per 60 characters of instructions, clamped
// to [MinCookingTime, MaxCookingTime].
func SynthesizeCookingTime(ingredientCount, instructionsLen int) int {
	minutes := 10 + 3*ingredientCount + instructionsLen/60
	if minutes < MinCookingTime {
		return MinCookingTime
	}
	if minutes > MaxCookingTime {
		return MaxCookingTime
	}
	return minutes
}

// SynthesizeRating derives a stable rating in [3.5, 5.0] from the recipe id.
func SynthesizeRating(id string) string {
	h := fnv.New32a()
	h.Write([]byte(id))
	return fmt.Sprintf("%.1f", 3.5+float64(h.Sum32()%16)/10)
}

// Normalize fills the fields a source may leave out. Ingredients with a
// blank name are dropped and names are trimmed.
func Normalize(r Recipe) Recipe {
	ingredients := make([]Ingredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			continue
		}
		ingredients = append(ingredients, Ingredient{Name: name, Measure: strings.TrimSpace(ing.Measure)})
	}
	r.Ingredients = ingredients

	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.CookingTime <= 0 {
		r.CookingTime = SynthesizeCookingTime(len(r.Ingredients), len(r.Instructions))
	}
	if r.Rating == "" {
		r.Rating = SynthesizeRating(r.ID)
	}
	return r
}
