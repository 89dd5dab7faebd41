package clipper

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"flavor-vault/internal/recipe"
)

// findJSONLDRecipe returns the first schema.org Recipe found in the
// document's JSON-LD blocks.
func findJSONLDRecipe(doc *goquery.Document) (recipe.Recipe, bool) {
	var found map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return true
		}
		found = findRecipeNode(v)
		return found == nil
	})
	if found == nil {
		return recipe.Recipe{}, false
	}
	return fromSchema(found), true
}

func findRecipeNode(v any) map[string]any {
	switch node := v.(type) {
	case map[string]any:
		if isRecipeType(node["@type"]) {
			return node
		}
		if graph, ok := node["@graph"]; ok {
			return findRecipeNode(graph)
		}
	case []any:
		for _, item := range node {
			if m := findRecipeNode(item); m != nil {
				return m
			}
		}
	}
	return nil
}

func isRecipeType(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "Recipe"
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func fromSchema(node map[string]any) recipe.Recipe {
	r := recipe.Recipe{
		Name:         first(node["name"]),
		Category:     first(node["recipeCategory"]),
		Area:         first(node["recipeCuisine"]),
		Instructions: strings.Join(instructionSteps(node["recipeInstructions"]), "\n"),
		Thumbnail:    imageURL(node["image"]),
		Tags:         keywords(node["keywords"]),
		CookingTime:  parseDuration(first(node["totalTime"])),
		Youtube:      videoURL(node["video"]),
	}
	if r.CookingTime == 0 {
		r.CookingTime = parseDuration(first(node["cookTime"])) + parseDuration(first(node["prepTime"]))
	}

	if lines, ok := node["recipeIngredient"].([]any); ok {
		for _, line := range lines {
			if s, ok := line.(string); ok {
				name, measure := splitIngredient(s)
				r.Ingredients = append(r.Ingredients, recipe.Ingredient{Name: name, Measure: measure})
			}
		}
	}

	if rating, ok := node["aggregateRating"].(map[string]any); ok {
		if v, err := strconv.ParseFloat(first(rating["ratingValue"]), 64); err == nil && v > 0 {
			r.Rating = fmt.Sprintf("%.1f", v)
		}
	}
	return r
}

// first returns v as a string, taking the first element of arrays.
func first(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		for _, item := range t {
			if s := first(item); s != "" {
				return s
			}
		}
	}
	return ""
}

func imageURL(v any) string {
	switch t := v.(type) {
	case map[string]any:
		return first(t["url"])
	case []any:
		for _, item := range t {
			if s := imageURL(item); s != "" {
				return s
			}
		}
		return ""
	}
	return first(v)
}

func videoURL(v any) string {
	if m, ok := v.(map[string]any); ok {
		if u := first(m["contentUrl"]); u != "" {
			return u
		}
		return first(m["embedUrl"])
	}
	return ""
}

func keywords(v any) []string {
	var raw []string
	switch t := v.(type) {
	case string:
		raw = strings.Split(t, ",")
	case []any:
		for _, item := range t {
			raw = append(raw, first(item))
		}
	}

	tags := []string{}
	for _, tag := range raw {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func instructionSteps(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		var steps []string
		for _, item := range t {
			steps = append(steps, instructionSteps(item)...)
		}
		return steps
	case map[string]any:
		if items, ok := t["itemListElement"]; ok {
			return instructionSteps(items)
		}
		if s := first(t["text"]); s != "" {
			return []string{s}
		}
	}
	return nil
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:[\d.]+S)?)?$`)

// parseDuration converts an ISO 8601 duration such as PT1H30M to minutes.
func parseDuration(s string) int {
	m := isoDuration.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return 0
	}
	days, _ := strconv.Atoi(m[1])
	hours, _ := strconv.Atoi(m[2])
	minutes, _ := strconv.Atoi(m[3])
	return days*24*60 + hours*60 + minutes
}

var (
	quantityToken = regexp.MustCompile(`^[\d¼½¾⅓⅔⅛.,/\-–]+$`)
	metricToken   = regexp.MustCompile(`^[\d.,/]+(g|kg|ml|l|oz|lb|lbs)$`)
	units         = map[string]bool{
		"cup": true, "cups": true, "tbsp": true, "tablespoon": true, "tablespoons": true,
		"tsp": true, "teaspoon": true, "teaspoons": true, "g": true, "gram": true, "grams": true,
		"kg": true, "ml": true, "l": true, "litre": true, "litres": true, "liter": true, "liters": true,
		"oz": true, "ounce": true, "ounces": true, "lb": true, "lbs": true, "pound": true, "pounds": true,
		"pinch": true, "clove": true, "cloves": true, "can": true, "cans": true, "slice": true,
		"slices": true, "handful": true, "bunch": true, "piece": true, "pieces": true,
		"sprig": true, "sprigs": true, "dash": true, "large": true, "medium": true, "small": true,
	}
)

// splitIngredient separates a leading quantity and unit from the ingredient
// name: "2 cups flour" becomes ("flour", "2 cups").
func splitIngredient(line string) (name, measure string) {
	fields := strings.Fields(line)
	n := 0
	for n < len(fields) && (quantityToken.MatchString(fields[n]) || metricToken.MatchString(strings.ToLower(fields[n]))) {
		n++
	}
	if n > 0 && n < len(fields) && units[strings.Trim(strings.ToLower(fields[n]), ".,")] {
		n++
	}
	if n == 0 || n == len(fields) {
		return strings.TrimSpace(line), ""
	}
	return strings.Join(fields[n:], " "), strings.Join(fields[:n], " ")
}
