package recipe

import (
	"sort"
	"strings"
)

// SortKey selects the ordering applied by Filter.
type SortKey string

const (
	SortNone     SortKey = ""
	SortByName   SortKey = "name"
	SortByRating SortKey = "rating"
	SortByTime   SortKey = "time"
)

// Filter narrows a list of fetched recipes locally.
type Filter struct {
	Query          string
	Category       string
	Area           string
	MaxCookingTime int
	MinRating      float64
	Sort           SortKey
}

// Apply returns the recipes matching f in the requested order. The input is
// not modified.
func (f Filter) Apply(recipes []Recipe) []Recipe {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if f.Category != "" && !strings.EqualFold(r.Category, f.Category) {
			continue
		}
		if f.Area != "" && !strings.EqualFold(r.Area, f.Area) {
			continue
		}
		if f.MaxCookingTime > 0 && r.CookingTime > f.MaxCookingTime {
			continue
		}
		if f.MinRating > 0 && r.RatingValue() < f.MinRating {
			continue
		}
		if query != "" && !matches(r, query) {
			continue
		}
		out = append(out, r)
	}

	switch f.Sort {
	case SortByName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case SortByRating:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].RatingValue() > out[j].RatingValue()
		})
	case SortByTime:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CookingTime < out[j].CookingTime
		})
	}
	return out
}

func matches(r Recipe, query string) bool {
	if strings.Contains(strings.ToLower(r.Name), query) ||
		strings.Contains(strings.ToLower(r.Category), query) ||
		strings.Contains(strings.ToLower(r.Area), query) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing.Name), query) {
			return true
		}
	}
	return false
}

// ParseSortKey maps user input to a SortKey. Unknown values sort nothing.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortByName:
		return SortByName
	case SortByRating:
		return SortByRating
	case SortByTime, "cookingtime":
		return SortByTime
	}
	return SortNone
}
