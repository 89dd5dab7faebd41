package shopping

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Merge folds incoming into list and returns the new list. list is not
// modified.
//
// An ingredient whose name matches an existing item (ignoring case and
// surrounding space) extends that item's amount; the item keeps its ID,
// category and checked state. Other ingredients are appended with an ID
// from newID, made unique within the list. Ingredients with a blank name
// are skipped.
func Merge(list []Item, incoming []Ingredient, newID func(Ingredient) string) []Item {
	out := make([]Item, len(list), len(list)+len(incoming))
	copy(out, list)

	index := make(map[string]int, len(out))
	ids := make(map[string]bool, len(out))
	for i, item := range out {
		if _, ok := index[item.Key()]; !ok {
			index[item.Key()] = i
		}
		ids[item.ID] = true
	}

	for _, ing := range incoming {
		key := NameKey(ing.Name)
		if key == "" {
			continue
		}
		amount := strings.TrimSpace(ing.Amount)

		if i, ok := index[key]; ok {
			out[i].Amount = mergeAmounts(out[i].Amount, amount)
			continue
		}

		category := strings.TrimSpace(ing.Category)
		if category == "" {
			category = DefaultCategory
		}
		ing.Name = strings.TrimSpace(ing.Name)
		ing.Category = category

		id := uniqueID(newID(ing), ids)
		ids[id] = true
		index[key] = len(out)
		out = append(out, Item{
			ID:       id,
			Name:     ing.Name,
			Amount:   amount,
			Category: category,
		})
	}
	return out
}

func mergeAmounts(existing, incoming string) string {
	switch {
	case existing != "" && incoming != "":
		return existing + ", " + incoming
	case incoming != "":
		return incoming
	}
	return existing
}

func uniqueID(id string, taken map[string]bool) string {
	if !taken[id] {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if !taken[candidate] {
			return candidate
		}
	}
}

// GroupByCategory groups list by category, keeping the order in which
// categories and items first appear.
func GroupByCategory(list []Item) []Group {
	groups := []Group{}
	index := make(map[string]int)
	for _, item := range list {
		category := item.Category
		if category == "" {
			category = DefaultCategory
		}
		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, Group{Category: category})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	// Accented letters lose their marks: "Crème" becomes "creme".
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// IDGenerator returns a newID function for Merge producing
// <category>-<name>-<unix nanos> using now as the clock.
func IDGenerator(now func() time.Time) func(Ingredient) string {
	return func(ing Ingredient) string {
		category := slug(ing.Category)
		if category == "" {
			category = slug(DefaultCategory)
		}
		name := slug(ing.Name)
		if name == "" {
			name = "item"
		}
		return fmt.Sprintf("%s-%s-%d", category, name, now().UnixNano())
	}
}
