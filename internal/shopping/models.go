package shopping

import "strings"

// DefaultCategory is used for ingredients that arrive without a category.
const DefaultCategory = "Other"

// Item is one entry of the shopping list. Items are identified by Key,
// not by ID.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Checked  bool   `json:"checked"`
}

// Key is the case-insensitive identity of the item.
func (i Item) Key() string {
	return NameKey(i.Name)
}

// Ingredient is a raw ingredient to merge into the list.
type Ingredient struct {
	Name     string `json:"name"`
	Amount   string `json:"amount,omitempty"`
	Category string `json:"category,omitempty"`
}

// Group is the items of one category, in list order.
type Group struct {
	Category string `json:"category"`
	Items    []Item `json:"items"`
}

// NameKey normalizes an ingredient name for comparison.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
