package recipe

import "context"

// Lookup resolves a recipe id to a known recipe.
type Lookup interface {
	Find(ctx context.Context, id string) (Recipe, bool)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, id string) (Recipe, bool)

// Find calls f.
func (f LookupFunc) Find(ctx context.Context, id string) (Recipe, bool) {
	return f(ctx, id)
}

// Sources tries each lookup in order and returns the first hit.
type Sources []Lookup

// Find implements Lookup.
func (s Sources) Find(ctx context.Context, id string) (Recipe, bool) {
	for _, l := range s {
		if l == nil {
			continue
		}
		if r, ok := l.Find(ctx, id); ok {
			return r, true
		}
	}
	return Recipe{}, false
}

// Memo caches the results of l, misses included, for the lifetime of the
// returned Lookup. It is not safe for concurrent use.
func Memo(l Lookup) Lookup {
	type hit struct {
		r  Recipe
		ok bool
	}
	seen := make(map[string]hit)
	return LookupFunc(func(ctx context.Context, id string) (Recipe, bool) {
		if h, found := seen[id]; found {
			return h.r, h.ok
		}
		r, ok := l.Find(ctx, id)
		seen[id] = hit{r, ok}
		return r, ok
	})
}
