package api

import (
	"context"
	"fmt"
	"strings"

	"flavor-vault/internal/storage"
)

const (
	maxRecentSearches   = 10
	shownRecentSearches = 5
)

// RecentSearches keeps the latest distinct search queries, most recent
// first.
type RecentSearches struct {
	coll *storage.Collection[[]string]
}

// NewRecentSearches creates a RecentSearches backed by kv.
func NewRecentSearches(kv storage.KV) *RecentSearches {
	return &RecentSearches{coll: storage.NewCollection[[]string](kv, storage.KeyRecentSearches)}
}

// Add moves query to the front of the list. Blank queries are ignored.
func (r *RecentSearches) Add(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	_, err := r.coll.Update(ctx, func(searches []string) ([]string, error) {
		if len(searches) > 0 && searches[0] == query {
			return nil, storage.ErrUnchanged
		}
		next := []string{query}
		for _, s := range searches {
			if s != query && len(next) < maxRecentSearches {
				next = append(next, s)
			}
		}
		return next, nil
	})
	if err != nil {
		return fmt.Errorf("failed to save recent search: %w", err)
	}
	return nil
}

// List returns up to n recent searches.
func (r *RecentSearches) List(ctx context.Context, n int) []string {
	searches := r.coll.Load(ctx)
	if len(searches) > n {
		searches = searches[:n]
	}
	if searches == nil {
		return []string{}
	}
	return searches
}

// Clear forgets every search.
func (r *RecentSearches) Clear(ctx context.Context) error {
	if err := r.coll.Reset(ctx); err != nil {
		return fmt.Errorf("failed to clear recent searches: %w", err)
	}
	return nil
}
