package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()

	store, err := NewFileStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create FileStore: %v", err)
	}

	t.Run("Get-NotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "favorites")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Put", func(t *testing.T) {
		if err := store.Put(ctx, "favorites", []byte(`[{"id":"1"}]`)); err != nil {
			t.Fatalf("Failed to put key: %v", err)
		}

		filePath := filepath.Join(tempDir, "favorites.json")
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			t.Errorf("Expected file '%s' to be created, but it wasn't", filePath)
		}
	})

	t.Run("Get", func(t *testing.T) {
		data, err := store.Get(ctx, "favorites")
		if err != nil {
			t.Fatalf("Failed to get key: %v", err)
		}
		if string(data) != `[{"id":"1"}]` {
			t.Errorf("Unexpected content %s", data)
		}
	})

	t.Run("Put-Overwrites", func(t *testing.T) {
		if err := store.Put(ctx, "favorites", []byte(`[]`)); err != nil {
			t.Fatalf("Failed to put key: %v", err)
		}
		data, _ := store.Get(ctx, "favorites")
		if string(data) != `[]` {
			t.Errorf("Expected overwritten content, got %s", data)
		}

		matches, _ := filepath.Glob(filepath.Join(tempDir, "*.tmp"))
		if len(matches) != 0 {
			t.Errorf("Expected no temp files left behind, found %v", matches)
		}
	})

	t.Run("Key-Sanitized", func(t *testing.T) {
		if err := store.Put(ctx, "../escape", []byte(`{}`)); err != nil {
			t.Fatalf("Failed to put key: %v", err)
		}
		if _, err := os.Stat(filepath.Join(tempDir, "_escape.json")); err != nil {
			t.Errorf("Expected sanitized file name inside base path: %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "favorites"); err != nil {
			t.Fatalf("Failed to delete key: %v", err)
		}
		if _, err := store.Get(ctx, "favorites"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if err := store.Delete(ctx, "favorites"); err != nil {
			t.Errorf("Deleting a missing key should not fail, got %v", err)
		}
	})
}

func TestMemoryStoreQuota(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Quota = 10

	if err := store.Put(ctx, "a", []byte("12345")); err != nil {
		t.Fatalf("Expected first write to fit, got %v", err)
	}
	if err := store.Put(ctx, "b", []byte("123456")); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("Expected ErrQuotaExceeded, got %v", err)
	}
	// Replacing a key only counts the new value.
	if err := store.Put(ctx, "a", []byte("1234567890")); err != nil {
		t.Errorf("Expected replacement to fit, got %v", err)
	}
}

func TestCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("Load-Missing", func(t *testing.T) {
		c := NewCollection[[]string](NewMemoryStore(), "items")
		if got := c.Load(ctx); len(got) != 0 {
			t.Errorf("Expected empty collection, got %v", got)
		}
	})

	t.Run("Load-Corrupted", func(t *testing.T) {
		kv := NewMemoryStore()
		_ = kv.Put(ctx, "items", []byte("{not json"))
		c := NewCollection[[]string](kv, "items")
		if got := c.Load(ctx); len(got) != 0 {
			t.Errorf("Expected corrupted document to read as empty, got %v", got)
		}

		got, err := c.Update(ctx, func(items []string) ([]string, error) {
			return append(items, "a"), nil
		})
		if err != nil {
			t.Fatalf("Expected update over corrupted document to succeed, got %v", err)
		}
		if len(got) != 1 {
			t.Errorf("Expected 1 item, got %v", got)
		}
	})

	t.Run("Update-WriteFailure", func(t *testing.T) {
		kv := NewMemoryStore()
		c := NewCollection[[]string](kv, "items")
		if _, err := c.Update(ctx, func(items []string) ([]string, error) {
			return append(items, "a"), nil
		}); err != nil {
			t.Fatal(err)
		}

		kv.Quota = 1
		_, err := c.Update(ctx, func(items []string) ([]string, error) {
			return append(items, "b"), nil
		})

		var perr *PersistenceError
		if !errors.As(err, &perr) {
			t.Fatalf("Expected PersistenceError, got %v", err)
		}
		if perr.Key != "items" || perr.Op != "write" {
			t.Errorf("Unexpected error details: %+v", perr)
		}
		if !errors.Is(err, ErrQuotaExceeded) {
			t.Errorf("Expected error to wrap ErrQuotaExceeded")
		}
		if got := c.Load(ctx); len(got) != 1 || got[0] != "a" {
			t.Errorf("Expected stored value to be unchanged, got %v", got)
		}
	})

	t.Run("Update-Unchanged", func(t *testing.T) {
		c := NewCollection[[]string](NewMemoryStore(), "items")
		calls := 0
		c.OnChange(func(string) { calls++ })

		got, err := c.Update(ctx, func(items []string) ([]string, error) {
			return nil, ErrUnchanged
		})
		if err != nil {
			t.Fatalf("Expected nil error, got %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Expected current value, got %v", got)
		}
		if calls != 0 {
			t.Errorf("Expected no change notification, got %d", calls)
		}
	})

	t.Run("OnChange", func(t *testing.T) {
		c := NewCollection[[]string](NewMemoryStore(), "items")
		var seen []string
		c.OnChange(func(key string) {
			// Listeners may read the collection they observe.
			seen = append(seen, key+":"+string(rune('0'+len(c.Load(ctx)))))
		})

		_, _ = c.Update(ctx, func(items []string) ([]string, error) {
			return append(items, "a"), nil
		})
		_ = c.Reset(ctx)

		if len(seen) != 2 || seen[0] != "items:1" || seen[1] != "items:0" {
			t.Errorf("Unexpected notifications %v", seen)
		}
	})
}
