package share

import (
	"errors"
	"strings"
	"testing"
	"time"

	"flavor-vault/internal/recipe"
)

func TestSharer(t *testing.T) {
	r := recipe.Recipe{ID: "52772", Name: "Teriyaki Chicken"}
	sharer := NewSharer("secret", "http://localhost:8080/")

	t.Run("RoundTrip", func(t *testing.T) {
		link, err := sharer.Link(r)
		if err != nil {
			t.Fatalf("Failed to build link: %v", err)
		}
		prefix := "http://localhost:8080/share/"
		if !strings.HasPrefix(link, prefix) {
			t.Fatalf("Unexpected link %s", link)
		}

		claims, err := sharer.Resolve(strings.TrimPrefix(link, prefix))
		if err != nil {
			t.Fatalf("Failed to resolve: %v", err)
		}
		if claims.RecipeID != "52772" || claims.RecipeName != "Teriyaki Chicken" {
			t.Errorf("Unexpected claims %+v", claims)
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, _ := NewSharer("other", "http://x").Token(r)
		if _, err := sharer.Resolve(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		old := NewSharer("secret", "http://x")
		old.now = func() time.Time { return time.Now().Add(-2 * DefaultTTL) }
		token, _ := old.Token(r)
		if _, err := sharer.Resolve(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken for expired token, got %v", err)
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, err := sharer.Resolve("not-a-token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("Text", func(t *testing.T) {
		text, err := sharer.Text(r)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(text, "Check out this recipe: Teriyaki Chicken\nhttp://localhost:8080/share/") {
			t.Errorf("Unexpected text %q", text)
		}
	})
}

func TestMapsSearchURL(t *testing.T) {
	got, err := MapsSearchURL("Pad Thai", " Lisbon ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := "https://www.google.com/maps/search/Pad%20Thai%20restaurants%20near%20Lisbon"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	if _, err := MapsSearchURL("Pad Thai", "  "); !errors.Is(err, ErrMissingLocation) {
		t.Errorf("Expected ErrMissingLocation, got %v", err)
	}
}
