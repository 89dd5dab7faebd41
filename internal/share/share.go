package share

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"flavor-vault/internal/recipe"
)

// DefaultTTL is how long a share link stays valid.
const DefaultTTL = 30 * 24 * time.Hour

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid share token")

// Claims is the payload of a share token.
type Claims struct {
	RecipeID   string `json:"rid"`
	RecipeName string `json:"name"`
	jwt.RegisteredClaims
}

// Sharer signs and verifies recipe share links.
type Sharer struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// NewSharer creates a Sharer. Links are built as <baseURL>/share/<token>.
func NewSharer(secret, baseURL string) *Sharer {
	return &Sharer{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
}

// Token creates a signed token for r.
func (s *Sharer) Token(r recipe.Recipe) (string, error) {
	now := s.now()
	claims := Claims{
		RecipeID:   r.ID,
		RecipeName: r.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Subject:   r.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign share token: %w", err)
	}
	return signed, nil
}

// Link returns the share URL of r.
func (s *Sharer) Link(r recipe.Recipe) (string, error) {
	token, err := s.Token(r)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/share/%s", s.baseURL, token), nil
}

// Text is the chat message used to share r.
func (s *Sharer) Text(r recipe.Recipe) (string, error) {
	link, err := s.Link(r)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Check out this recipe: %s\n%s", r.Name, link), nil
}

// Resolve verifies token and returns its claims.
func (s *Sharer) Resolve(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.RecipeID == "" {
		return nil, fmt.Errorf("%w: missing recipe id", ErrInvalidToken)
	}
	return claims, nil
}
