// Package auth vérifie les jetons Bearer émis par le BaaS.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	sharedinfra "crmdash/internal/shared/infrastructure"
)

// Audience attendue des jetons utilisateur du BaaS
const Audience = "authenticated"

// MaxCacheTTL borne la durée de vie d'un jeton vérifié en cache
const MaxCacheTTL = 5 * time.Minute

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Identity utilisateur authentifié
type Identity struct {
	Subject   string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Verifier valide un jeton et retourne l'identité associée
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTVerifier vérifie des jetons HS256 signés avec le secret du BaaS.
//
// PATTERN: Cache-Aside
//   - Clé: le jeton brut
//   - TTL: min(expiration du jeton, MaxCacheTTL)
type JWTVerifier struct {
	secret []byte
	cache  sharedinfra.Cache[*Identity]
	now    func() time.Time
}

func NewJWTVerifier(secret string, cache sharedinfra.Cache[*Identity]) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), cache: cache, now: time.Now}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if v.cache != nil {
		if id, ok := v.cache.Get(token); ok && v.now().Before(id.ExpiresAt) {
			return id, nil
		}
	}

	var c claims
	parser := jwt.Parser{}
	parsed, err := parser.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}
	if !c.VerifyAudience(Audience, true) {
		return nil, fmt.Errorf("%w: audience", ErrInvalidToken)
	}

	id := &Identity{Subject: c.Subject, Email: c.Email, Role: c.Role, ExpiresAt: c.ExpiresAt.Time}
	if v.cache != nil {
		ttl := id.ExpiresAt.Sub(v.now())
		if ttl > MaxCacheTTL {
			ttl = MaxCacheTTL
		}
		if ttl > 0 {
			v.cache.Set(token, id, ttl)
		}
	}
	return id, nil
}

// MockVerifier accepte toute requête sous une identité de démonstration (AUTH_MODE=mock)
type MockVerifier struct {
	Identity Identity
}

func NewMockVerifier() *MockVerifier {
	return &MockVerifier{Identity: Identity{Subject: "demo-user", Email: "demo@example.com", Role: Audience}}
}

func (m *MockVerifier) Verify(context.Context, string) (*Identity, error) {
	id := m.Identity
	return &id, nil
}

type identityKey struct{}

// ContextWithIdentity attache l'identité au contexte
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retourne l'identité authentifiée, nil sinon
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}
