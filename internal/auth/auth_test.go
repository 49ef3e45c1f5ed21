package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedinfra "crmdash/internal/shared/infrastructure"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func sign(t *testing.T, method jwt.SigningMethod, key any, c jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, c).SignedString(key)
	require.NoError(t, err)
	return token
}

func userClaims(exp time.Time, aud string) claims {
	return claims{
		Email: "kim@alpha.test",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{aud},
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func TestJWTVerifier(t *testing.T) {
	v := NewJWTVerifier(testSecret, nil)
	ctx := context.Background()
	future := time.Now().Add(time.Hour)

	id, err := v.Verify(ctx, sign(t, jwt.SigningMethodHS256, []byte(testSecret), userClaims(future, Audience)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.Subject)
	assert.Equal(t, "kim@alpha.test", id.Email)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", sign(t, jwt.SigningMethodHS256, []byte(testSecret), userClaims(time.Now().Add(-time.Minute), Audience))},
		{"wrong audience", sign(t, jwt.SigningMethodHS256, []byte(testSecret), userClaims(future, "anon"))},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("other-secret"), userClaims(future, Audience))},
		{"wrong algorithm", sign(t, jwt.SigningMethodHS512, []byte(testSecret), userClaims(future, Audience))},
		{"no exp", sign(t, jwt.SigningMethodHS256, []byte(testSecret), claims{RegisteredClaims: jwt.RegisteredClaims{Audience: jwt.ClaimStrings{Audience}}})},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(ctx, tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}

	_, err = v.Verify(ctx, "")
	assert.True(t, errors.Is(err, ErrMissingToken))
}

func TestJWTVerifier_CachesUntilExpiry(t *testing.T) {
	cache := sharedinfra.NewInMemoryCache[*Identity](time.Minute)
	defer cache.Close()
	v := NewJWTVerifier(testSecret, cache)
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), userClaims(time.Now().Add(time.Hour), Audience))

	_, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	// le secret change: la réponse vient du cache
	v.secret = []byte("rotated")
	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.Subject)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc": "abc",
		"bearer abc": "abc",
		"abc":        "abc",
		"null":       "",
		"":           "",
	}
	for header, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, BearerToken(r), header)
	}
}

func TestMiddleware(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Middleware(NewJWTVerifier(testSecret, nil)))
	router.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(IdentityFromContext(r.Context()).Subject))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized","detail":"missing bearer token"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(testSecret), userClaims(time.Now().Add(time.Hour), Audience)))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestMockVerifier(t *testing.T) {
	id, err := NewMockVerifier().Verify(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "demo-user", id.Subject)
}
