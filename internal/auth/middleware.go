package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"crmdash/internal/logger"
)

// BearerToken extrait le jeton de l'en-tête Authorization ("Bearer <token>" ou le jeton seul)
func BearerToken(r *http.Request) string {
	bearer := r.Header.Get("Authorization")
	if bearer == "" || bearer == "null" {
		return ""
	}
	if len(bearer) >= 7 && strings.EqualFold(bearer[:7], "bearer ") {
		return strings.TrimSpace(bearer[7:])
	}
	return bearer
}

// Middleware exige un jeton valide. L'identité est stockée dans le contexte et dans le logger de la requête.
func Middleware(v Verifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rlog := logger.FromContext(r.Context())

			id, err := v.Verify(r.Context(), BearerToken(r))
			if err != nil {
				rlog.WithError(err).Debug("authentication failed")
				detail := "invalid token"
				if errors.Is(err, ErrMissingToken) {
					detail = "missing bearer token"
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized", "detail": detail})
				return
			}

			ctx := ContextWithIdentity(r.Context(), id)
			ctx, _ = logger.WithIdentity(ctx, id.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
