package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/chocohouse/order-service/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
)

type principalKey struct{}

type tokenClaims struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phoneNumber"`
	jwt.RegisteredClaims
}

// Auth parses the Bearer token and stores the principal in the request
// context. Requests without a token pass through anonymously; RequireAuth
// and RequireAdmin decide per route whether that is acceptable.
func Auth(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				utils.WriteError(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}

			claims := new(tokenClaims)
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				utils.WriteError(w, "invalid token", http.StatusUnauthorized)
				return
			}

			principal := entities.Principal{
				ID:          claims.ID,
				Username:    claims.Username,
				PhoneNumber: claims.PhoneNumber,
				Role:        entities.Role(claims.Role),
			}
			ctx := context.WithValue(r.Context(), principalKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func PrincipalFromContext(ctx context.Context) (entities.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(entities.Principal)
	return p, ok
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			utils.WriteError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			utils.WriteError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		if !p.IsAdmin() {
			utils.WriteError(w, "admin role required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
