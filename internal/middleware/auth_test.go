package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chocohouse/order-service/internal/entities"
	"github.com/chocohouse/order-service/internal/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func customerClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"id":          "user-1",
		"username":    "alice",
		"role":        string(entities.RoleCustomer),
		"phoneNumber": "+97333001122",
		"exp":         time.Now().Add(time.Hour).Unix(),
	}
}

func TestAuth(t *testing.T) {
	testCases := []struct {
		name          string
		header        string
		wantStatus    int
		wantPrincipal bool
	}{
		{
			name:          "valid token sets principal",
			header:        "Bearer " + signToken(t, testSecret, customerClaims()),
			wantStatus:    http.StatusOK,
			wantPrincipal: true,
		},
		{
			name:       "no header passes through anonymously",
			header:     "",
			wantStatus: http.StatusOK,
		},
		{
			name:       "malformed header",
			header:     "Basic abc",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			header:     "Bearer " + signToken(t, "other-secret", customerClaims()),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired token",
			header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{
				"id":  "user-1",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotPrincipal bool
			var principal entities.Principal

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				principal, gotPrincipal = middleware.PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/orders", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			middleware.Auth(testSecret)(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, tc.wantPrincipal, gotPrincipal)
			if tc.wantPrincipal {
				assert.Equal(t, "user-1", principal.ID)
				assert.Equal(t, "alice", principal.Username)
				assert.Equal(t, entities.RoleCustomer, principal.Role)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.Auth(testSecret)(middleware.RequireAuth(next))

	t.Run("anonymous rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("authenticated allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, customerClaims()))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.Auth(testSecret)(middleware.RequireAdmin(next))

	t.Run("customer forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/orders", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, customerClaims()))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin allowed", func(t *testing.T) {
		claims := customerClaims()
		claims["id"] = "admin-1"
		claims["role"] = string(entities.RoleAdmin)
		req := httptest.NewRequest(http.MethodPost, "/admin/orders", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, claims))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
