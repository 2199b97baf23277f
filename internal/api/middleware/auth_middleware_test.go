package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawmart/pawmart-api/internal/api/middleware"
	"github.com/pawmart/pawmart-api/internal/models"
)

var testJWTKey = []byte("test-secret-key")

func signedToken(t *testing.T, claims *models.Claims, key []byte) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(key)
	require.NoError(t, err)

	return signed
}

func validClaims(role string) *models.Claims {
	return &models.Claims{
		UserID: uuid.New(),
		Email:  "buyer@example.com",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestAuthenticate(t *testing.T) {
	authMiddleware := middleware.NewAuthMiddleware(testJWTKey)

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true

		claims, ok := middleware.ClaimsFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, "buyer@example.com", claims.Email)

		w.WriteHeader(http.StatusOK)
	})

	t.Run("Valid token", func(t *testing.T) {
		nextCalled = false
		req := httptest.NewRequest(http.MethodGet, "/carts", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, validClaims(models.RoleCustomer), testJWTKey))
		recorder := httptest.NewRecorder()

		authMiddleware.Authenticate(next)(recorder, req)

		assert.True(t, nextCalled)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("Missing header", func(t *testing.T) {
		nextCalled = false
		req := httptest.NewRequest(http.MethodGet, "/carts", nil)
		recorder := httptest.NewRecorder()

		authMiddleware.Authenticate(next)(recorder, req)

		assert.False(t, nextCalled)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("Malformed header", func(t *testing.T) {
		nextCalled = false
		req := httptest.NewRequest(http.MethodGet, "/carts", nil)
		req.Header.Set("Authorization", "Token abc")
		recorder := httptest.NewRecorder()

		authMiddleware.Authenticate(next)(recorder, req)

		assert.False(t, nextCalled)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("Wrong signing key", func(t *testing.T) {
		nextCalled = false
		req := httptest.NewRequest(http.MethodGet, "/carts", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, validClaims(models.RoleCustomer), []byte("other-key")))
		recorder := httptest.NewRecorder()

		authMiddleware.Authenticate(next)(recorder, req)

		assert.False(t, nextCalled)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("Expired token", func(t *testing.T) {
		nextCalled = false
		claims := validClaims(models.RoleCustomer)
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

		req := httptest.NewRequest(http.MethodGet, "/carts", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, claims, testJWTKey))
		recorder := httptest.NewRecorder()

		authMiddleware.Authenticate(next)(recorder, req)

		assert.False(t, nextCalled)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	authMiddleware := middleware.NewAuthMiddleware(testJWTKey)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	protected := authMiddleware.Authenticate(authMiddleware.RequireAdmin(next))

	t.Run("Admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/offers", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, validClaims(models.RoleAdmin), testJWTKey))
		recorder := httptest.NewRecorder()

		protected(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("Customer forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/offers", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, validClaims(models.RoleCustomer), testJWTKey))
		recorder := httptest.NewRecorder()

		protected(recorder, req)

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}
