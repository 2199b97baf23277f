// Package testutils holds helpers for handler tests.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/pawmart/pawmart-api/internal/api/middleware"
	"github.com/pawmart/pawmart-api/internal/models"
)

// NewJSONRequest builds an httptest request with a JSON-encoded body.
func NewJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	return req
}

// AsUser seeds the request context with authenticated claims the way the
// auth middleware would.
func AsUser(r *http.Request, userID uuid.UUID, role string) *http.Request {
	claims := &models.Claims{UserID: userID, Role: role}
	ctx := context.WithValue(r.Context(), middleware.UserContextKey, claims)

	return r.WithContext(ctx)
}

// DecodeResponse unmarshals the recorded body into dest.
func DecodeResponse(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}
