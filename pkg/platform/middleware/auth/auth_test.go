package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "volunity/pkg/domain"
	dErrors "volunity/pkg/domain-errors"
	"volunity/pkg/requestcontext"
)

type staticValidator struct {
	claims *Claims
	err    error
}

func (v staticValidator) ValidateToken(string) (*Claims, error) {
	return v.claims, v.err
}

type staticRevocations struct {
	revoked bool
	err     error
}

func (r staticRevocations) IsRevoked(context.Context, string) (bool, error) {
	return r.revoked, r.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestRequireAuth(t *testing.T) {
	userID := id.NewUserID()
	claims := &Claims{UserID: userID, Email: "maria@example.com", Role: "organizer", JTI: "jti-1"}

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		assert.Equal(t, userID, requestcontext.UserID(ctx))
		assert.Equal(t, "maria@example.com", requestcontext.UserEmail(ctx))
		assert.Equal(t, "organizer", requestcontext.UserRole(ctx))
		assert.Equal(t, "jti-1", requestcontext.TokenID(ctx))
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("valid token passes and injects identity", func(t *testing.T) {
		handler := RequireAuth(staticValidator{claims: claims}, staticRevocations{}, discard())(echo)
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer sometoken")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		handler := RequireAuth(staticValidator{claims: claims}, staticRevocations{}, discard())(echo)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", errorCode(t, rec))
	})

	t.Run("invalid token", func(t *testing.T) {
		invalid := staticValidator{err: dErrors.New(dErrors.CodeUnauthorized, "invalid token")}
		handler := RequireAuth(invalid, staticRevocations{}, discard())(echo)
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		handler := RequireAuth(staticValidator{claims: claims}, staticRevocations{revoked: true}, discard())(echo)
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer sometoken")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revocation check failure is an internal error", func(t *testing.T) {
		broken := staticRevocations{err: errors.New("redis down")}
		handler := RequireAuth(staticValidator{claims: claims}, broken, discard())(echo)
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer sometoken")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	request := func(role string) *httptest.ResponseRecorder {
		handler := RequireRole(discard(), "organizer", "admin")(ok)
		ctx := requestcontext.WithUserRole(context.Background(), role)
		req := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, request("organizer").Code)
	assert.Equal(t, http.StatusNoContent, request("admin").Code)
	assert.Equal(t, http.StatusForbidden, request("user").Code)
	assert.Equal(t, http.StatusForbidden, request("").Code)
}
