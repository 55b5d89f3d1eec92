package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yeetogami/Odoo-hackathon-2025/internal/models"
)

const testSecret = "test-secret"

type userMap map[string]*models.User

func (m userMap) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func signToken(t *testing.T, secret, userID string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     exp.Unix(),
		"iat":     time.Now().Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func viewerEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := GetViewer(r.Context())
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      v.ID,
			"user_id": GetUserID(r.Context()),
			"admin":   v.IsAdmin,
		})
	})
}

func TestAuthenticate(t *testing.T) {
	users := userMap{
		"u1": {ID: "u1", Username: "alice"},
		"a1": {ID: "a1", Username: "root", IsAdmin: true},
	}
	handler := Authenticate(testSecret, users)(viewerEcho())
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantID     string
		wantAdmin  bool
	}{
		{"anonymous", "", http.StatusOK, "", false},
		{"valid user", "Bearer " + signToken(t, testSecret, "u1", future), http.StatusOK, "u1", false},
		{"valid admin", "Bearer " + signToken(t, testSecret, "a1", future), http.StatusOK, "a1", true},
		{"wrong scheme", "Token " + signToken(t, testSecret, "u1", future), http.StatusUnauthorized, "", false},
		{"wrong secret", "Bearer " + signToken(t, "other", "u1", future), http.StatusUnauthorized, "", false},
		{"expired", "Bearer " + signToken(t, testSecret, "u1", time.Now().Add(-time.Minute)), http.StatusUnauthorized, "", false},
		{"unknown user", "Bearer " + signToken(t, testSecret, "ghost", future), http.StatusUnauthorized, "", false},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				var resp models.APIResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.False(t, resp.Success)
				assert.NotEmpty(t, resp.Error)
				return
			}
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantID, body["id"])
			assert.Equal(t, tt.wantID, body["user_id"])
			assert.Equal(t, tt.wantAdmin, body["admin"])
		})
	}
}

func TestRequireUserAndAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name      string
		viewer    models.Viewer
		wantUser  int
		wantAdmin int
	}{
		{"anonymous", models.Viewer{}, http.StatusUnauthorized, http.StatusUnauthorized},
		{"user", models.Viewer{ID: "u1"}, http.StatusNoContent, http.StatusForbidden},
		{"admin", models.Viewer{ID: "a1", IsAdmin: true}, http.StatusNoContent, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithViewer(req.Context(), tt.viewer))

			rec := httptest.NewRecorder()
			RequireUser(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantUser, rec.Code)

			rec = httptest.NewRecorder()
			RequireAdmin(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantAdmin, rec.Code)
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(1, 2)
	now := time.Date(2025, 7, 12, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"), "burst exhausted")
	assert.True(t, l.Allow("2.2.2.2"), "buckets are per ip")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.1.1.1"), "refilled after one second")

	now = now.Add(limiterIdleTTL + time.Second)
	l.Allow("3.3.3.3")
	assert.Len(t, l.visitors, 1, "idle buckets are swept")
}

func TestRateLimitHandler(t *testing.T) {
	l := NewIPRateLimiter(0.001, 1)
	handler := l.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "9.9.9.9:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "10.0.0.7", ClientIP(req), "forwarded headers are not trusted")

	req.RemoteAddr = "unix-socket"
	assert.Equal(t, "unix-socket", ClientIP(req))
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	handler := l.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	allowed := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed, "rotating X-Forwarded-For must not mint new buckets")
}
