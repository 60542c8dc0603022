package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestMiddleware(t *testing.T) (*TokenService, http.Handler) {
	t.Helper()
	tokens := NewTokenService([]byte("secret"), time.Minute, time.Hour)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return tokens, AuthMiddleware(tokens)(inner)
}

func TestAuthMiddleware_RejectsMissingToken(t *testing.T) {
	_, handler := newTestMiddleware(t)

	req := httptest.NewRequest("GET", "/api/v1/netscan/devices", http.NoBody)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_RejectsInvalidToken(t *testing.T) {
	_, handler := newTestMiddleware(t)

	req := httptest.NewRequest("GET", "/api/v1/netscan/devices", http.NoBody)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_AcceptsValidToken(t *testing.T) {
	tokens := NewTokenService([]byte("secret"), time.Minute, time.Hour)

	var gotClaims *Claims
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthMiddleware(tokens)(inner)

	token, err := tokens.IssueAccessToken(&User{ID: "u-1", Username: "alice"})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/v1/netscan/devices", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotClaims == nil {
		t.Fatal("expected claims in request context")
	}
	if gotClaims.UserID != "u-1" {
		t.Errorf("UserID = %q, want %q", gotClaims.UserID, "u-1")
	}
}

func TestAuthMiddleware_SkipsPublicAndNonAPIPaths(t *testing.T) {
	_, handler := newTestMiddleware(t)

	paths := []string{
		"/api/v1/auth/register",
		"/api/v1/auth/login",
		"/api/v1/auth/refresh",
		"/api/v1/health",
		"/api/v1/ws",
		"/healthz",
		"/metrics",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest("GET", path, http.NoBody)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("status = %d, want %d (path should not require auth)", w.Code, http.StatusOK)
			}
		})
	}
}

func TestUserFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest("GET", "/", http.NoBody)
	if claims := UserFromContext(req.Context()); claims != nil {
		t.Errorf("claims = %v, want nil", claims)
	}
}
