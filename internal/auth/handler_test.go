package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/cybershield/cybershield/internal/store"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *http.ServeMux) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	users, err := NewUserStore(context.Background(), st)
	if err != nil {
		t.Fatalf("create user store: %v", err)
	}

	tokens := NewTokenService([]byte("test-secret"), time.Minute, time.Hour)
	svc := NewService(users, tokens, zap.NewNop())
	h := NewHandler(svc, zap.NewNop())

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h, mux
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func registerAlice(t *testing.T, mux *http.ServeMux) authResponse {
	t.Helper()
	w := postJSON(t, mux, "/api/v1/auth/register", registerRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-password",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp authResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp
}

func TestHandleRegister(t *testing.T) {
	_, mux := newTestHandler(t)

	resp := registerAlice(t, mux)
	if resp.User.Username != "alice" {
		t.Errorf("username = %q, want %q", resp.User.Username, "alice")
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Error("expected token pair in register response")
	}

	// Duplicate registration conflicts.
	w := postJSON(t, mux, "/api/v1/auth/register", registerRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-password",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestHandleRegister_BadBody(t *testing.T) {
	_, mux := newTestHandler(t)

	req := httptest.NewRequest("POST", "/api/v1/auth/register", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleLogin(t *testing.T) {
	_, mux := newTestHandler(t)
	registerAlice(t, mux)

	w := postJSON(t, mux, "/api/v1/auth/login", loginRequest{Username: "alice", Password: "s3cret-password"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp authResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Tokens.ExpiresIn != 60 {
		t.Errorf("expires_in = %d, want 60", resp.Tokens.ExpiresIn)
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	_, mux := newTestHandler(t)
	registerAlice(t, mux)

	w := postJSON(t, mux, "/api/v1/auth/login", loginRequest{Username: "alice", Password: "wrong-password"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content-type = %q, want problem+json", ct)
	}
}

func TestHandleRefreshAndLogout(t *testing.T) {
	_, mux := newTestHandler(t)
	resp := registerAlice(t, mux)

	w := postJSON(t, mux, "/api/v1/auth/refresh", refreshRequest{RefreshToken: resp.Tokens.RefreshToken})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body = %s", w.Code, w.Body.String())
	}
	var pair TokenPair
	if err := json.NewDecoder(w.Body).Decode(&pair); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = postJSON(t, mux, "/api/v1/auth/logout", refreshRequest{RefreshToken: pair.RefreshToken})
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}

	// Token revoked by logout cannot be refreshed.
	w = postJSON(t, mux, "/api/v1/auth/refresh", refreshRequest{RefreshToken: pair.RefreshToken})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestHandleRefresh_MissingToken(t *testing.T) {
	_, mux := newTestHandler(t)

	w := postJSON(t, mux, "/api/v1/auth/refresh", refreshRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleMe(t *testing.T) {
	h, mux := newTestHandler(t)
	resp := registerAlice(t, mux)

	// Wrap the mux with the auth middleware so /me sees claims.
	handler := h.Middleware()(mux)

	req := httptest.NewRequest("GET", "/api/v1/auth/me", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+resp.Tokens.AccessToken)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var user User
	if err := json.NewDecoder(w.Body).Decode(&user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("username = %q, want %q", user.Username, "alice")
	}
	if user.PasswordHash != "" {
		t.Error("password hash must never be serialized")
	}
}

func TestHandleMe_Unauthenticated(t *testing.T) {
	h, mux := newTestHandler(t)
	handler := h.Middleware()(mux)

	req := httptest.NewRequest("GET", "/api/v1/auth/me", http.NoBody)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
