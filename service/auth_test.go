package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yisunguk/drawing-detector-sub003/config"
	"github.com/yisunguk/drawing-detector-sub003/pkg/apperr"
)

func issueToken(t *testing.T, username, role string, expiresAt time.Time) string {
	t.Helper()
	claims := tokenClaims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

func newAuthTestServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			http.NotFound(w, r)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != "correct" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "아이디 또는 비밀번호가 올바르지 않습니다"})
			return
		}

		json.NewEncoder(w).Encode(loginResponse{
			Token:    token,
			Username: req.Username,
			Role:     "client",
		})
	}))
}

func newTestAuthClient(baseURL string) *AuthClient {
	return NewAuthClient(&config.AuthConfig{BaseURL: baseURL, TimeoutSeconds: 5})
}

func TestLoginAndToken(t *testing.T) {
	token := issueToken(t, "alice", "client", time.Now().Add(time.Hour))
	srv := newAuthTestServer(t, token)
	defer srv.Close()

	client := newTestAuthClient(srv.URL)

	session, err := client.Login("alice", "correct")
	if err != nil {
		t.Fatalf("Expected login to succeed, got %v", err)
	}
	if session.Username != "alice" || session.Role != "client" {
		t.Errorf("Expected identity from token claims, got %s/%s", session.Username, session.Role)
	}
	if session.ExpiresAt.IsZero() {
		t.Error("Expected expiry from token claims")
	}

	got, err := client.Token()
	if err != nil {
		t.Fatalf("Expected token after login, got %v", err)
	}
	if got != token {
		t.Error("Expected stored bearer token to round-trip")
	}
}

func TestTokenWithoutSession(t *testing.T) {
	client := newTestAuthClient("http://localhost:0")

	_, err := client.Token()
	if !apperr.IsAuth(err) {
		t.Errorf("Expected auth error without a session, got %v", err)
	}
}

func TestTokenExpired(t *testing.T) {
	token := issueToken(t, "alice", "client", time.Now().Add(-time.Minute))
	srv := newAuthTestServer(t, token)
	defer srv.Close()

	client := newTestAuthClient(srv.URL)
	if _, err := client.Login("alice", "correct"); err != nil {
		t.Fatalf("Expected login to succeed, got %v", err)
	}

	_, err := client.Token()
	if !apperr.IsAuth(err) {
		t.Errorf("Expected auth error for expired token, got %v", err)
	}
}

func TestLoginRejected(t *testing.T) {
	srv := newAuthTestServer(t, "unused")
	defer srv.Close()

	client := newTestAuthClient(srv.URL)

	_, err := client.Login("alice", "wrong")
	if !apperr.IsAuth(err) {
		t.Fatalf("Expected auth error for bad credentials, got %v", err)
	}
	if apperr.MessageOf(err) != "아이디 또는 비밀번호가 올바르지 않습니다" {
		t.Errorf("Expected upstream detail message, got %q", apperr.MessageOf(err))
	}

	if client.Current() != nil {
		t.Error("Expected no session after rejected login")
	}
}

func TestLogout(t *testing.T) {
	token := issueToken(t, "alice", "client", time.Now().Add(time.Hour))
	srv := newAuthTestServer(t, token)
	defer srv.Close()

	client := newTestAuthClient(srv.URL)
	if _, err := client.Login("alice", "correct"); err != nil {
		t.Fatalf("Expected login to succeed, got %v", err)
	}

	client.Logout()
	if client.Current() != nil {
		t.Error("Expected session to be discarded after logout")
	}
	if _, err := client.Token(); !apperr.IsAuth(err) {
		t.Error("Expected auth error after logout")
	}
}
