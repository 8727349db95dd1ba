package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/yisunguk/drawing-detector-sub003/config"
	"github.com/yisunguk/drawing-detector-sub003/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newAuthUpstream answers /auth/login with a signed token for the
// password "correct" and rejects everything else.
func newAuthUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != "correct" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "아이디 또는 비밀번호가 올바르지 않습니다"})
			return
		}

		claims := jwt.MapClaims{
			"username": req.Username,
			"role":     "client",
			"exp":      time.Now().Add(time.Hour).Unix(),
		}
		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		json.NewEncoder(w).Encode(map[string]string{
			"token":    token,
			"username": req.Username,
			"role":     "client",
		})
	}))
}

func newAuthRouter(auth *service.AuthClient) *gin.Engine {
	h := NewAuthHandler(auth)
	router := gin.New()
	router.POST("/api/auth/login", h.Login)
	router.GET("/api/auth/me", h.Me)
	router.POST("/api/auth/logout", h.Logout)
	return router
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandlerLogin(t *testing.T) {
	upstream := newAuthUpstream(t)
	defer upstream.Close()

	auth := service.NewAuthClient(&config.AuthConfig{BaseURL: upstream.URL, TimeoutSeconds: 5})
	router := newAuthRouter(auth)

	w := postJSON(router, "/api/auth/login", gin.H{"username": "alice", "password": "correct"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Username != "alice" || resp.Role != "client" || resp.Token == "" {
		t.Errorf("Unexpected login response: %+v", resp)
	}
}

func TestAuthHandlerLoginRejected(t *testing.T) {
	upstream := newAuthUpstream(t)
	defer upstream.Close()

	auth := service.NewAuthClient(&config.AuthConfig{BaseURL: upstream.URL, TimeoutSeconds: 5})
	router := newAuthRouter(auth)

	w := postJSON(router, "/api/auth/login", gin.H{"username": "alice", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for bad credentials, got %d", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "아이디 또는 비밀번호가 올바르지 않습니다" {
		t.Errorf("Expected upstream detail surfaced, got %q", resp["error"])
	}
}

func TestAuthHandlerLoginMissingFields(t *testing.T) {
	auth := service.NewAuthClient(&config.AuthConfig{BaseURL: "http://localhost:0", TimeoutSeconds: 5})
	router := newAuthRouter(auth)

	w := postJSON(router, "/api/auth/login", gin.H{"username": "alice"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing password, got %d", w.Code)
	}
}

func TestAuthHandlerMeAndLogout(t *testing.T) {
	upstream := newAuthUpstream(t)
	defer upstream.Close()

	auth := service.NewAuthClient(&config.AuthConfig{BaseURL: upstream.URL, TimeoutSeconds: 5})
	router := newAuthRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 before login, got %d", w.Code)
	}

	if w := postJSON(router, "/api/auth/login", gin.H{"username": "alice", "password": "correct"}); w.Code != http.StatusOK {
		t.Fatalf("Expected login to succeed, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 after login, got %d", w.Code)
	}

	var me map[string]string
	json.Unmarshal(w.Body.Bytes(), &me)
	if me["username"] != "alice" || me["role"] != "client" {
		t.Errorf("Unexpected identity: %v", me)
	}

	if w := postJSON(router, "/api/auth/logout", nil); w.Code != http.StatusOK {
		t.Fatalf("Expected logout to succeed, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 after logout, got %d", w.Code)
	}
}
