package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yisunguk/drawing-detector-sub003/config"
	"github.com/yisunguk/drawing-detector-sub003/pkg/apperr"
)

// Session is the signed-in identity held for the lifetime of the
// process, or until the bearer token expires.
type Session struct {
	Token     string
	Username  string
	Role      string
	ExpiresAt time.Time
}

// AuthClient logs in against the upstream auth provider and keeps the
// resulting session. Token hands out the bearer credential just in
// time; it never makes a network call itself.
type AuthClient struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.RWMutex
	session *Session
}

func NewAuthClient(cfg *config.AuthConfig) *AuthClient {
	return &AuthClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// tokenClaims mirrors the claims the auth provider puts into its
// tokens. The client never verifies the signature; it only needs the
// expiry to fail fast without a round trip.
type tokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Login authenticates against the upstream provider and stores the
// returned session, replacing any previous one.
func (c *AuthClient) Login(username, password string) (*Session, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal login request: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Network("로그인 요청에 실패했습니다", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Network("로그인 응답을 읽지 못했습니다", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.Auth(detailOrDefault(respBody, "아이디 또는 비밀번호가 올바르지 않습니다"))
	}

	var lr loginResponse
	if err := json.Unmarshal(respBody, &lr); err != nil {
		return nil, apperr.Network("로그인 응답 형식이 올바르지 않습니다", err)
	}

	session := &Session{
		Token:    lr.Token,
		Username: lr.Username,
		Role:     lr.Role,
	}

	// Prefer the identity and expiry baked into the token itself.
	if claims, err := decodeClaims(lr.Token); err == nil {
		if claims.Username != "" {
			session.Username = claims.Username
		}
		if claims.Role != "" {
			session.Role = claims.Role
		}
		if claims.ExpiresAt != nil {
			session.ExpiresAt = claims.ExpiresAt.Time
		}
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	return session, nil
}

func decodeClaims(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Token returns the current bearer token. It fails with an auth error
// when no session exists or the token is past its expiry.
func (c *AuthClient) Token() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.session == nil {
		return "", apperr.Auth("로그인이 필요합니다")
	}
	if !c.session.ExpiresAt.IsZero() && time.Now().After(c.session.ExpiresAt) {
		return "", apperr.Auth("세션이 만료되었습니다. 다시 로그인해 주세요")
	}
	return c.session.Token, nil
}

// Current returns the active session, or nil when signed out.
func (c *AuthClient) Current() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Logout discards the active session.
func (c *AuthClient) Logout() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}
