package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yisunguk/drawing-detector-sub003/service"
)

type AuthHandler struct {
	auth *service.AuthClient
}

func NewAuthHandler(auth *service.AuthClient) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// Login forwards credentials to the upstream auth provider and stores
// the resulting session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	session, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := LoginResponse{
		Token:    session.Token,
		Username: session.Username,
		Role:     session.Role,
	}
	if !session.ExpiresAt.IsZero() {
		resp.ExpiresAt = session.ExpiresAt.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the signed-in identity.
func (h *AuthHandler) Me(c *gin.Context) {
	session := h.auth.Current()
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "로그인이 필요합니다"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": session.Username,
		"role":     session.Role,
	})
}

// Logout discards the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.auth.Logout()
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}
