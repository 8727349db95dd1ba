package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yisunguk/drawing-detector-sub003/pkg/apperr"
)

// writeError maps the app error taxonomy onto HTTP statuses and emits
// the user-facing message.
func writeError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch apperr.CodeOf(err) {
	case apperr.CodeValidation:
		status = http.StatusBadRequest
	case apperr.CodeAuth:
		status = http.StatusUnauthorized
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeNetwork, apperr.CodeIO:
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": apperr.MessageOf(err)})
}
