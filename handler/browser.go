package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yisunguk/drawing-detector-sub003/model"
	"github.com/yisunguk/drawing-detector-sub003/session"
)

// BrowserHandler exposes the storage browser's navigation commands.
type BrowserHandler struct {
	ctrl *session.Controller
}

func NewBrowserHandler(ctrl *session.Controller) *BrowserHandler {
	return &BrowserHandler{ctrl: ctrl}
}

func (h *BrowserHandler) state() gin.H {
	b := h.ctrl.Browser()
	return gin.H{
		"open":     b.IsOpen(),
		"path":     b.Path(),
		"entries":  b.Entries(),
		"selected": b.Selected(),
	}
}

// Open starts a listing session at the signed-in user's root.
func (h *BrowserHandler) Open(c *gin.Context) {
	if err := h.ctrl.OpenBrowser(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.state())
}

// State returns the current listing.
func (h *BrowserHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.state())
}

// Navigate descends into a folder or marks a file as pending.
func (h *BrowserHandler) Navigate(c *gin.Context) {
	var entry model.BrowseEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	h.ctrl.BrowseTo(c.Request.Context(), entry)
	c.JSON(http.StatusOK, h.state())
}

// Up ascends one level, bounded by the user's root.
func (h *BrowserHandler) Up(c *gin.Context) {
	h.ctrl.BrowseUp(c.Request.Context())
	c.JSON(http.StatusOK, h.state())
}

type confirmRequest struct {
	ContractName string `json:"contract_name" binding:"required"`
}

// Confirm promotes the pending file to the parse target.
func (h *BrowserHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	id, err := h.ctrl.ConfirmBrowse(c.Request.Context(), req.ContractName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract_id": id})
}

// Close abandons the listing session.
func (h *BrowserHandler) Close(c *gin.Context) {
	h.ctrl.CloseBrowser()
	c.JSON(http.StatusOK, h.state())
}
