package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yisunguk/drawing-detector-sub003/session"
)

// ContractHandler exposes the session controller's contract, filter
// and deviation commands as JSON endpoints.
type ContractHandler struct {
	ctrl *session.Controller
}

func NewContractHandler(ctrl *session.Controller) *ContractHandler {
	return &ContractHandler{ctrl: ctrl}
}

// List refreshes and returns the upstream contract list.
func (h *ContractHandler) List(c *gin.Context) {
	contracts, err := h.ctrl.RefreshContracts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}

type selectContractRequest struct {
	ContractID string `json:"contract_id" binding:"required"`
}

// Select switches the active contract.
func (h *ContractHandler) Select(c *gin.Context) {
	var req selectContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	contract, err := h.ctrl.SelectContract(c.Request.Context(), req.ContractID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// Active returns the cached active contract detail.
func (h *ContractHandler) Active(c *gin.Context) {
	contract := h.ctrl.ActiveContract()
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "선택된 계약서가 없습니다"})
		return
	}
	c.JSON(http.StatusOK, contract)
}

// Upload accepts a multipart contract document and submits it for
// parsing.
func (h *ContractHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	contractName := c.PostForm("contract_name")
	if contractName == "" {
		contractName = header.Filename
	}

	id, err := h.ctrl.Upload(c.Request.Context(), contractName, header.Filename, file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract_id": id})
}

// Delete removes a contract upstream.
func (h *ContractHandler) Delete(c *gin.Context) {
	if err := h.ctrl.DeleteContract(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// State returns the selection, filters, busy flag and error slot.
func (h *ContractHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.ctrl.Snapshot())
}

type filtersRequest struct {
	Chapter int    `json:"chapter"`
	Status  string `json:"status"`
	Keyword string `json:"keyword"`
}

// SetFilters replaces the chapter/status/keyword filter axes.
func (h *ContractHandler) SetFilters(c *gin.Context) {
	var req filtersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	h.ctrl.SetFilters(req.Chapter, req.Status, req.Keyword)
	c.JSON(http.StatusOK, h.ctrl.Snapshot())
}

// ClearFilters is the explicit filter reset.
func (h *ContractHandler) ClearFilters(c *gin.Context) {
	h.ctrl.ClearFilters()
	c.JSON(http.StatusOK, h.ctrl.Snapshot())
}

// Pointer fields distinguish "leave as is" (absent) from an explicit
// zero value, which clears that part of the selection.
type selectionRequest struct {
	ArticleNo   *int    `json:"article_no"`
	DeviationID *string `json:"deviation_id"`
	Panel       *string `json:"panel"`
}

// SetSelection updates the focused article, deviation or panel.
func (h *ContractHandler) SetSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.ArticleNo != nil {
		h.ctrl.SelectArticle(*req.ArticleNo)
	}
	if req.DeviationID != nil {
		h.ctrl.SelectDeviation(*req.DeviationID)
	}
	if req.Panel != nil {
		h.ctrl.SetPanel(*req.Panel)
	}
	c.JSON(http.StatusOK, h.ctrl.Snapshot())
}

// Articles returns the filtered article list with deviation counters.
func (h *ContractHandler) Articles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"articles": h.ctrl.Articles()})
}

// ArticleDeviations returns one article's visible deviation subset.
func (h *ContractHandler) ArticleDeviations(c *gin.Context) {
	no, err := strconv.Atoi(c.Param("no"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article number"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deviations": h.ctrl.Deviations(no)})
}

type createDeviationRequest struct {
	ArticleNo      int    `json:"article_no"`
	Subject        string `json:"subject"`
	InitialComment string `json:"initial_comment"`
}

// CreateDeviation opens a new deviation against an article.
func (h *ContractHandler) CreateDeviation(c *gin.Context) {
	var req createDeviationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	dev, err := h.ctrl.CreateDeviation(c.Request.Context(), req.ArticleNo, req.Subject, req.InitialComment)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dev)
}

type addCommentRequest struct {
	Content string `json:"content"`
}

// AddComment appends a comment to a deviation's thread.
func (h *ContractHandler) AddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	comment, err := h.ctrl.AddComment(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// ToggleStatus flips a deviation between open and closed.
func (h *ContractHandler) ToggleStatus(c *gin.Context) {
	dev, err := h.ctrl.ToggleStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dev)
}
