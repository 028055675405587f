package deliveries

import (
	"net/http"

	"github.com/gin-gonic/gin"

	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
)

type AssignmentHandler struct {
	Service *AssignmentService
}

func NewAssignmentHandler(s *AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{Service: s}
}

func (h *AssignmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/assignment", h.GetDraft)
	router.PUT("/assignment/collaborator", h.SetCollaborator)
	router.POST("/assignment/items", h.AddItem)
	router.DELETE("/assignment/items/:index", h.RemoveItem)
	router.POST("/assignment/photo", h.AttachPhoto)
	router.POST("/assignment/quick-registration", h.QuickRegister)
	router.POST("/assignment/submit", h.Submit)
	router.DELETE("/assignment", h.Reset)
}

func (h *AssignmentHandler) GetDraft(c *gin.Context) {
	view, err := h.Service.Current(c.Request.Context())
	if err != nil {
		abort(c, "Failed to load assignment", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AssignmentHandler) SetCollaborator(c *gin.Context) {
	var req EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	var (
		view *DraftView
		err  error
	)
	if req.CollaboratorID != "" {
		view, err = h.Service.SelectCollaborator(c.Request.Context(), req.CollaboratorID)
	} else {
		view, err = h.Service.SetEmployee(c.Request.Context(), req)
	}
	if err != nil {
		abort(c, "Failed to set collaborator", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AssignmentHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	view, err := h.Service.AddItem(c.Request.Context(), req.CatalogID)
	if err != nil {
		abort(c, "Failed to add item", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AssignmentHandler) RemoveItem(c *gin.Context) {
	var req RemoveItemRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid item index", "details": err.Error()})
		return
	}

	view, err := h.Service.RemoveItem(c.Request.Context(), *req.Index)
	if err != nil {
		abort(c, "Failed to remove item", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AssignmentHandler) AttachPhoto(c *gin.Context) {
	var req PhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	var (
		view *DraftView
		err  error
	)
	switch {
	case req.SessionID != "":
		view, err = h.Service.AttachCapture(c.Request.Context(), req.SessionID)
	case req.Photo != "":
		view, err = h.Service.AttachPhoto(c.Request.Context(), req.Photo)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": "sessionId or photo is required"})
		return
	}
	if err != nil {
		abort(c, "Failed to attach photo", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AssignmentHandler) QuickRegister(c *gin.Context) {
	view, err := h.Service.QuickRegister(c.Request.Context())
	if err != nil {
		switch err.(type) {
		case *custom_error.UniqueViolationError:
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Collaborator already exists", "details": err.Error()})
		default:
			abort(c, "Failed to register collaborator", err)
		}
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Submit answers 201 with the stored record and, when rendered, the slip as
// base64 so the desk can print it.
func (h *AssignmentHandler) Submit(c *gin.Context) {
	result, err := h.Service.Submit(c.Request.Context())
	if err != nil {
		abort(c, "Failed to submit delivery", err)
		return
	}

	body := gin.H{
		"record":   result.Record,
		"pushed":   result.Pushed,
		"warnings": result.Warnings,
	}
	if result.Document != nil {
		body["document"] = gin.H{
			"fileName": result.Document.Filename,
			"pages":    result.Document.Pages,
			"pdf":      result.Document.Encoded(),
		}
	}
	c.JSON(http.StatusCreated, body)
}

func (h *AssignmentHandler) Reset(c *gin.Context) {
	h.Service.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "Assignment cleared"})
}

func abort(c *gin.Context, message string, err error) {
	c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": message, "details": err.Error()})
}
