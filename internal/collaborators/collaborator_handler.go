package collaborators

import (
	"net/http"

	"github.com/gin-gonic/gin"

	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
)

type CollaboratorHandler struct {
	Service *CollaboratorService
}

func NewCollaboratorHandler(s *CollaboratorService) *CollaboratorHandler {
	return &CollaboratorHandler{Service: s}
}

func (h *CollaboratorHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/collaborators", h.GetCollaborators)
	router.GET("/collaborators/:id", h.GetCollaborator)
	router.POST("/collaborators", h.RegisterCollaborator)
	router.PATCH("/collaborators/:id", h.UpdateCollaborator)
	router.PUT("/collaborators/:id/face", h.SetFaceReference)
	router.DELETE("/collaborators/:id", h.DeleteCollaborator)
}

func (h *CollaboratorHandler) GetCollaborators(c *gin.Context) {
	list, err := h.Service.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch collaborators", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *CollaboratorHandler) GetCollaborator(c *gin.Context) {
	collaborator, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": "Failed to fetch collaborator", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, collaborator)
}

func (h *CollaboratorHandler) RegisterCollaborator(c *gin.Context) {
	var req CollaboratorRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	collaborator, err := h.Service.Register(c.Request.Context(), req)
	if err != nil {
		switch err.(type) {
		case *custom_error.UniqueViolationError:
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Collaborator with same CPF already registered", "details": err.Error()})
		default:
			c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": "Failed to register collaborator", "details": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, collaborator)
}

func (h *CollaboratorHandler) UpdateCollaborator(c *gin.Context) {
	var req PatchCollaboratorRequest

	if err := c.ShouldBindUri(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid URI parameters", "details": err.Error()})
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	collaborator, err := h.Service.Update(c.Request.Context(), req)
	if err != nil {
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": "Unable to update collaborator", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, collaborator)
}

func (h *CollaboratorHandler) SetFaceReference(c *gin.Context) {
	var req FaceReferenceRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	collaborator, err := h.Service.SetFaceReference(c.Request.Context(), c.Param("id"), req.Photo)
	if err != nil {
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": "Unable to update face reference", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, collaborator)
}

func (h *CollaboratorHandler) DeleteCollaborator(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": "Failed to delete collaborator", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Collaborator deleted successfully"})
}
