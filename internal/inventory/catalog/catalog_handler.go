package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
)

type CatalogHandler struct {
	Service *CatalogService
}

func NewCatalogHandler(s *CatalogService) *CatalogHandler {
	return &CatalogHandler{
		Service: s,
	}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/catalog", h.GetCatalog)
	router.POST("/catalog", h.CreateCatalogItem)
	router.PATCH("/catalog/:id", h.UpdateCatalogItem)
	router.DELETE("/catalog/:id", h.DeleteCatalogItem)
}

func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	items, err := h.Service.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch catalog", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *CatalogHandler) CreateCatalogItem(c *gin.Context) {
	var req CatalogItemRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	item, err := h.Service.Create(c.Request.Context(), req)
	if err != nil {
		switch err.(type) {
		case *custom_error.UniqueViolationError:
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Catalog item with same code already registered", "details": err.Error()})
		default:
			c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": "Failed to create catalog item", "details": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *CatalogHandler) UpdateCatalogItem(c *gin.Context) {
	var req PatchCatalogItemRequest

	if err := c.ShouldBindUri(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid URI parameters", "details": err.Error()})
		return
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	item, err := h.Service.Update(c.Request.Context(), req)
	if err != nil {
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": "Unable to update catalog item", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *CatalogHandler) DeleteCatalogItem(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": "Failed to delete catalog item", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Catalog item deleted successfully"})
}
