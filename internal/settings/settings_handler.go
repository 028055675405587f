package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
)

type SettingsHandler struct {
	Service *SettingsService
}

func NewSettingsHandler(s *SettingsService) *SettingsHandler {
	return &SettingsHandler{Service: s}
}

func (h *SettingsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/settings", h.GetSettings)
	router.PATCH("/settings", h.UpdateSettings)
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Current())
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req PatchSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	cfg, err := h.Service.Update(c.Request.Context(), req)
	if err != nil {
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": "Failed to update settings", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cfg)
}
