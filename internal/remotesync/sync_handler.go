package remotesync

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	Service *Service
}

func NewSyncHandler(s *Service) *SyncHandler {
	return &SyncHandler{Service: s}
}

func (h *SyncHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/sync", h.GetStatus)
	router.POST("/sync/pull", h.Pull)
}

func (h *SyncHandler) GetStatus(c *gin.Context) {
	status := gin.H{"enabled": h.Service.Enabled()}
	if h.Service.transport != nil {
		status["transport"] = h.Service.transport.Name()
	}
	c.JSON(http.StatusOK, status)
}

func (h *SyncHandler) Pull(c *gin.Context) {
	result, err := h.Service.Pull(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Remote endpoint not configured", "details": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Merge with remote data failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
