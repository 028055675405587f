package backup

import (
	"net/http"

	"github.com/gin-gonic/gin"

	custom_error "github.com/edy93762/gesto-de-epi-sub000/pkg/errors"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/models"
)

type BackupHandler struct {
	Service *BackupService
}

func NewBackupHandler(s *BackupService) *BackupHandler {
	return &BackupHandler{Service: s}
}

func (h *BackupHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/backup", h.ExportBackup)
	router.GET("/backup/files", h.ListBackups)
	router.POST("/backup/restore", h.RestoreBackup)
	router.POST("/backup/run", h.RunBackup)
}

func (h *BackupHandler) ExportBackup(c *gin.Context) {
	backup, err := h.Service.Export(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to export backup", "details": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filePrefix+backup.ExportedAt.Format(stampFormat)+fileSuffix+`"`)
	c.JSON(http.StatusOK, backup)
}

func (h *BackupHandler) ListBackups(c *gin.Context) {
	files, err := h.Service.Files()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to list backups", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "scheduled": h.Service.Scheduled()})
}

func (h *BackupHandler) RestoreBackup(c *gin.Context) {
	var backup models.Backup
	if err := c.ShouldBindJSON(&backup); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid backup", "details": err.Error()})
		return
	}

	if err := h.Service.Restore(c.Request.Context(), &backup); err != nil {
		c.AbortWithStatusJSON(custom_error.StatusCode(err), gin.H{"error": "Failed to restore backup", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Backup restored successfully",
		"records":       len(backup.Records),
		"catalog":       len(backup.Catalog),
		"collaborators": len(backup.Collaborators),
	})
}

func (h *BackupHandler) RunBackup(c *gin.Context) {
	path, err := h.Service.RunOnce(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Backup failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"file": path})
}
