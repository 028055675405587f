package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edy93762/gesto-de-epi-sub000/internal/core/container"
	"github.com/edy93762/gesto-de-epi-sub000/internal/middleware"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/security"
)

const requestTimeout = 60 * time.Second

func RegisterPublicRoutes(router *gin.Engine, c *container.Container) {
	c.LoginHandler.RegisterRoutes(router)
}

func RegisterProtectedRoutes(router *gin.Engine, c *container.Container) {
	protectedRoutes := router.Group("")
	protectedRoutes.Use(security.JWTMiddleware(c.Authenticator), middleware.TimeoutMiddleware(requestTimeout))

	c.CatalogHandler.RegisterRoutes(protectedRoutes)
	c.CollaboratorHandler.RegisterRoutes(protectedRoutes)
	c.AssignmentHandler.RegisterRoutes(protectedRoutes)
	c.DeliveryHandler.RegisterRoutes(protectedRoutes)
	c.SyncHandler.RegisterRoutes(protectedRoutes)
	c.SettingsHandler.RegisterRoutes(protectedRoutes)
	c.BackupHandler.RegisterRoutes(protectedRoutes)
	if c.CaptureHandler != nil {
		c.CaptureHandler.RegisterRoutes(protectedRoutes)
	}
}

func RegisterUtilityRoutes(router *gin.Engine, c *container.Container) {
	router.GET("/health", middleware.HealthCheckMiddleware(c.Health))
	router.GET("/metrics", gin.WrapH(c.Metrics.Handler()))
}

// NewRouter builds the engine with every route of the API.
func NewRouter(c *container.Container) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), middleware.RecoveryMiddleware(c.Log))

	RegisterUtilityRoutes(router, c)
	RegisterPublicRoutes(router, c)
	RegisterProtectedRoutes(router, c)
	return router
}
