package capture

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxFrameBytes = 8 << 20

type CaptureHandler struct {
	Manager *Manager
	Feeds   *FrameCamera
}

func NewCaptureHandler(manager *Manager, feeds *FrameCamera) *CaptureHandler {
	return &CaptureHandler{Manager: manager, Feeds: feeds}
}

func (h *CaptureHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/capture/devices", h.GetDevices)
	router.POST("/capture/devices", h.RegisterDevice)
	router.DELETE("/capture/devices/:id", h.UnregisterDevice)
	router.POST("/capture/devices/:id/frames", h.PushFrame)

	router.POST("/capture/sessions", h.StartSession)
	router.GET("/capture/sessions/:id", h.GetSession)
	router.GET("/capture/sessions/:id/preview", h.GetPreview)
	router.GET("/capture/sessions/:id/still", h.GetStill)
	router.POST("/capture/sessions/:id/capture", h.Capture)
	router.POST("/capture/sessions/:id/retake", h.Retake)
	router.POST("/capture/sessions/:id/retry", h.Retry)
	router.POST("/capture/sessions/:id/device", h.SwitchDevice)
	router.POST("/capture/sessions/:id/confirm", h.Confirm)
	router.DELETE("/capture/sessions/:id", h.CloseSession)
}

func (h *CaptureHandler) GetDevices(c *gin.Context) {
	devices, err := h.Manager.Camera().Devices(c.Request.Context())
	if err != nil {
		abort(c, "Failed to list devices", err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

func (h *CaptureHandler) RegisterDevice(c *gin.Context) {
	var req DeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	device, err := h.Feeds.RegisterDevice(Device(req))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid device", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, device)
}

func (h *CaptureHandler) UnregisterDevice(c *gin.Context) {
	if err := h.Feeds.UnregisterDevice(c.Param("id")); err != nil {
		abort(c, "Failed to remove device", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device removed"})
}

func (h *CaptureHandler) PushFrame(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxFrameBytes)
	seq, err := h.Feeds.PushFrame(c.Param("id"), body)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			abort(c, "Unknown device", err)
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid frame", "details": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"seq": seq})
}

func (h *CaptureHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
			return
		}
	}

	_, status, err := h.Manager.Start(c.Request.Context(), req.DeviceID)
	if err != nil {
		abort(c, "Failed to start capture", err)
		return
	}
	c.JSON(http.StatusCreated, status)
}

func (h *CaptureHandler) GetSession(c *gin.Context) {
	h.withSession(c, func(s *Session) (Status, error) {
		return s.Status(c.Request.Context())
	})
}

func (h *CaptureHandler) Capture(c *gin.Context) {
	h.withSession(c, func(s *Session) (Status, error) {
		return s.Capture(c.Request.Context())
	})
}

func (h *CaptureHandler) Retake(c *gin.Context) {
	h.withSession(c, func(s *Session) (Status, error) {
		return s.Retake(c.Request.Context())
	})
}

func (h *CaptureHandler) Retry(c *gin.Context) {
	h.withSession(c, func(s *Session) (Status, error) {
		return s.Retry(c.Request.Context())
	})
}

func (h *CaptureHandler) SwitchDevice(c *gin.Context) {
	var req SwitchDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	h.withSession(c, func(s *Session) (Status, error) {
		return s.SwitchDevice(c.Request.Context(), req.DeviceID)
	})
}

func (h *CaptureHandler) GetPreview(c *gin.Context) {
	s, err := h.Manager.Get(c.Param("id"))
	if err != nil {
		abort(c, "Capture session not found", err)
		return
	}

	preview, err := s.Preview(c.Request.Context())
	if err != nil {
		abort(c, "No preview available", err)
		return
	}

	content, err := RenderPreview(preview.Image, preview.Mirror, preview.Detection, statusLine(preview))
	if err != nil {
		abort(c, "Failed to render preview", err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/jpeg", content)
}

func (h *CaptureHandler) GetStill(c *gin.Context) {
	s, err := h.Manager.Get(c.Param("id"))
	if err != nil {
		abort(c, "Capture session not found", err)
		return
	}

	still, err := s.Still(c.Request.Context())
	if err != nil {
		abort(c, "No still captured", err)
		return
	}
	content, err := still.JPEG()
	if err != nil {
		abort(c, "Failed to encode still", err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", content)
}

func (h *CaptureHandler) Confirm(c *gin.Context) {
	still, err := h.Manager.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, "Failed to confirm capture", err)
		return
	}
	photo, err := still.DataURL()
	if err != nil {
		abort(c, "Failed to encode still", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo": photo, "width": still.Width, "height": still.Height, "mirrored": still.Mirrored})
}

func (h *CaptureHandler) CloseSession(c *gin.Context) {
	if err := h.Manager.Close(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, "Failed to close capture session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Capture session closed"})
}

func (h *CaptureHandler) withSession(c *gin.Context, fn func(s *Session) (Status, error)) {
	s, err := h.Manager.Get(c.Param("id"))
	if err != nil {
		abort(c, "Capture session not found", err)
		return
	}
	status, err := fn(s)
	if err != nil {
		abort(c, "Capture operation rejected", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func statusLine(p Preview) string {
	switch {
	case p.State == StateCaptured:
		return "Foto capturada"
	case p.Detection.Present:
		return "Rosto detectado"
	default:
		return "Procurando rosto..."
	}
}

func abort(c *gin.Context, message string, err error) {
	c.AbortWithStatusJSON(StatusCode(err), gin.H{"error": message, "details": err.Error()})
}

// StatusCode maps capture errors to HTTP statuses.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrDeviceNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCameraBusy), errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrNoFace):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, ErrCameraUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
