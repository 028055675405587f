package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	pingTimeout   = 2 * time.Second
	cacheDuration = 5 * time.Second
)

type HealthStatus struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	LastChecked time.Time `json:"last_checked"`
	Uptime      string    `json:"uptime"`
	Version     string    `json:"version"`
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health answers /health, checking the database at most every cacheDuration.
type Health struct {
	mu        sync.Mutex
	db        Pinger
	version   string
	startTime time.Time
	last      HealthStatus
	now       func() time.Time
}

func NewHealth(db Pinger, version string) *Health {
	return &Health{db: db, version: version, startTime: time.Now(), now: time.Now}
}

func (h *Health) Check(ctx context.Context) HealthStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if !h.last.LastChecked.IsZero() && now.Sub(h.last.LastChecked) < cacheDuration {
		h.last.Uptime = now.Sub(h.startTime).Round(time.Second).String()
		return h.last
	}

	status := HealthStatus{
		Status:      "ok",
		Database:    "ok",
		LastChecked: now,
		Uptime:      now.Sub(h.startTime).Round(time.Second).String(),
		Version:     h.version,
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := h.db.Ping(pingCtx); err != nil {
		status.Status = "degraded"
		status.Database = err.Error()
	}

	h.last = status
	return status
}

// HealthCheckMiddleware answers 200 when the database is reachable and 503 otherwise.
func HealthCheckMiddleware(h *Health) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := h.Check(c.Request.Context())
		code := http.StatusOK
		if status.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
