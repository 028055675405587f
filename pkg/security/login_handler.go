package security

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/rate_limiter"
)

type LoginHandler struct {
	auth        *Authenticator
	rateLimiter *rate_limiter.RateLimiter
	log         *zap.Logger
}

func NewLoginHandler(a *Authenticator, limiter *rate_limiter.RateLimiter, log *zap.Logger) *LoginHandler {
	return &LoginHandler{
		auth:        a,
		rateLimiter: limiter,
		log:         log.Named("auth"),
	}
}

func (l *LoginHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/auth", l.LoginHandler())
}

func (l *LoginHandler) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := clientKey(c)

		if !l.rateLimiter.IsAllowed(client) {
			reset := time.Now().Add(l.rateLimiter.Window()).Format(time.RFC3339)
			c.Header("X-RateLimit-Limit", strconv.Itoa(l.rateLimiter.Limit()))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", reset)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":    "Too many login attempts. Try again later.",
				"reset_at": reset,
			})
			return
		}

		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}

		if err := l.auth.Authenticate(req.Username, req.Password); err != nil {
			l.log.Warn("Login rejected", zap.String("client", client))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}

		token, err := l.auth.GenerateJWT(req.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(l.rateLimiter.GetRemainingRequests(client)))
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// clientKey identifies the caller for rate limiting. Behind a private or
// loopback address the user agent is appended so desks sharing a NAT are
// counted apart.
func clientKey(c *gin.Context) string {
	clientIP := c.GetHeader("X-Forwarded-For")
	if clientIP == "" {
		clientIP = c.GetHeader("X-Real-IP")
	}
	if clientIP == "" {
		clientIP = c.ClientIP()
	}
	if first, _, found := strings.Cut(clientIP, ","); found {
		clientIP = first
	}
	clientIP = strings.TrimSpace(clientIP)

	if isPrivateIP(clientIP) {
		return clientIP + ":" + c.GetHeader("User-Agent")
	}
	return clientIP
}

func isPrivateIP(value string) bool {
	ip := net.ParseIP(value)
	if ip == nil {
		return false
	}
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}
