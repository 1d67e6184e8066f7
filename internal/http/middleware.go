package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"blog-api/internal/apperr"
	"blog-api/internal/auth"
	"blog-api/internal/metrics"
)

// identityKey is the gin context key holding the authenticated auth.Identity.
const identityKey = "identity"

// authGate is the single check every protected route passes through. A
// request without a bearer token is rejected with 401; a token that fails
// verification is rejected with 403.
func (h *Handler) authGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			h.metrics.AuthEvent("gate", "token_missing")
			h.writeError(c, oops.Code(apperr.CodeTokenMissing).Errorf("token not provided"))
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil {
			h.metrics.AuthEvent("gate", strings.ToLower(apperr.Code(err)))
			h.writeError(c, err)
			return
		}

		h.metrics.AuthEvent("gate", "success")
		c.Set(identityKey, claims.Identity)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), claims.Identity))
		c.Next()
	}
}

func bearerToken(header string) string {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(raw, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
		})
		if identity, ok := c.Get(identityKey); ok {
			entry = entry.WithField("user_id", identity.(auth.Identity).UserID)
		}

		switch {
		case status >= 500:
			entry.Error("request completed")
		case status >= 400:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}
	}
}

func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
