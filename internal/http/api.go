package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"blog-api/internal/auth"
	"blog-api/internal/metrics"
	"blog-api/internal/service"
)

// TokenVerifier validates a session token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Config carries the transport settings the handler needs.
type Config struct {
	CORSOrigins    []string
	UploadDir      string
	MaxUploadBytes int64
	TokenTTL       time.Duration
	SecureCookie   bool

	Logger   logrus.FieldLogger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	accounts service.AccountService
	posts    service.PostService
	tokens   TokenVerifier
	cfg      Config
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
}

func NewHandler(accounts service.AccountService, posts service.PostService, tokens TokenVerifier, cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = auth.SessionTTL
	}
	return &Handler{
		accounts: accounts,
		posts:    posts,
		tokens:   tokens,
		cfg:      cfg,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger))
	if h.metrics != nil {
		router.Use(metricsMiddleware(h.metrics))
	}
	router.Use(corsMiddleware(h.cfg.CORSOrigins))

	router.POST("/signup", h.signup)
	router.POST("/login", h.login)

	router.GET("/posts", h.listPosts)
	router.GET("/post/:id", h.getPost)
	router.GET("/profile/:userId", h.profilePosts)

	protected := router.Group("")
	protected.Use(h.authGate())
	{
		protected.POST("/posts", h.createPost)
		protected.PUT("/post/:id", h.updatePost)
		protected.DELETE("/post/:id", h.deletePost)
	}

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
	if h.cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.cfg.Gatherer, promhttp.HandlerOpts{})))
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			if _, ok := allowed[origin]; ok {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
