// Package handlers is the HTTP surface of the telemetry dashboard: ingest,
// chart and KPI queries, XLSX export, session auth, account administration
// and the websocket upgrade into the hub.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wnusair/miami-MTI/internal/cache"
	"github.com/wnusair/miami-MTI/internal/classify"
	"github.com/wnusair/miami-MTI/internal/hub"
	"github.com/wnusair/miami-MTI/internal/metrics"
	"github.com/wnusair/miami-MTI/internal/permissions"
	"github.com/wnusair/miami-MTI/internal/store"
	"github.com/wnusair/miami-MTI/pkg/auth"
	"github.com/wnusair/miami-MTI/pkg/logging"
)

// Handlers carries the wired dependencies for every route.
type Handlers struct {
	logger     logging.Logger
	readings   *store.ReadingStore
	users      *store.UserStore
	gate       *permissions.Gate
	classifier classify.Classifier
	hub        *hub.Hub
	cache      *cache.ReadingCache // nil when Redis is not configured
	metrics    *metrics.Metrics    // nil in tests
	jwtSecret  []byte
}

// Config collects the handler dependencies.
type Config struct {
	Logger     logging.Logger
	Readings   *store.ReadingStore
	Users      *store.UserStore
	Gate       *permissions.Gate
	Classifier classify.Classifier
	Hub        *hub.Hub
	Cache      *cache.ReadingCache
	Metrics    *metrics.Metrics
	JWTSecret  []byte
}

// New creates the handler set.
func New(cfg Config) *Handlers {
	return &Handlers{
		logger:     cfg.Logger,
		readings:   cfg.Readings,
		users:      cfg.Users,
		gate:       cfg.Gate,
		classifier: cfg.Classifier,
		hub:        cfg.Hub,
		cache:      cfg.Cache,
		metrics:    cfg.Metrics,
		jwtSecret:  cfg.JWTSecret,
	}
}

// RegisterRoutes mounts every route on the router. Ingest and the websocket
// upgrade are open; everything else sits behind JWT auth, with per-route
// capability gates.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	router.GET("/ws", func(c *gin.Context) {
		h.hub.ServeWS(c.Writer, c.Request)
	})

	api := router.Group("/api")
	api.POST("/ingest", h.Ingest)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)

	authed := api.Group("")
	authed.Use(auth.JWTAuthMiddleware(h.jwtSecret))

	authed.GET("/auth/me", h.Me)
	authed.GET("/sensor-data", h.gate.Require(permissions.CapViewPanel1), h.GetSensorData)
	authed.GET("/sensor-data/latest", h.gate.Require(permissions.CapViewPanel1), h.GetLatestReadings)
	authed.GET("/sensor-data/stats", h.gate.Require(permissions.CapViewPanel2), h.GetStats)
	authed.GET("/export", h.gate.Require(permissions.CapExportData), h.Export)

	admin := authed.Group("/admin", h.gate.Require(permissions.CapManageUsers))
	admin.GET("/users", h.ListUsers)
	admin.POST("/users", h.CreateUser)
	admin.DELETE("/users/:id", h.DeleteUser)
	admin.GET("/roles", h.ListRoles)
	admin.GET("/permissions", h.GetRolePermissions)
	admin.PUT("/permissions/:role", h.UpdateRolePermissions)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}
