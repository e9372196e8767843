package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cctv-report/backend/internal/metrics"
	"github.com/cctv-report/backend/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type authProvider interface {
	authService
	tokenParser
}

// RouterConfig - everything the HTTP surface depends on
type RouterConfig struct {
	Devices   deviceService
	Incidents incidentService
	Webhooks  webhookService
	// Auth is nil when authentication is disabled; guarded routes are then open.
	Auth authProvider

	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	AllowedOrigins     []string
	StaticDir          string
	LoginRatePerMinute int
	LoginBurst         int
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(cfg.Logger), MetricsMiddleware(cfg.Metrics))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(CORSMiddleware(cfg.AllowedOrigins, true))
	}

	RegisterRoutes(r, cfg)
	return r
}

// RegisterRoutes mounts the API on r.
func RegisterRoutes(r *gin.Engine, cfg RouterConfig) {
	r.GET("/ping", Ping)
	r.GET("/openapi.json", OpenAPIDoc)
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(cfg.Gatherer)))
	}
	if cfg.StaticDir == "" {
		info := model.ServiceInfo{Service: "cctv-report", AuthEnabled: cfg.Auth != nil}
		if cfg.Incidents != nil {
			info.Timezone = cfg.Incidents.Location().String()
		}
		r.GET("/", Root(info))
	} else {
		r.NoRoute(staticFallback(cfg.StaticDir))
	}

	guard := func(c *gin.Context) { c.Next() }
	v1 := r.Group("/api/v1")

	if cfg.Auth != nil {
		guard = AuthMiddleware(cfg.Auth)

		authHandler := NewAuthHandler(cfg.Auth)
		auth := v1.Group("/auth")
		auth.POST("/login", RateLimitMiddleware(cfg.LoginRatePerMinute, cfg.LoginBurst), authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", guard, authHandler.Me)
		auth.PUT("/password", guard, authHandler.ChangePassword)
	}

	devices := NewDeviceHandler(cfg.Devices)
	v1.GET("/devices", devices.ListDevices)
	v1.GET("/devices/defaults", devices.ListDefaultDevices)
	v1.POST("/devices/autofill", devices.Autofill)
	v1.POST("/devices", guard, devices.SaveDevice)
	v1.PUT("/devices/:id", guard, devices.UpdateDevice)
	v1.DELETE("/devices/:id", guard, devices.DeleteDevice)
	v1.POST("/devices/sync", guard, devices.SyncDevices)
	v1.POST("/devices/sync/defaults", guard, devices.SyncConfiguredDefaults)

	incidents := NewIncidentHandler(cfg.Incidents)
	v1.GET("/incidents", incidents.ListIncidents)
	v1.GET("/incidents/export", incidents.ExportIncidents)
	v1.GET("/incidents/:id", incidents.GetIncident)
	v1.POST("/incidents", incidents.CreateIncident)
	v1.PUT("/incidents/:id", incidents.UpdateIncident)
	v1.DELETE("/incidents/:id", incidents.DeleteIncident)
	v1.GET("/options", incidents.Options)

	webhooks := NewWebhookHandler(cfg.Webhooks)
	settings := v1.Group("/settings", guard)
	settings.GET("/webhooks", webhooks.ListWebhooks)
	settings.POST("/webhooks", webhooks.CreateWebhook)
	settings.GET("/webhooks/:id", webhooks.GetWebhook)
	settings.PUT("/webhooks/:id", webhooks.UpdateWebhook)
	settings.DELETE("/webhooks/:id", webhooks.DeleteWebhook)
	settings.POST("/webhooks/:id/test", webhooks.TestWebhook)
}

// staticFallback serves files from dir and falls back to index.html so the
// single-page UI can route on the client. Unknown API paths stay JSON 404s.
func staticFallback(dir string) gin.HandlerFunc {
	index := filepath.Join(dir, "index.html")
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		file := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+path)))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(index)
	}
}
