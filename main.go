package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cctv-report/backend/internal/config"
	"github.com/cctv-report/backend/internal/db"
	"github.com/cctv-report/backend/internal/defaults"
	"github.com/cctv-report/backend/internal/handler"
	"github.com/cctv-report/backend/internal/logging"
	"github.com/cctv-report/backend/internal/metrics"
	"github.com/cctv-report/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// @title CCTV Report API
// @version 1.0
// @description CCTV downtime incident log and device registry.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Log)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	loc, _ := cfg.Location()
	authEnabled, _ := cfg.Auth.IsEnabled()
	loginRate, loginBurst, _ := cfg.Auth.LoginLimit()

	catalog, err := defaults.Load(cfg.Report.DefaultDevicesFile)
	if err != nil {
		logger.Fatal("failed to load default devices", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	notifier := service.NewWebhookDeliveryService(store, nil, logger.Named("webhook"), m)
	routerCfg := handler.RouterConfig{
		Devices:            service.NewDeviceService(store, catalog, logger.Named("devices"), m),
		Incidents:          service.NewIncidentService(store, loc, cfg.Report.AlertSources, notifier, logger.Named("incidents")),
		Webhooks:           service.NewWebhookService(store, notifier),
		Logger:             logger.Named("http"),
		Metrics:            m,
		Gatherer:           registry,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		StaticDir:          cfg.Server.StaticDir,
		LoginRatePerMinute: loginRate,
		LoginBurst:         loginBurst,
	}

	if authEnabled {
		authService, err := service.NewAuthService(store, cfg.Auth, logger.Named("auth"))
		if err != nil {
			logger.Fatal("failed to configure auth", zap.Error(err))
		}
		if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			logger.Fatal("failed to bootstrap admin account", zap.Error(err))
		}
		routerCfg.Auth = authService
	} else {
		logger.Warn("authentication disabled: device and settings changes are open")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()
	logger.Info("CCTV report server ready",
		zap.String("addr", cfg.Server.Addr),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("timezone", loc.String()),
		zap.Int("default_devices", len(catalog)),
	)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("CCTV report server stopped")
}
