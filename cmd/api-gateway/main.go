package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/clearhub-ng/clearance-api/api/swagger"
	"github.com/clearhub-ng/clearance-api/internal/handler"
	"github.com/clearhub-ng/clearance-api/internal/middleware"
	"github.com/clearhub-ng/clearance-api/internal/models"
	"github.com/clearhub-ng/clearance-api/internal/policy"
	"github.com/clearhub-ng/clearance-api/internal/registry"
	"github.com/clearhub-ng/clearance-api/internal/repository"
	"github.com/clearhub-ng/clearance-api/internal/service"
	"github.com/clearhub-ng/clearance-api/pkg/cache"
	"github.com/clearhub-ng/clearance-api/pkg/config"
	"github.com/clearhub-ng/clearance-api/pkg/database"
	"github.com/clearhub-ng/clearance-api/pkg/jobs"
	"github.com/clearhub-ng/clearance-api/pkg/logger"
	corsmiddleware "github.com/clearhub-ng/clearance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/clearhub-ng/clearance-api/pkg/middleware/requestid"
	"github.com/clearhub-ng/clearance-api/pkg/storage"
)

// @title University Clearance Portal API
// @version 1.0.0
// @description Final-year clearance workflow: ordered office approvals unlocking the NYSC form and ID card.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck
	sugar := logr.Sugar()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		sugar.Warnw("redis unavailable, statistics caching disabled", "error", err)
		redisClient = nil
	}

	officeRegistry, err := registry.Load(cfg.Clearance.OfficesFile)
	if err != nil {
		sugar.Fatalw("failed to load office registry", "error", err)
	}
	sugar.Infow("office registry loaded", "offices", officeRegistry.Count())

	userRepo := repository.NewUserRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "clearance-api",
	})

	notificationSvc := service.NewNotificationService(notificationRepo, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	}, logr)

	accessPolicy := policy.New(officeRegistry)
	clearanceSvc := service.NewClearanceService(
		submissionRepo,
		requestRepo,
		officeRegistry,
		accessPolicy,
		userRepo,
		logr,
		service.WithNotifier(notificationSvc),
		service.WithOfficerDirectory(userRepo),
		service.WithStatsCache(cacheRepo, cfg.Clearance.StatsCacheTTL),
		service.WithWorkflowMetrics(metricsSvc),
		service.WithMaxDocuments(cfg.Clearance.MaxDocuments),
	)

	documentStore, err := storage.NewLocalStorage(cfg.Documents.BaseDir)
	if err != nil {
		sugar.Fatalw("failed to init document storage", "error", err)
	}
	signingSecret := cfg.Documents.SignedSecret
	if signingSecret == "" {
		signingSecret = cfg.JWT.Secret
	}
	documentSigner := storage.NewSignedURLSigner(signingSecret, cfg.Documents.SignedTTL)

	authHandler := handler.NewAuthHandler(authSvc)
	documentHandler := handler.NewDocumentHandler(documentStore, documentSigner, cfg.Documents.MaxUploadMB)
	clearanceHandler := handler.NewClearanceHandler(clearanceSvc, userRepo)
	officeHandler := handler.NewOfficeHandler(officeRegistry)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)

	queueCtx, queueCancel := context.WithCancel(context.Background())
	defer queueCancel()
	notificationSvc.Start(queueCtx)
	defer notificationSvc.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc, userRepo))
	{
		authed.POST("/auth/logout", authHandler.Logout)
		authed.POST("/auth/change-password", authHandler.ChangePassword)

		authed.GET("/offices", officeHandler.List)
		authed.GET("/offices/:id", officeHandler.Get)

		authed.GET("/notifications", notificationHandler.List)
		authed.POST("/notifications/:id/read", notificationHandler.MarkRead)

		authed.GET("/clearance/documents/:token", documentHandler.Download)

		student := authed.Group("/clearance")
		student.Use(middleware.RequireRoles(models.RoleStudent))
		{
			student.POST("/submissions", clearanceHandler.Submit)
			student.POST("/documents", documentHandler.Upload)
			student.GET("/status", clearanceHandler.Status)
			student.GET("/nysc-form", clearanceHandler.NYSCForm)
		}

		officer := authed.Group("/clearance")
		officer.Use(middleware.RequireRoles(models.RoleOfficer))
		{
			officer.POST("/submissions/:id/approve", clearanceHandler.Approve)
			officer.POST("/submissions/:id/reject", clearanceHandler.Reject)
		}

		offices := authed.Group("/clearance/offices")
		offices.Use(middleware.RequireRoles(models.RoleOfficer, models.RoleOverseer, models.RoleAdmin, models.RoleStudentAffair))
		{
			offices.GET("/:officeID/pending", clearanceHandler.OfficePending)
			offices.GET("/:officeID/submissions", clearanceHandler.OfficeSubmissions)
			offices.GET("/:officeID/statistics", clearanceHandler.OfficeStatistics)
		}

		oversight := authed.Group("/clearance")
		oversight.Use(middleware.RequireRoles(models.RoleOverseer, models.RoleAdmin, models.RoleStudentAffair))
		{
			oversight.GET("/submissions", clearanceHandler.GlobalSubmissions)
			oversight.GET("/requests", clearanceHandler.GlobalRequests)
			oversight.GET("/requests/export", clearanceHandler.ExportRequests)
			oversight.GET("/dashboard", clearanceHandler.Dashboard)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sugar.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
}
