// Package main runs the gate check-in HTTP server with the live scan feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yatra-gate/backend/config"
	"github.com/yatra-gate/backend/internal/auth"
	"github.com/yatra-gate/backend/internal/emaillogs"
	"github.com/yatra-gate/backend/internal/issuance"
	"github.com/yatra-gate/backend/internal/livefeed"
	"github.com/yatra-gate/backend/internal/mailer"
	"github.com/yatra-gate/backend/internal/middleware"
	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/internal/overrides"
	"github.com/yatra-gate/backend/internal/registrations"
	"github.com/yatra-gate/backend/internal/scan"
	"github.com/yatra-gate/backend/internal/tickets"
	"github.com/yatra-gate/backend/pkg/database"
	"github.com/yatra-gate/backend/pkg/metrics"
	"github.com/yatra-gate/backend/pkg/queue"
	"github.com/yatra-gate/backend/pkg/redis"
	"github.com/yatra-gate/backend/pkg/response"
	"github.com/yatra-gate/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	logger.Info("gate configured",
		zap.String("gate", cfg.Gate.Type),
		zap.String("display", cfg.Gate.DisplayName()),
		zap.String("device", cfg.Gate.ScannerDevice),
	)

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var qrStore issuance.ObjectStore
	if cfg.Email.QRImageMode == config.QRImageS3 {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			QRBucket:             cfg.AWS.QRBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Fatal("s3", zap.Error(err))
		}
		qrStore = s3Client
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	adminChecker := auth.NewAdminChecker(jwtService, auth.NewPostgresAdminLookup(pool), cfg.Admin.MasterAdminEmail)
	authHandler := auth.NewHandler(jwtService, cfg.Gate, logger)

	// Live feed
	feedPubSub := livefeed.NewRedisPubSub(rdb.Client, logger)
	hub := livefeed.NewHub(logger, feedPubSub, feedPubSub)

	// Tickets
	ticketRepo := tickets.NewRepository(pool)
	ticketHandler := tickets.NewHandler(tickets.NewService(ticketRepo, logger))
	checkTicketSchema(ctx, ticketRepo, logger)

	// Scanning
	scanSvc := scan.NewService(scan.NewPostgresValidator(pool), ticketRepo, hub, logger)
	scanHandler := scan.NewHandler(scanSvc, scan.NewBusyGuard(rdb.Client), logger)

	// Admin overrides
	overrideHandler := overrides.NewHandler(overrides.NewService(overrides.NewPostgresProcedures(pool), logger))

	// Issuance and email
	registrationRepo := registrations.NewRepository(pool)
	registrationHandler := registrations.NewHandler(registrationRepo, logger)
	emailEventRepo := emaillogs.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	emailEventHandler := emaillogs.NewHandler(emailEventRepo, jobQueue, logger)

	mail := mailer.New(cfg.Email, logger)
	qr := issuance.NewQRRenderer(cfg.Email.QRImageMode, qrStore)
	batch := issuance.NewBatchIssuer(registrationRepo, ticketRepo, emailEventRepo, qr, mail, logger)
	confirm := issuance.NewRegistrationMailer(registrationRepo, ticketRepo, qr, mail, logger)
	issuanceHandler := issuance.NewHandler(batch, confirm)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok", "gate": cfg.Gate.Type, "database": true, "redis": rdb.Healthy(c.Request.Context())}
		if err := pool.Ping(c.Request.Context()); err != nil {
			status["database"] = false
			status["status"] = "degraded"
		}
		if status["redis"] == false {
			status["status"] = "degraded"
		}
		response.OK(c, status)
	})
	router.GET("/metrics", metrics.Handler())

	// Public
	router.POST("/auth/gate", authHandler.GateLogin)
	router.POST("/registrations/email", issuanceHandler.Confirm)

	// Gate session (scanner devices)
	gate := router.Group("")
	gate.Use(middleware.GateSession(jwtService))
	{
		gate.POST("/scan", scanHandler.Verify)
		gate.POST("/scan/qr", scanHandler.VerifyQR)
		gate.POST("/scan/code", scanHandler.VerifyCode)
		gate.GET("/tickets/search", ticketHandler.Search)
		gate.GET("/tickets/:id", ticketHandler.Get)

		admin := gate.Group("/admin")
		admin.Use(middleware.AdminPin(cfg.Admin.Pin))
		{
			admin.POST("/tickets/:id/force-allow", overrideHandler.ForceAllow)
			admin.POST("/tickets/:id/reset", overrideHandler.Reset)
			admin.GET("/tickets/:id/logs", overrideHandler.Logs)
		}
	}

	// Admin bearer (hosted auth tokens)
	issuers := router.Group("")
	issuers.Use(middleware.RequireAdmin(adminChecker, logger))
	{
		issuers.POST("/tickets/issue-batch", issuanceHandler.IssueBatch)
		issuers.GET("/registrations/pending", registrationHandler.ListPending)
		issuers.GET("/registrations/:id", registrationHandler.Get)
		issuers.GET("/registrations/:id/email-events", emailEventHandler.ListByRegistration)
		issuers.POST("/registrations/:id/email/resend", emailEventHandler.Resend)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws/feed", livefeed.ServeWs(hub, jwtService, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// checkTicketSchema warns when the live tickets table does not use the column
// naming the repository reads.
func checkTicketSchema(ctx context.Context, repo *tickets.Repository, logger *zap.Logger) {
	cols, err := repo.Columns(ctx)
	if err != nil {
		logger.Warn("ticket schema check failed", zap.Error(err))
		return
	}
	report := models.ReconcileTicketColumns(cols)
	if !report.Canonical() {
		logger.Warn("ticket schema needs attention", zap.Any("report", report))
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
