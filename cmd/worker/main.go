// Package main runs the background job worker (ticket email resends).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yatra-gate/backend/config"
	"github.com/yatra-gate/backend/internal/emaillogs"
	"github.com/yatra-gate/backend/internal/issuance"
	"github.com/yatra-gate/backend/internal/mailer"
	"github.com/yatra-gate/backend/internal/registrations"
	"github.com/yatra-gate/backend/internal/tickets"
	"github.com/yatra-gate/backend/internal/worker"
	"github.com/yatra-gate/backend/pkg/database"
	"github.com/yatra-gate/backend/pkg/queue"
	"github.com/yatra-gate/backend/pkg/redis"
	"github.com/yatra-gate/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

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

	mail := mailer.New(cfg.Email, logger)
	if !mail.Configured() {
		logger.Warn("EMAIL_USER/EMAIL_PASS not set, resends will only be logged")
	}
	batch := issuance.NewBatchIssuer(
		registrations.NewRepository(pool),
		tickets.NewRepository(pool),
		emaillogs.NewRepository(pool),
		issuance.NewQRRenderer(cfg.Email.QRImageMode, qrStore),
		mail,
		logger,
	)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewEmailProcessor(batch, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
