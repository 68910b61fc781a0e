package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/todoboard/backend/internal/notifications"
	"github.com/todoboard/backend/libs/config"
	"github.com/todoboard/backend/libs/logger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logging.Level, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Todoboard notification worker")

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Queues: map[string]int{
				notifications.Queue: 1,
			},
			Logger: appLogger.Sugar(),
		},
	)

	mailer := notifications.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	handler := notifications.NewHandler(mailer, appLogger)

	mux := asynq.NewServeMux()
	handler.Register(mux)

	if err := srv.Start(mux); err != nil {
		appLogger.Fatal("Failed to start worker", zap.Error(err))
	}

	appLogger.Info("Worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down worker...")
	srv.Shutdown()
	appLogger.Info("Worker exited")
}
