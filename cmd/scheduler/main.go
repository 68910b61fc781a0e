package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/todoboard/backend/internal/cache"
	"github.com/todoboard/backend/internal/notifications"
	"github.com/todoboard/backend/internal/repositories"
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

	appLogger.Info("Starting Todoboard reminder scheduler")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	marker := cache.NewRedisCache(rdb, "todoboard:")
	if err := marker.Ping(context.Background()); err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	scanner := notifications.NewReminderScanner(
		repositories.NewTodoRepository(db),
		marker,
		notifications.NewProducer(asynqClient),
		cfg.Reminder.Window,
		appLogger,
	)

	c := cron.New()
	_, err = c.AddFunc(cfg.Reminder.Cron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		sent, err := scanner.Run(ctx)
		if err != nil {
			appLogger.Error("Reminder scan failed", zap.Error(err))
			return
		}
		appLogger.Info("Reminder scan finished", zap.Int("sent", sent))
	})
	if err != nil {
		appLogger.Fatal("Invalid DUE_REMINDER_CRON", zap.String("cron", cfg.Reminder.Cron), zap.Error(err))
	}

	c.Start()
	appLogger.Info("Scheduler started", zap.String("cron", cfg.Reminder.Cron), zap.Duration("window", cfg.Reminder.Window))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	appLogger.Info("Scheduler exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
