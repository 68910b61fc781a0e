package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	_ "github.com/todoboard/backend/docs"
	"github.com/todoboard/backend/internal/cache"
	"github.com/todoboard/backend/internal/handlers"
	"github.com/todoboard/backend/internal/notifications"
	"github.com/todoboard/backend/internal/repositories"
	"github.com/todoboard/backend/internal/server"
	"github.com/todoboard/backend/internal/services"
	"github.com/todoboard/backend/libs/auth/service"
	"github.com/todoboard/backend/libs/config"
	"github.com/todoboard/backend/libs/logger"
	"github.com/todoboard/backend/libs/validation"
	"go.uber.org/zap"
)

// @title Todoboard API
// @version 1.0
// @description Multi-user todo tracker with JWT authentication

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
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

	appLogger.Info("Starting Todoboard API")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	statsCache := cache.NewRedisCache(rdb, "todoboard:")
	if err := statsCache.Ping(context.Background()); err != nil {
		// Stats fall back to the database while Redis is away
		appLogger.Warn("Redis is unreachable", zap.Error(err))
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	codec := service.NewTokenCodec(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	validator := validation.New()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	todoRepo := repositories.NewTodoRepository(db)
	statsRepo := repositories.NewStatsRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, codec, validator, appLogger)
	todoService := services.NewTodoService(todoRepo, categoryRepo, userRepo, notifications.NewProducer(asynqClient), validator, appLogger)
	categoryService := services.NewCategoryService(categoryRepo, validator)
	userService := services.NewUserService(userRepo, validator, appLogger)
	statsService := services.NewStatsService(statsRepo, statsCache, cfg.Stats.CacheTTL, appLogger)

	if _, err := authService.EnsureAdmin(context.Background(), cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		appLogger.Fatal("Failed to bootstrap admin account", zap.Error(err))
	}

	// Setup router
	router := server.NewRouter(codec, server.Handlers{
		Auth:       handlers.NewAuthHandler(authService, cfg.IsProduction(), cfg.JWT.RefreshTokenExpiry, appLogger),
		Todos:      handlers.NewTodoHandler(todoService, appLogger),
		Categories: handlers.NewCategoryHandler(categoryService, appLogger),
		Users:      handlers.NewUserHandler(userService, appLogger),
		Stats:      handlers.NewStatsHandler(statsService, appLogger),
		Health:     handlers.NewHealthHandler(db, appLogger),
	}, server.Options{
		AllowedOrigins:          cfg.CORS.AllowedOrigins,
		RateLimitPerMinute:      cfg.RateLimit.PerMinute,
		LoginRateLimitPerMinute: cfg.RateLimit.LoginPerMinute,
		MaxRequestSize:          1 << 20, // 1MB
		SwaggerURL:              fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port),
	}, appLogger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	appLogger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations applies the schema under migrations/
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "todoboard_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Running from cmd/api
		if _, err := os.Stat("../../migrations"); err == nil {
			migrationPath = "file://../../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
