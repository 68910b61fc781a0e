// Package server assembles the HTTP router of the API
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/todoboard/backend/internal/handlers"
	"github.com/todoboard/backend/libs/auth/middleware"
	loggerMiddleware "github.com/todoboard/backend/libs/logger/middleware"
	sharedMiddleware "github.com/todoboard/backend/libs/middlewares"
	"go.uber.org/zap"
)

// APIPrefix is the path every API route lives under
const APIPrefix = "/api/v1"

// Handlers groups the route handlers mounted by NewRouter
type Handlers struct {
	Auth       *handlers.AuthHandler
	Todos      *handlers.TodoHandler
	Categories *handlers.CategoryHandler
	Users      *handlers.UserHandler
	Stats      *handlers.StatsHandler
	Health     *handlers.HealthHandler
}

// Options holds router level settings
type Options struct {
	AllowedOrigins []string
	// RateLimitPerMinute is the per-IP limit for all routes; 0 disables it
	RateLimitPerMinute int
	// LoginRateLimitPerMinute is the per-IP limit for register and login; 0 disables it
	LoginRateLimitPerMinute int
	MaxRequestSize          int64
	// SwaggerURL is where the UI loads doc.json from; empty disables the UI
	SwaggerURL string
}

// NewRouter builds the chi router with the shared middleware stack.
// Authenticate runs once per request; handlers read the claims from the context.
func NewRouter(verifier middleware.AccessTokenVerifier, h Handlers, opts Options, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(sharedMiddleware.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger))
	r.Use(sharedMiddleware.RecoveryMiddleware(logger))
	r.Use(sharedMiddleware.CORSMiddleware(opts.AllowedOrigins))
	if opts.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute))
	}
	if opts.MaxRequestSize > 0 {
		r.Use(sharedMiddleware.RequestSizeLimitMiddleware(opts.MaxRequestSize))
	}

	if opts.SwaggerURL != "" {
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(opts.SwaggerURL)))
	}

	var credentialLimiter func(http.Handler) http.Handler
	if opts.LoginRateLimitPerMinute > 0 {
		credentialLimiter = httprate.LimitByIP(opts.LoginRateLimitPerMinute, time.Minute)
	}

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(middleware.Authenticate(verifier))

		h.Auth.RegisterRoutes(r, credentialLimiter)
		h.Todos.RegisterRoutes(r)
		h.Categories.RegisterRoutes(r)
		h.Users.RegisterRoutes(r)
		h.Stats.RegisterRoutes(r)
		h.Health.RegisterRoutes(r)
	})

	return r
}
