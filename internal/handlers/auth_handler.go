package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/todoboard/backend/internal/models"
	"github.com/todoboard/backend/internal/services"
	"github.com/todoboard/backend/libs/auth/middleware"
	"github.com/todoboard/backend/libs/handlers"
	"go.uber.org/zap"
)

const (
	// RefreshCookieName is the name of the HTTP-only cookie carrying the refresh token
	RefreshCookieName = "refreshToken"
	refreshCookiePath = "/api/v1/auth"
)

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register validates the request, creates a USER and opens a session.
	//
	// If the request is invalid or the email is taken, the error will be returned together with "nil" value.
	Register(ctx context.Context, req *models.RegisterRequest) (*services.AuthResult, error)
	// Method Login verifies credentials and opens a session, revoking the previous refresh token.
	//
	// Unknown email and wrong password return the same error.
	Login(ctx context.Context, req *models.LoginRequest) (*services.AuthResult, error)
	// Method Refresh exchanges the stored refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (string, error)
	// Method Logout revokes the stored refresh token of the user.
	Logout(ctx context.Context, userID int) error
	// Method Me returns the user with the given ID.
	Me(ctx context.Context, userID int) (*models.User, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	handlers.BaseHandler
	authService  AuthService
	secureCookie bool
	cookieMaxAge time.Duration
}

// NewAuthHandler creates a new auth handler.
// secureCookie marks the refresh cookie Secure; cookieMaxAge is the refresh token lifetime.
func NewAuthHandler(authService AuthService, secureCookie bool, cookieMaxAge time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler:  handlers.BaseHandler{Logger: logger},
		authService:  authService,
		secureCookie: secureCookie,
		cookieMaxAge: cookieMaxAge,
	}
}

// RegisterRoutes registers all auth handler routes.
// credentialLimiter, when not nil, wraps register and login.
func (h *AuthHandler) RegisterRoutes(r chi.Router, credentialLimiter func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if credentialLimiter != nil {
				r.Use(credentialLimiter)
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})
}

// Register handles POST /auth/register
// @Summary Register a new user
// @Description Creates a USER account. Returns the user and an access token; the refresh token is set as an HTTP-only cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Register request"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid request data or email already in use"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	result, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.setRefreshCookie(w, result.RefreshToken)
	h.RespondJSON(w, http.StatusCreated, models.AuthResponse{User: result.User, AccessToken: result.AccessToken})
}

// Login handles POST /auth/login
// @Summary Login user
// @Description Authenticates with email and password. Any previously issued refresh token stops working.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid request data"
// @Failure 401 {object} handlers.ErrorResponse "Invalid email or password"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	result, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.setRefreshCookie(w, result.RefreshToken)
	h.RespondJSON(w, http.StatusOK, models.AuthResponse{User: result.User, AccessToken: result.AccessToken})
}

// Refresh handles POST /auth/refresh
// @Summary Refresh access token
// @Description Issues a new access token for the refresh token cookie. The refresh token is not rotated.
// @Tags auth
// @Produce json
// @Success 200 {object} models.RefreshResponse
// @Failure 401 {object} handlers.ErrorResponse "Refresh token missing, invalid or revoked"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var refreshToken string
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		refreshToken = cookie.Value
	}

	accessToken, err := h.authService.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.RefreshResponse{AccessToken: accessToken})
}

// Logout handles POST /auth/logout
// @Summary Logout user
// @Description Revokes the stored refresh token and expires the cookie.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} handlers.MessageResponse
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.RequireAuth(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	if err := h.authService.Logout(r.Context(), claims.UserID); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.clearRefreshCookie(w)
	h.RespondJSON(w, http.StatusOK, handlers.MessageResponse{Message: "logged out"})
}

// Me handles GET /auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.RequireAuth(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	user, err := h.authService.Me(r.Context(), claims.UserID)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(h.cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}
