package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/todoboard/backend/internal/models"
	"github.com/todoboard/backend/libs/auth/middleware"
	"github.com/todoboard/backend/libs/handlers"
	"go.uber.org/zap"
)

// UserService is the interface that wraps methods for user administration.
type UserService interface {
	// Method List returns all users.
	List(ctx context.Context) ([]models.User, error)
	// Method Get returns a user by ID.
	Get(ctx context.Context, id int) (*models.User, error)
	// Method UpdateRole changes the role of targetID on behalf of actorID.
	//
	// Changing one's own role or demoting the last admin is forbidden.
	UpdateRole(ctx context.Context, actorID, targetID int, req *models.UpdateUserRoleRequest) (*models.User, error)
	// Method Delete removes targetID on behalf of actorID.
	//
	// Deleting oneself or the last admin is forbidden.
	Delete(ctx context.Context, actorID, targetID int) error
}

// UserHandler handles user administration HTTP requests
type UserHandler struct {
	handlers.BaseHandler
	userService UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: handlers.BaseHandler{Logger: logger},
		userService: userService,
	}
}

// RegisterRoutes registers all user handler routes
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.UpdateRole)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /users
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 403 {object} handlers.ErrorResponse "Admin access required"
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.RequireAdmin(r.Context()); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	users, err := h.userService.List(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, users)
}

// Get handles GET /users/{id}
// @Summary Get user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 400 {object} handlers.ErrorResponse "Invalid id"
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 403 {object} handlers.ErrorResponse "Admin access required"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.RequireAdmin(r.Context()); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	id, err := h.ParseID(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, user)
}

// UpdateRole handles PATCH /users/{id}
// @Summary Change user role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body models.UpdateUserRoleRequest true "New role"
// @Success 200 {object} models.User
// @Failure 400 {object} handlers.ErrorResponse "Invalid request data"
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 403 {object} handlers.ErrorResponse "Admin access required, own role or last admin"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /users/{id} [patch]
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.RequireAdmin(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	id, err := h.ParseID(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	var req models.UpdateUserRoleRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	user, err := h.userService.UpdateRole(r.Context(), claims.UserID, id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /users/{id}
// @Summary Delete user
// @Description Removes the todos the user created and unassigns the rest.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} handlers.MessageResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid id"
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 403 {object} handlers.ErrorResponse "Admin access required, own account or last admin"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.RequireAdmin(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	id, err := h.ParseID(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	if err := h.userService.Delete(r.Context(), claims.UserID, id); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, handlers.MessageResponse{Message: "user deleted"})
}
