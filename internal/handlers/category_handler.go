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

// CategoryService is the interface that wraps methods for category business logic.
type CategoryService interface {
	// Method List returns all categories ordered by name.
	List(ctx context.Context) ([]models.Category, error)
	// Method Get returns a category by ID.
	Get(ctx context.Context, id int) (*models.Category, error)
	// Method Create creates a category.
	Create(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error)
	// Method Update applies a partial update; a null color clears it.
	Update(ctx context.Context, id int, req *models.UpdateCategoryRequest) (*models.Category, error)
	// Method Delete deletes a category; its todos become uncategorized.
	Delete(ctx context.Context, id int) error
}

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	handlers.BaseHandler
	categoryService CategoryService
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		BaseHandler:     handlers.BaseHandler{Logger: logger},
		categoryService: categoryService,
	}
}

// RegisterRoutes registers all category handler routes
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Category
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Router /categories [get]
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.RequireAuth(r.Context()); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, categories)
}

// Get handles GET /categories/{id}
// @Summary Get category
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} models.Category
// @Failure 400 {object} handlers.ErrorResponse "Invalid id"
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 404 {object} handlers.ErrorResponse "Category not found"
// @Router /categories/{id} [get]
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.RequireAuth(r.Context()); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	id, err := h.ParseID(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	category, err := h.categoryService.Get(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, category)
}

// Create handles POST /categories
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateCategoryRequest true "Category"
// @Success 201 {object} models.Category
// @Failure 400 {object} handlers.ErrorResponse "Invalid request data"
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 403 {object} handlers.ErrorResponse "Admin access required"
// @Router /categories [post]
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.RequireAdmin(r.Context()); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	var req models.CreateCategoryRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	category, err := h.categoryService.Create(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, category)
}

// Update handles PATCH /categories/{id}
// @Summary Update category
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Param request body models.UpdateCategoryRequest true "Fields to change"
// @Success 200 {object} models.Category
// @Failure 400 {object} handlers.ErrorResponse "Invalid request data"
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 403 {object} handlers.ErrorResponse "Admin access required"
// @Failure 404 {object} handlers.ErrorResponse "Category not found"
// @Router /categories/{id} [patch]
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.RequireAdmin(r.Context()); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	id, err := h.ParseID(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	var req models.UpdateCategoryRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	category, err := h.categoryService.Update(r.Context(), id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, category)
}

// Delete handles DELETE /categories/{id}
// @Summary Delete category
// @Description Todos in the category become uncategorized.
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 200 {object} handlers.MessageResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid id"
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 403 {object} handlers.ErrorResponse "Admin access required"
// @Failure 404 {object} handlers.ErrorResponse "Category not found"
// @Router /categories/{id} [delete]
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.RequireAdmin(r.Context()); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	id, err := h.ParseID(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	if err := h.categoryService.Delete(r.Context(), id); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, handlers.MessageResponse{Message: "category deleted"})
}
