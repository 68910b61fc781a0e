package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/todoboard/backend/internal/models"
	"github.com/todoboard/backend/internal/services"
	"github.com/todoboard/backend/libs/apperr"
	"github.com/todoboard/backend/libs/auth/middleware"
	"github.com/todoboard/backend/libs/handlers"
	"github.com/todoboard/backend/libs/validation"
	"go.uber.org/zap"
)

// TodoService is the interface that wraps methods for todo business logic.
type TodoService interface {
	// Method List returns a page of todos matching the filter together with pagination metadata.
	List(ctx context.Context, filter models.TodoFilter) (*models.TodoListResponse, error)
	// Method Get returns a todo by ID.
	//
	// If todo with such ID does not exist, a not found error will be returned together with "nil" value.
	Get(ctx context.Context, id int) (*models.Todo, error)
	// Method Create creates a todo owned by creatorID.
	//
	// If the request is invalid or references a missing category or user, a validation error will be returned.
	Create(ctx context.Context, creatorID int, req *models.CreateTodoRequest) (*models.Todo, error)
	// Method Update applies a partial update; fields sent as null are cleared.
	Update(ctx context.Context, id int, req *models.UpdateTodoRequest) (*models.Todo, error)
	// Method Delete deletes a todo.
	Delete(ctx context.Context, id int) error
}

// TodoHandler handles todo-related HTTP requests
type TodoHandler struct {
	handlers.BaseHandler
	todoService TodoService
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(todoService TodoService, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{
		BaseHandler: handlers.BaseHandler{Logger: logger},
		todoService: todoService,
	}
}

// RegisterRoutes registers all todo handler routes
func (h *TodoHandler) RegisterRoutes(r chi.Router) {
	r.Route("/todos", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /todos
// @Summary List todos
// @Description Returns todos ordered by creation time, newest first.
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter" Enums(TODO, IN_PROGRESS, DONE, ARCHIVED)
// @Param priority query string false "Priority filter" Enums(LOW, MEDIUM, HIGH)
// @Param categoryId query int false "Category ID"
// @Param assignedToId query int false "Assignee ID"
// @Param excludeAssignedToId query int false "Exclude todos assigned to this user"
// @Param search query string false "Case-insensitive search in title and description"
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Success 200 {object} models.TodoListResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid filter"
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Router /todos [get]
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.RequireAuth(r.Context()); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	filter, err := parseTodoFilter(r.URL.Query())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	result, err := h.todoService.List(r.Context(), filter)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}

// Get handles GET /todos/{id}
// @Summary Get todo
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Todo ID"
// @Success 200 {object} models.Todo
// @Failure 400 {object} handlers.ErrorResponse "Invalid id"
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 404 {object} handlers.ErrorResponse "Todo not found"
// @Router /todos/{id} [get]
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.RequireAuth(r.Context()); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	id, err := h.ParseID(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	todo, err := h.todoService.Get(r.Context(), id)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, todo)
}

// Create handles POST /todos
// @Summary Create todo
// @Description Admin only. Status defaults to TODO and priority to MEDIUM.
// @Tags todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateTodoRequest true "Todo"
// @Success 201 {object} models.Todo
// @Failure 400 {object} handlers.ErrorResponse "Invalid request data"
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 403 {object} handlers.ErrorResponse "Admin access required"
// @Router /todos [post]
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.RequireAdmin(r.Context())
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	var req models.CreateTodoRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	todo, err := h.todoService.Create(r.Context(), claims.UserID, &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, todo)
}

// Update handles PATCH /todos/{id}
// @Summary Update todo
// @Description Admin only. Partial update; description, dueDate, categoryId and assignedToId accept null to clear.
// @Tags todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Todo ID"
// @Param request body models.UpdateTodoRequest true "Fields to change"
// @Success 200 {object} models.Todo
// @Failure 400 {object} handlers.ErrorResponse "Invalid request data"
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 403 {object} handlers.ErrorResponse "Admin access required"
// @Failure 404 {object} handlers.ErrorResponse "Todo not found"
// @Router /todos/{id} [patch]
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.RequireAdmin(r.Context()); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	id, err := h.ParseID(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	var req models.UpdateTodoRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	todo, err := h.todoService.Update(r.Context(), id, &req)
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, todo)
}

// Delete handles DELETE /todos/{id}
// @Summary Delete todo
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Todo ID"
// @Success 200 {object} handlers.MessageResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid id"
// @Failure 401 {object} handlers.ErrorResponse "Authentication required"
// @Failure 403 {object} handlers.ErrorResponse "Admin access required"
// @Failure 404 {object} handlers.ErrorResponse "Todo not found"
// @Router /todos/{id} [delete]
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.RequireAdmin(r.Context()); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	id, err := h.ParseID(r, "id")
	if err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	if err := h.todoService.Delete(r.Context(), id); err != nil {
		h.RespondServiceError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, handlers.MessageResponse{Message: "todo deleted"})
}

// parseTodoFilter reads the list filters from the query string.
// Enum values are checked by the service; numbers are checked here.
func parseTodoFilter(query url.Values) (models.TodoFilter, error) {
	filter := models.TodoFilter{
		Search: query.Get("search"),
		Page:   services.DefaultPage,
		Limit:  services.DefaultPageLimit,
	}
	details := map[string]string{}

	if v := query.Get("status"); v != "" {
		status := models.TodoStatus(v)
		filter.Status = &status
	}
	if v := query.Get("priority"); v != "" {
		priority := models.TodoPriority(v)
		filter.Priority = &priority
	}

	filter.CategoryID = parseIDParam(query, "categoryId", details)
	filter.AssignedToID = parseIDParam(query, "assignedToId", details)
	filter.ExcludeAssignedToID = parseIDParam(query, "excludeAssignedToId", details)

	if v := query.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			details["page"] = "must be an integer"
		}
		filter.Page = page
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			details["limit"] = "must be an integer"
		}
		filter.Limit = limit
	}

	if len(details) > 0 {
		return filter, apperr.Validation(validation.Message, details)
	}
	return filter, nil
}

func parseIDParam(query url.Values, name string, details map[string]string) *int {
	v := query.Get(name)
	if v == "" {
		return nil
	}
	id, err := strconv.Atoi(v)
	if err != nil || id <= 0 {
		details[name] = "must be a positive integer"
		return nil
	}
	return &id
}
