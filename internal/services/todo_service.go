package services

import (
	"context"
	"math"
	"strings"

	"github.com/todoboard/backend/internal/models"
	"github.com/todoboard/backend/libs/apperr"
	"github.com/todoboard/backend/libs/validation"
	"go.uber.org/zap"
)

// Pagination bounds of the todo list
const (
	DefaultPage      = 1
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

const (
	statusTag   = "oneof=TODO IN_PROGRESS DONE ARCHIVED"
	priorityTag = "oneof=LOW MEDIUM HIGH"
	titleTag    = "min=1,max=200"
	idTag       = "gt=0"
)

// TodoRepository is the interface that wraps methods for Todo table data access
type TodoRepository interface {
	// Method Create inserts a new todo; its ID and timestamps are set on success.
	Create(ctx context.Context, todo *models.Todo) error
	// Method GetByID retrieves a todo with its category, creator and assignee.
	//
	// If todo with such ID does not exist, a not found error will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Todo, error)
	// Method List retrieves a page of todos and the total number matching the filter.
	List(ctx context.Context, filter models.TodoFilter) ([]models.Todo, int, error)
	// Method Update applies a partial update.
	//
	// If todo with such ID does not exist, a not found error will be returned.
	Update(ctx context.Context, id int, changes models.TodoChanges) error
	// Method Delete deletes a todo.
	//
	// If todo with such ID does not exist, a not found error will be returned.
	Delete(ctx context.Context, id int) error
}

// UserLookup resolves users referenced by todos
type UserLookup interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// CategoryLookup resolves categories referenced by todos
type CategoryLookup interface {
	GetByID(ctx context.Context, id int) (*models.Category, error)
}

// AssignmentNotifier is told when a todo gets a new assignee
type AssignmentNotifier interface {
	NotifyTodoAssigned(ctx context.Context, payload models.TodoAssignedPayload) error
}

// todoService implements TodoService
type todoService struct {
	todoRepo   TodoRepository
	categories CategoryLookup
	users      UserLookup
	notifier   AssignmentNotifier
	validator  *validation.Validator
	logger     *zap.Logger
}

// NewTodoService creates a new todo service.
// notifier may be nil, in which case assignments are not announced.
func NewTodoService(
	todoRepo TodoRepository,
	categories CategoryLookup,
	users UserLookup,
	notifier AssignmentNotifier,
	validator *validation.Validator,
	logger *zap.Logger,
) *todoService {
	return &todoService{
		todoRepo:   todoRepo,
		categories: categories,
		users:      users,
		notifier:   notifier,
		validator:  validator,
		logger:     logger,
	}
}

// List returns a page of todos matching the filter.
// Page is floored to 1 and limit clamped to [1, MaxPageLimit].
func (s *todoService) List(ctx context.Context, filter models.TodoFilter) (*models.TodoListResponse, error) {
	fields := s.validator.Fields()
	if filter.Status != nil {
		fields.Check("status", string(*filter.Status), statusTag)
	}
	if filter.Priority != nil {
		fields.Check("priority", string(*filter.Priority), priorityTag)
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page, filter.Limit = NormalizePage(filter.Page, filter.Limit)

	todos, total, err := s.todoRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &models.TodoListResponse{
		Todos:      todos,
		Pagination: models.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// NormalizePage floors page to 1 and clamps limit to [1, MaxPageLimit].
// Page is capped so that the row offset (page-1)*limit stays representable.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	return page, limit
}

// Get returns a todo by ID
func (s *todoService) Get(ctx context.Context, id int) (*models.Todo, error) {
	return s.todoRepo.GetByID(ctx, id)
}

// Create creates a todo owned by creatorID
func (s *todoService) Create(ctx context.Context, creatorID int, req *models.CreateTodoRequest) (*models.Todo, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	todo := &models.Todo{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		CategoryID:   req.CategoryID,
		CreatedByID:  creatorID,
		AssignedToID: req.AssignedToID,
	}
	if todo.Status == "" {
		todo.Status = models.StatusTodo
	}
	if todo.Priority == "" {
		todo.Priority = models.PriorityMedium
	}

	fields := s.validator.Fields()
	if req.DueDate != nil && strings.TrimSpace(*req.DueDate) != "" {
		due, err := models.ParseDueDate(*req.DueDate)
		if err != nil {
			fields.Add("dueDate", "must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
		} else {
			todo.DueDate = &due
		}
	}
	if err := s.checkReferences(ctx, fields, req.CategoryID, req.AssignedToID); err != nil {
		return nil, err
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	if err := s.todoRepo.Create(ctx, todo); err != nil {
		return nil, err
	}

	created, err := s.todoRepo.GetByID(ctx, todo.ID)
	if err != nil {
		return nil, err
	}

	if created.AssignedToID != nil {
		s.notifyAssigned(ctx, created)
	}

	return created, nil
}

// Update applies a partial update. Fields sent as null are cleared.
func (s *todoService) Update(ctx context.Context, id int, req *models.UpdateTodoRequest) (*models.Todo, error) {
	changes, err := s.buildChanges(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.todoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := s.validator.Fields()
	if err := s.checkReferences(ctx, fields, changes.CategoryID, changes.AssignedToID); err != nil {
		return nil, err
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	if changes.IsEmpty() {
		return existing, nil
	}

	if err := s.todoRepo.Update(ctx, id, changes); err != nil {
		return nil, err
	}

	updated, err := s.todoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if changes.AssignedToID != nil && !sameAssignee(existing.AssignedToID, changes.AssignedToID) {
		s.notifyAssigned(ctx, updated)
	}

	return updated, nil
}

// Delete deletes a todo
func (s *todoService) Delete(ctx context.Context, id int) error {
	return s.todoRepo.Delete(ctx, id)
}

// buildChanges validates the fields present in req and converts them into column changes
func (s *todoService) buildChanges(req *models.UpdateTodoRequest) (models.TodoChanges, error) {
	var changes models.TodoChanges
	fields := s.validator.Fields()

	if req.Title.Set {
		if req.Title.Valid {
			title := strings.TrimSpace(req.Title.Value)
			fields.Check("title", title, titleTag)
			changes.Title = &title
		} else {
			fields.Add("title", "must not be null")
		}
	}
	if req.Description.Set {
		if req.Description.Valid {
			changes.Description = &req.Description.Value
		} else {
			changes.ClearDescription = true
		}
	}
	if req.Status.Set {
		if req.Status.Valid {
			fields.Check("status", string(req.Status.Value), statusTag)
			changes.Status = &req.Status.Value
		} else {
			fields.Add("status", "must not be null")
		}
	}
	if req.Priority.Set {
		if req.Priority.Valid {
			fields.Check("priority", string(req.Priority.Value), priorityTag)
			changes.Priority = &req.Priority.Value
		} else {
			fields.Add("priority", "must not be null")
		}
	}
	if req.DueDate.Set {
		if req.DueDate.Valid && strings.TrimSpace(req.DueDate.Value) != "" {
			due, err := models.ParseDueDate(req.DueDate.Value)
			if err != nil {
				fields.Add("dueDate", "must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
			} else {
				changes.DueDate = &due
			}
		} else {
			changes.ClearDueDate = true
		}
	}
	if req.CategoryID.Set {
		if req.CategoryID.Valid {
			fields.Check("categoryId", req.CategoryID.Value, idTag)
			changes.CategoryID = &req.CategoryID.Value
		} else {
			changes.ClearCategory = true
		}
	}
	if req.AssignedToID.Set {
		if req.AssignedToID.Valid {
			fields.Check("assignedToId", req.AssignedToID.Value, idTag)
			changes.AssignedToID = &req.AssignedToID.Value
		} else {
			changes.ClearAssignee = true
		}
	}

	return changes, fields.Err()
}

// checkReferences records a field error for every referenced row that does not exist
func (s *todoService) checkReferences(ctx context.Context, fields *validation.Fields, categoryID, assignedToID *int) error {
	if categoryID != nil && *categoryID > 0 {
		if _, err := s.categories.GetByID(ctx, *categoryID); err != nil {
			if !apperr.IsKind(err, apperr.KindNotFound) {
				return err
			}
			fields.Add("categoryId", "category does not exist")
		}
	}
	if assignedToID != nil && *assignedToID > 0 {
		if _, err := s.users.GetByID(ctx, *assignedToID); err != nil {
			if !apperr.IsKind(err, apperr.KindNotFound) {
				return err
			}
			fields.Add("assignedToId", "user does not exist")
		}
	}
	return nil
}

// notifyAssigned enqueues an assignment notification; failures are logged only
func (s *todoService) notifyAssigned(ctx context.Context, todo *models.Todo) {
	if s.notifier == nil || todo.AssignedTo == nil {
		return
	}

	payload := models.TodoAssignedPayload{
		TodoID:        todo.ID,
		Title:         todo.Title,
		DueDate:       todo.DueDate,
		AssigneeEmail: todo.AssignedTo.Email,
		AssigneeName:  todo.AssignedTo.Name,
	}
	if err := s.notifier.NotifyTodoAssigned(ctx, payload); err != nil {
		s.logger.Warn("failed to enqueue assignment notification",
			zap.Int("todo_id", todo.ID),
			zap.Error(err),
		)
	}
}

func sameAssignee(current, next *int) bool {
	if current == nil || next == nil {
		return current == next
	}
	return *current == *next
}

