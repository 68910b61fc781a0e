package models

import (
	"fmt"
	"strings"
	"time"
)

// TodoStatus is the workflow state of a todo
type TodoStatus string

// TodoStatus constants
const (
	StatusTodo       TodoStatus = "TODO"
	StatusInProgress TodoStatus = "IN_PROGRESS"
	StatusDone       TodoStatus = "DONE"
	StatusArchived   TodoStatus = "ARCHIVED"
)

// TodoStatuses lists every status in display order
var TodoStatuses = []TodoStatus{StatusTodo, StatusInProgress, StatusDone, StatusArchived}

// TodoPriority is the urgency of a todo
type TodoPriority string

// TodoPriority constants
const (
	PriorityLow    TodoPriority = "LOW"
	PriorityMedium TodoPriority = "MEDIUM"
	PriorityHigh   TodoPriority = "HIGH"
)

// TodoPriorities lists every priority in display order
var TodoPriorities = []TodoPriority{PriorityLow, PriorityMedium, PriorityHigh}

// Todo represents a todo item with its related category and users
type Todo struct {
	ID           int              `json:"id"`
	Title        string           `json:"title"`
	Description  *string          `json:"description"`
	Status       TodoStatus       `json:"status"`
	Priority     TodoPriority     `json:"priority"`
	DueDate      *time.Time       `json:"dueDate"`
	CategoryID   *int             `json:"categoryId"`
	CreatedByID  int              `json:"createdById"`
	AssignedToID *int             `json:"assignedToId"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	Category     *CategorySummary `json:"category"`
	CreatedBy    *UserSummary     `json:"createdBy"`
	AssignedTo   *UserSummary     `json:"assignedTo"`
}

// TodoFilter holds the list filters and pagination of GET /todos
type TodoFilter struct {
	Status              *TodoStatus
	Priority            *TodoPriority
	CategoryID          *int
	AssignedToID        *int
	ExcludeAssignedToID *int
	Search              string
	Page                int
	Limit               int
}

// Pagination describes the page returned by a list endpoint
type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalItems      int  `json:"totalItems"`
	ItemsPerPage    int  `json:"itemsPerPage"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// NewPagination computes pagination metadata for a page of totalItems
func NewPagination(page, limit, totalItems int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (totalItems + limit - 1) / limit
	}
	return Pagination{
		CurrentPage:     page,
		TotalPages:      totalPages,
		TotalItems:      totalItems,
		ItemsPerPage:    limit,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

// TodoListResponse is the body of GET /todos
type TodoListResponse struct {
	Todos      []Todo     `json:"todos"`
	Pagination Pagination `json:"pagination"`
}

// CreateTodoRequest represents the request body for creating a todo
type CreateTodoRequest struct {
	Title        string       `json:"title" validate:"required,min=1,max=200"`
	Description  *string      `json:"description"`
	Status       TodoStatus   `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE ARCHIVED"`
	Priority     TodoPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate      *string      `json:"dueDate" example:"2026-01-31"`
	CategoryID   *int         `json:"categoryId" validate:"omitempty,gt=0"`
	AssignedToID *int         `json:"assignedToId" validate:"omitempty,gt=0"`
}

// UpdateTodoRequest represents the request body for a partial todo update.
// Description, dueDate, categoryId and assignedToId may be sent as null to clear them.
type UpdateTodoRequest struct {
	Title        Optional[string]       `json:"title" swaggertype:"string"`
	Description  Optional[string]       `json:"description" swaggertype:"string"`
	Status       Optional[TodoStatus]   `json:"status" swaggertype:"string"`
	Priority     Optional[TodoPriority] `json:"priority" swaggertype:"string"`
	DueDate      Optional[string]       `json:"dueDate" swaggertype:"string"`
	CategoryID   Optional[int]          `json:"categoryId" swaggertype:"integer"`
	AssignedToID Optional[int]          `json:"assignedToId" swaggertype:"integer"`
}

// TodoChanges is a validated partial update ready to be persisted.
// A nil field is left untouched; the Clear flags set a nullable column to NULL.
type TodoChanges struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Status           *TodoStatus
	Priority         *TodoPriority
	DueDate          *time.Time
	ClearDueDate     bool
	CategoryID       *int
	ClearCategory    bool
	AssignedToID     *int
	ClearAssignee    bool
}

// IsEmpty reports whether the update touches no column
func (c TodoChanges) IsEmpty() bool {
	return c.Title == nil && c.Description == nil && !c.ClearDescription &&
		c.Status == nil && c.Priority == nil &&
		c.DueDate == nil && !c.ClearDueDate &&
		c.CategoryID == nil && !c.ClearCategory &&
		c.AssignedToID == nil && !c.ClearAssignee
}

var dueDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// ParseDueDate accepts an RFC 3339 timestamp or a plain YYYY-MM-DD date (midnight UTC)
func ParseDueDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due date %q", value)
}
