package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/todoboard/backend/internal/models"
	"github.com/todoboard/backend/libs/apperr"
)

const todoSelect = `
	SELECT t.id, t.title, t.description, t.status, t.priority, t.due_date,
		t.category_id, t.created_by_id, t.assigned_to_id, t.created_at, t.updated_at,
		c.name, c.color,
		cb.name, cb.email,
		a.name, a.email
	FROM todos t
	LEFT JOIN categories c ON c.id = t.category_id
	LEFT JOIN users cb ON cb.id = t.created_by_id
	LEFT JOIN users a ON a.id = t.assigned_to_id
`

// todoRepository implements TodoRepository
type todoRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewTodoRepository creates a new todo repository
func NewTodoRepository(db *sql.DB) *todoRepository {
	return &todoRepository{
		db:  db,
		now: time.Now,
	}
}

// Create inserts a new todo into the database
func (r *todoRepository) Create(ctx context.Context, todo *models.Todo) error {
	query := `
		INSERT INTO todos (title, description, status, priority, due_date, category_id, created_by_id, assigned_to_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := r.now().UTC().Truncate(time.Second)
	result, err := r.db.ExecContext(ctx, query,
		todo.Title,
		todo.Description,
		todo.Status,
		todo.Priority,
		todo.DueDate,
		todo.CategoryID,
		todo.CreatedByID,
		todo.AssignedToID,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	todo.ID = int(id)
	todo.CreatedAt = now
	todo.UpdatedAt = now
	return nil
}

// GetByID retrieves a todo with its category, creator and assignee
func (r *todoRepository) GetByID(ctx context.Context, id int) (*models.Todo, error) {
	query := todoSelect + `WHERE t.id = ?`

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("todo not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo by id: %w", err)
	}

	return todo, nil
}

// List retrieves a page of todos matching the filter and the total number of matches.
// filter.Page and filter.Limit must already be normalized.
func (r *todoRepository) List(ctx context.Context, filter models.TodoFilter) ([]models.Todo, int, error) {
	whereClause, args := buildTodoWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM todos t ` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count todos: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := todoSelect + whereClause + `
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ? OFFSET ?
	`
	pageArgs := append(args, filter.Limit, offset)

	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, *todo)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating todos: %w", err)
	}

	return todos, total, nil
}

// buildTodoWhere builds the WHERE clause shared by the count and page queries
func buildTodoWhere(filter models.TodoFilter) (string, []any) {
	var whereConditions []string
	var args []any

	if filter.Status != nil {
		whereConditions = append(whereConditions, "t.`status` = ?")
		args = append(args, *filter.Status)
	}
	if filter.Priority != nil {
		whereConditions = append(whereConditions, "t.priority = ?")
		args = append(args, *filter.Priority)
	}
	if filter.CategoryID != nil {
		whereConditions = append(whereConditions, "t.category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.AssignedToID != nil {
		whereConditions = append(whereConditions, "t.assigned_to_id = ?")
		args = append(args, *filter.AssignedToID)
	}
	if filter.ExcludeAssignedToID != nil {
		// Unassigned todos are kept: NULL <> ? is never true in SQL
		whereConditions = append(whereConditions, "(t.assigned_to_id IS NULL OR t.assigned_to_id <> ?)")
		args = append(args, *filter.ExcludeAssignedToID)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		whereConditions = append(whereConditions, "(LOWER(t.title) LIKE ? OR LOWER(COALESCE(t.description, '')) LIKE ?)")
		args = append(args, pattern, pattern)
	}

	if len(whereConditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(whereConditions, " AND "), args
}

// escapeLike escapes LIKE wildcards so the search term matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Update applies a partial update to a todo
func (r *todoRepository) Update(ctx context.Context, id int, changes models.TodoChanges) error {
	setClauses := []string{}
	args := []any{}

	if changes.Title != nil {
		setClauses = append(setClauses, "title = ?")
		args = append(args, *changes.Title)
	}
	if changes.ClearDescription {
		setClauses = append(setClauses, "description = NULL")
	} else if changes.Description != nil {
		setClauses = append(setClauses, "description = ?")
		args = append(args, *changes.Description)
	}
	if changes.Status != nil {
		setClauses = append(setClauses, "`status` = ?")
		args = append(args, *changes.Status)
	}
	if changes.Priority != nil {
		setClauses = append(setClauses, "priority = ?")
		args = append(args, *changes.Priority)
	}
	if changes.ClearDueDate {
		setClauses = append(setClauses, "due_date = NULL")
	} else if changes.DueDate != nil {
		setClauses = append(setClauses, "due_date = ?")
		args = append(args, *changes.DueDate)
	}
	if changes.ClearCategory {
		setClauses = append(setClauses, "category_id = NULL")
	} else if changes.CategoryID != nil {
		setClauses = append(setClauses, "category_id = ?")
		args = append(args, *changes.CategoryID)
	}
	if changes.ClearAssignee {
		setClauses = append(setClauses, "assigned_to_id = NULL")
	} else if changes.AssignedToID != nil {
		setClauses = append(setClauses, "assigned_to_id = ?")
		args = append(args, *changes.AssignedToID)
	}

	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, r.now().UTC().Truncate(time.Second), id)

	query := fmt.Sprintf(`
		UPDATE todos
		SET %s
		WHERE id = ?
	`, strings.Join(setClauses, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}

	return requireAffected(result, "todo not found")
}

// Delete deletes a todo by ID
func (r *todoRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM todos WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	return requireAffected(result, "todo not found")
}

// ListDueBetween retrieves open, assigned todos whose due date falls in [from, to)
func (r *todoRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]models.DueTodo, error) {
	query := `
		SELECT t.id, t.title, t.due_date, a.email, a.name
		FROM todos t
		JOIN users a ON a.id = t.assigned_to_id
		WHERE t.due_date >= ? AND t.due_date < ?
			AND t.` + "`status`" + ` IN (?, ?)
		ORDER BY t.due_date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, from, to, models.StatusTodo, models.StatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to query due todos: %w", err)
	}
	defer rows.Close()

	todos := []models.DueTodo{}
	for rows.Next() {
		var todo models.DueTodo
		if err := rows.Scan(&todo.ID, &todo.Title, &todo.DueDate, &todo.AssigneeEmail, &todo.AssigneeName); err != nil {
			return nil, fmt.Errorf("failed to scan due todo: %w", err)
		}
		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due todos: %w", err)
	}

	return todos, nil
}

func scanTodo(row scanner) (*models.Todo, error) {
	todo := &models.Todo{}
	var (
		description   sql.NullString
		dueDate       sql.NullTime
		categoryID    sql.NullInt64
		assignedToID  sql.NullInt64
		categoryName  sql.NullString
		categoryColor sql.NullString
		creatorName   sql.NullString
		creatorEmail  sql.NullString
		assigneeName  sql.NullString
		assigneeEmail sql.NullString
	)

	err := row.Scan(
		&todo.ID,
		&todo.Title,
		&description,
		&todo.Status,
		&todo.Priority,
		&dueDate,
		&categoryID,
		&todo.CreatedByID,
		&assignedToID,
		&todo.CreatedAt,
		&todo.UpdatedAt,
		&categoryName,
		&categoryColor,
		&creatorName,
		&creatorEmail,
		&assigneeName,
		&assigneeEmail,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		todo.Description = &description.String
	}
	if dueDate.Valid {
		due := dueDate.Time.UTC()
		todo.DueDate = &due
	}
	if categoryID.Valid && categoryName.Valid {
		id := int(categoryID.Int64)
		todo.CategoryID = &id
		todo.Category = &models.CategorySummary{ID: id, Name: categoryName.String}
		if categoryColor.Valid {
			todo.Category.Color = &categoryColor.String
		}
	}
	if creatorName.Valid {
		todo.CreatedBy = &models.UserSummary{ID: todo.CreatedByID, Name: creatorName.String, Email: creatorEmail.String}
	}
	if assignedToID.Valid && assigneeName.Valid {
		id := int(assignedToID.Int64)
		todo.AssignedToID = &id
		todo.AssignedTo = &models.UserSummary{ID: id, Name: assigneeName.String, Email: assigneeEmail.String}
	}

	return todo, nil
}
