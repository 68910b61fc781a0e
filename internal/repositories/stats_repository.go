package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/todoboard/backend/internal/models"
)

const recentTodosLimit = 5

// statsRepository implements StatsRepository
type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new dashboard statistics repository
func NewStatsRepository(db *sql.DB) *statsRepository {
	return &statsRepository{db: db}
}

// GetDashboardStats aggregates counts and the most recent todos
func (r *statsRepository) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{
		TodosByStatus:   make(map[models.TodoStatus]int, len(models.TodoStatuses)),
		TodosByPriority: make(map[models.TodoPriority]int, len(models.TodoPriorities)),
	}
	for _, status := range models.TodoStatuses {
		stats.TodosByStatus[status] = 0
	}
	for _, priority := range models.TodoPriorities {
		stats.TodosByPriority[priority] = 0
	}

	totalsQuery := `
		SELECT
			(SELECT COUNT(*) FROM todos),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM categories)
	`
	err := r.db.QueryRowContext(ctx, totalsQuery).Scan(&stats.Totals.Todos, &stats.Totals.Users, &stats.Totals.Categories)
	if err != nil {
		return nil, fmt.Errorf("failed to count totals: %w", err)
	}

	if err := r.countGrouped(ctx, "SELECT `status`, COUNT(*) FROM todos GROUP BY `status`", func(key string, count int) {
		stats.TodosByStatus[models.TodoStatus(key)] = count
	}); err != nil {
		return nil, fmt.Errorf("failed to count todos by status: %w", err)
	}

	if err := r.countGrouped(ctx, "SELECT priority, COUNT(*) FROM todos GROUP BY priority", func(key string, count int) {
		stats.TodosByPriority[models.TodoPriority(key)] = count
	}); err != nil {
		return nil, fmt.Errorf("failed to count todos by priority: %w", err)
	}

	if stats.TodosByCategory, err = r.countByCategory(ctx); err != nil {
		return nil, err
	}

	if stats.RecentTodos, err = r.recentTodos(ctx); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *statsRepository) countGrouped(ctx context.Context, query string, add func(key string, count int)) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		add(key, count)
	}

	return rows.Err()
}

func (r *statsRepository) countByCategory(ctx context.Context) ([]models.CategoryCount, error) {
	query := `
		SELECT t.category_id, c.name, COUNT(*) AS total
		FROM todos t
		LEFT JOIN categories c ON c.id = t.category_id
		GROUP BY t.category_id, c.name
		ORDER BY total DESC, c.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count todos by category: %w", err)
	}
	defer rows.Close()

	counts := []models.CategoryCount{}
	for rows.Next() {
		var categoryID sql.NullInt64
		var name sql.NullString
		var count int
		if err := rows.Scan(&categoryID, &name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}

		item := models.CategoryCount{Name: models.UncategorizedLabel, Count: count}
		if categoryID.Valid {
			id := int(categoryID.Int64)
			item.CategoryID = &id
			item.Name = name.String
		}
		counts = append(counts, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category counts: %w", err)
	}

	return counts, nil
}

func (r *statsRepository) recentTodos(ctx context.Context) ([]models.RecentTodo, error) {
	query := `
		SELECT t.id, t.title, t.status, t.priority, t.created_at,
			t.category_id, c.name, c.color,
			t.assigned_to_id, a.name, a.email
		FROM todos t
		LEFT JOIN categories c ON c.id = t.category_id
		LEFT JOIN users a ON a.id = t.assigned_to_id
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, recentTodosLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent todos: %w", err)
	}
	defer rows.Close()

	todos := []models.RecentTodo{}
	for rows.Next() {
		var todo models.RecentTodo
		var (
			categoryID    sql.NullInt64
			categoryName  sql.NullString
			categoryColor sql.NullString
			assigneeID    sql.NullInt64
			assigneeName  sql.NullString
			assigneeEmail sql.NullString
		)
		err := rows.Scan(
			&todo.ID, &todo.Title, &todo.Status, &todo.Priority, &todo.CreatedAt,
			&categoryID, &categoryName, &categoryColor,
			&assigneeID, &assigneeName, &assigneeEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recent todo: %w", err)
		}

		if categoryID.Valid && categoryName.Valid {
			todo.Category = &models.CategorySummary{ID: int(categoryID.Int64), Name: categoryName.String}
			if categoryColor.Valid {
				todo.Category.Color = &categoryColor.String
			}
		}
		if assigneeID.Valid && assigneeName.Valid {
			todo.AssignedTo = &models.UserSummary{ID: int(assigneeID.Int64), Name: assigneeName.String, Email: assigneeEmail.String}
		}
		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent todos: %w", err)
	}

	return todos, nil
}
