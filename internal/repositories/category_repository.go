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

const categoryColumns = `id, name, color, created_at, updated_at`

// categoryRepository implements CategoryRepository
type categoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sql.DB) *categoryRepository {
	return &categoryRepository{
		db:  db,
		now: time.Now,
	}
}

// Create inserts a new category into the database
func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	query := `INSERT INTO categories (name, color, created_at, updated_at) VALUES (?, ?, ?, ?)`

	now := r.now().UTC().Truncate(time.Second)
	result, err := r.db.ExecContext(ctx, query, category.Name, category.Color, now, now)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	category.ID = int(id)
	category.CreatedAt = now
	category.UpdatedAt = now
	return nil
}

// GetByID retrieves a category by ID
func (r *categoryRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

	category, err := scanCategory(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category by id: %w", err)
	}

	return category, nil
}

// List retrieves all categories ordered by name
func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY name ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// Update applies a partial update to a category
func (r *categoryRepository) Update(ctx context.Context, id int, changes models.CategoryChanges) error {
	setClauses := []string{}
	args := []any{}

	if changes.Name != nil {
		setClauses = append(setClauses, "name = ?")
		args = append(args, *changes.Name)
	}
	if changes.ClearColor {
		setClauses = append(setClauses, "color = NULL")
	} else if changes.Color != nil {
		setClauses = append(setClauses, "color = ?")
		args = append(args, *changes.Color)
	}

	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, r.now().UTC().Truncate(time.Second), id)

	query := fmt.Sprintf(`
		UPDATE categories
		SET %s
		WHERE id = ?
	`, strings.Join(setClauses, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	return requireAffected(result, "category not found")
}

// Delete deletes a category by ID. Todos referencing it keep existing
// with a NULL category (ON DELETE SET NULL).
func (r *categoryRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM categories WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	return requireAffected(result, "category not found")
}

func scanCategory(row scanner) (*models.Category, error) {
	category := &models.Category{}
	var color sql.NullString
	if err := row.Scan(&category.ID, &category.Name, &color, &category.CreatedAt, &category.UpdatedAt); err != nil {
		return nil, err
	}
	if color.Valid {
		category.Color = &color.String
	}
	return category, nil
}
