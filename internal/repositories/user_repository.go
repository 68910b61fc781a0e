package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/todoboard/backend/internal/models"
	"github.com/todoboard/backend/libs/apperr"
)

const userColumns = `id, email, password_hash, name, role, refresh_token, created_at, updated_at`

// userRepository implements UserRepository
type userRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{
		db:  db,
		now: time.Now,
	}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, name, role, refresh_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	now := r.now().UTC().Truncate(time.Second)
	result, err := r.db.ExecContext(ctx, query, user.Email, user.PasswordHash, user.Name, user.Role, user.RefreshToken, now, now)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperr.Conflict("email already in use")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = int(id)
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// ExistsByEmail checks if a user exists with the given email
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// List retrieves all users ordered by creation date
func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// CountByRole counts users having the given role
func (r *userRepository) CountByRole(ctx context.Context, role models.Role) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE role = ?`

	var count int
	if err := r.db.QueryRowContext(ctx, query, role).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users by role: %w", err)
	}

	return count, nil
}

// UpdateRefreshToken stores token as the user's only valid refresh token; nil clears it
func (r *userRepository) UpdateRefreshToken(ctx context.Context, id int, token *string) error {
	query := `UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, token, r.now().UTC().Truncate(time.Second), id)
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}

	return requireAffected(result, "user not found")
}

// UpdateRole changes the role of a user.
// Demoting the last remaining admin is refused with a forbidden error.
func (r *userRepository) UpdateRole(ctx context.Context, id int, role models.Role) (err error) {
	query := `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`

	if role != models.RoleUser {
		result, err := r.db.ExecContext(ctx, query, role, r.now().UTC().Truncate(time.Second), id)
		if err != nil {
			return fmt.Errorf("failed to update user role: %w", err)
		}
		return requireAffected(result, "user not found")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockAdminRemoval(ctx, tx, id, "cannot demote the last admin"); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, query, role, r.now().UTC().Truncate(time.Second), id); err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// lockAdminRemoval locks user id and, when it is an admin, every admin row,
// failing with a forbidden error if id is the only admin left.
func lockAdminRemoval(ctx context.Context, tx *sql.Tx, id int, refusal string) error {
	var role models.Role
	err := tx.QueryRowContext(ctx, `SELECT role FROM users WHERE id = ? FOR UPDATE`, id).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("user not found")
	}
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}

	if role != models.RoleAdmin {
		return nil
	}

	var admins int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ? FOR UPDATE`, models.RoleAdmin).Scan(&admins)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if admins <= 1 {
		return apperr.Forbidden(refusal)
	}
	return nil
}

// Delete removes a user together with the todos they created and clears
// their assignments, in a single transaction.
// Deleting the last remaining admin is refused with a forbidden error.
func (r *userRepository) Delete(ctx context.Context, id int) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockAdminRemoval(ctx, tx, id, "cannot delete the last admin"); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE todos SET assigned_to_id = NULL WHERE assigned_to_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear todo assignments: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM todos WHERE created_by_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete created todos: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var refreshToken sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&refreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if refreshToken.Valid {
		user.RefreshToken = &refreshToken.String
	}
	return user, nil
}

// requireAffected turns an UPDATE or DELETE that matched no row into a not found error
func requireAffected(result sql.Result, notFoundMessage string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperr.NotFound(notFoundMessage)
	}

	return nil
}
