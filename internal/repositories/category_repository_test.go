package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/todoboard/backend/internal/models"
	"github.com/todoboard/backend/libs/apperr"
)

// setupCategoryTestRepository creates a category repository with a mock database
func setupCategoryTestRepository(t *testing.T) (*categoryRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewCategoryRepository(db)
	repo.now = func() time.Time { return fixedNow }

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func categoryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "color", "created_at", "updated_at"})
}

func TestCategoryRepository_Create(t *testing.T) {
	tests := []struct {
		name          string
		category      *models.Category
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedID    int
	}{
		{
			name:     "with color",
			category: &models.Category{Name: "Work", Color: strPtr("#3B82F6")},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO categories`).
					WithArgs("Work", "#3B82F6", fixedNow, fixedNow).
					WillReturnResult(sqlmock.NewResult(3, 1))
			},
			expectedID: 3,
		},
		{
			name:     "without color",
			category: &models.Category{Name: "Home"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO categories`).
					WithArgs("Home", nil, fixedNow, fixedNow).
					WillReturnResult(sqlmock.NewResult(4, 1))
			},
			expectedID: 4,
		},
		{
			name:     "database error",
			category: &models.Category{Name: "Home"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO categories`).WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupCategoryTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.category)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedID, tt.category.ID)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCategoryRepository_GetByID(t *testing.T) {
	repo, mock, cleanup := setupCategoryTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .* FROM categories WHERE id = \?`).
		WithArgs(3).
		WillReturnRows(categoryRows().AddRow(3, "Work", "#3B82F6", fixedNow, fixedNow))
	mock.ExpectQuery(`SELECT .* FROM categories WHERE id = \?`).
		WithArgs(4).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .* FROM categories WHERE id = \?`).
		WithArgs(5).
		WillReturnError(errors.New("database error"))

	category, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Work", category.Name)
	require.NotNil(t, category.Color)
	assert.Equal(t, "#3B82F6", *category.Color)

	_, err = repo.GetByID(context.Background(), 4)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = repo.GetByID(context.Background(), 5)
	assert.Error(t, err)
	assert.False(t, apperr.IsKind(err, apperr.KindNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_List(t *testing.T) {
	repo, mock, cleanup := setupCategoryTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .* FROM categories ORDER BY name ASC`).
		WillReturnRows(categoryRows().
			AddRow(4, "Home", nil, fixedNow, fixedNow).
			AddRow(3, "Work", "#3B82F6", fixedNow, fixedNow))

	categories, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Nil(t, categories[0].Color)
	assert.Equal(t, "Work", categories[1].Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_Update(t *testing.T) {
	name := "Office"
	color := "#112233"

	tests := []struct {
		name          string
		changes       models.CategoryChanges
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedKind  apperr.Kind
	}{
		{
			name:    "rename and recolor",
			changes: models.CategoryChanges{Name: &name, Color: &color},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE categories\s+SET name = \?, color = \?, updated_at = \?\s+WHERE id = \?`).
					WithArgs("Office", "#112233", fixedNow, 3).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:    "clear color",
			changes: models.CategoryChanges{ClearColor: true},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE categories\s+SET color = NULL, updated_at = \?\s+WHERE id = \?`).
					WithArgs(fixedNow, 3).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:    "not found",
			changes: models.CategoryChanges{Name: &name},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE categories`).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedError: true,
			expectedKind:  apperr.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupCategoryTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Update(context.Background(), 3, tt.changes)

			if tt.expectedError {
				assert.Error(t, err)
				assert.True(t, apperr.IsKind(err, tt.expectedKind))
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCategoryRepository_Delete(t *testing.T) {
	repo, mock, cleanup := setupCategoryTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM categories WHERE id = \?`).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM categories WHERE id = \?`).WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), 3))
	assert.True(t, apperr.IsKind(repo.Delete(context.Background(), 4), apperr.KindNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}
