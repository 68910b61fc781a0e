package services

import (
	"context"
	"strings"

	"github.com/todoboard/backend/internal/models"
	"github.com/todoboard/backend/libs/validation"
)

// CategoryRepository is the interface that wraps methods for Category table data access
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id int) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, id int, changes models.CategoryChanges) error
	Delete(ctx context.Context, id int) error
}

// categoryService implements CategoryService
type categoryService struct {
	repo      CategoryRepository
	validator *validation.Validator
}

// NewCategoryService creates a new category service
func NewCategoryService(repo CategoryRepository, validator *validation.Validator) *categoryService {
	return &categoryService{
		repo:      repo,
		validator: validator,
	}
}

// List returns all categories ordered by name
func (s *categoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.repo.List(ctx)
}

// Get returns a category by ID
func (s *categoryService) Get(ctx context.Context, id int) (*models.Category, error) {
	return s.repo.GetByID(ctx, id)
}

// Create creates a category
func (s *categoryService) Create(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Color != nil && *req.Color == "" {
		req.Color = nil
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:  req.Name,
		Color: req.Color,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// Update applies a partial update; a null color clears it
func (s *categoryService) Update(ctx context.Context, id int, req *models.UpdateCategoryRequest) (*models.Category, error) {
	var changes models.CategoryChanges
	fields := s.validator.Fields()

	if req.Name.Set {
		if req.Name.Valid {
			name := strings.TrimSpace(req.Name.Value)
			fields.Check("name", name, "min=1,max=50")
			changes.Name = &name
		} else {
			fields.Add("name", "must not be null")
		}
	}
	if req.Color.Set {
		if req.Color.Valid && req.Color.Value != "" {
			fields.Check("color", req.Color.Value, "color")
			changes.Color = &req.Color.Value
		} else {
			changes.ClearColor = true
		}
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	if changes.Name == nil && changes.Color == nil && !changes.ClearColor {
		return s.repo.GetByID(ctx, id)
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

// Delete deletes a category; todos referencing it become uncategorized
func (s *categoryService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
