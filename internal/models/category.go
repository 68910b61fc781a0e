package models

import "time"

// Category groups todos under a name and an optional color
type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Color     *string   `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CategorySummary is the subset of a category embedded in todos
type CategorySummary struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

// CreateCategoryRequest represents the request body for creating a category
type CreateCategoryRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=50"`
	Color *string `json:"color" validate:"omitempty,color"`
}

// UpdateCategoryRequest represents the request body for updating a category.
// Color may be sent as null to clear it.
type UpdateCategoryRequest struct {
	Name  Optional[string] `json:"name" swaggertype:"string"`
	Color Optional[string] `json:"color" swaggertype:"string"`
}

// CategoryChanges is a validated partial category update
type CategoryChanges struct {
	Name       *string
	Color      *string
	ClearColor bool
}
