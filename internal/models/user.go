package models

import "time"

// Role is the access level of a user
type Role string

// Role constants
const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// User represents a user in the system
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize password hash
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserSummary is the public subset of a user embedded in todos
type UserSummary struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,min=2"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"accessToken"`
}

// RefreshResponse is returned by the refresh endpoint
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// UpdateUserRoleRequest represents the request body for changing a user's role
type UpdateUserRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=ADMIN USER"`
}
