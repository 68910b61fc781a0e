package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/todoboard/backend/internal/models"
	"github.com/todoboard/backend/libs/apperr"
	"github.com/todoboard/backend/libs/auth/service"
	"github.com/todoboard/backend/libs/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Login for an unknown email and for a wrong password alike
var ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")

// Refresh failures
var (
	ErrRefreshTokenMissing = apperr.Unauthorized("refresh token missing")
	ErrRefreshTokenInvalid = apperr.Unauthorized("invalid or expired refresh token")
	ErrRefreshTokenRevoked = apperr.Unauthorized("refresh token revoked")
)

// dummyHash is compared against when the email is unknown so both login
// failures cost one bcrypt comparison
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("todoboard-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("failed to generate dummy hash: %v", err))
	}
	return hash
})

// UserRepository is the interface that wraps methods for User table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user; its ID and timestamps are set on success.
	//
	// If the email is already taken, a conflict error is returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, a not found error will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// Method GetByEmail retrieves a user by email.
	//
	// If user with such email does not exist, a not found error will be returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method ExistsByEmail checks if a user with such email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Method List retrieves all users.
	List(ctx context.Context) ([]models.User, error)
	// Method CountByRole counts users having the given role.
	CountByRole(ctx context.Context, role models.Role) (int, error)
	// Method UpdateRefreshToken replaces the stored refresh token; nil clears it.
	//
	// If user with such ID does not exist, a not found error will be returned.
	UpdateRefreshToken(ctx context.Context, id int, token *string) error
	// Method UpdateRole changes the role of a user.
	//
	// If user with such ID does not exist, a not found error will be returned.
	UpdateRole(ctx context.Context, id int, role models.Role) error
	// Method Delete removes a user, clears their assignments and deletes the todos they created.
	//
	// If user with such ID does not exist, a not found error will be returned.
	// If the user is the last admin, a forbidden error will be returned and nothing changes.
	Delete(ctx context.Context, id int) error
}

// TokenCodec issues and verifies signed tokens
type TokenCodec interface {
	IssuePair(identity service.Identity) (string, string, error)
	IssueAccessToken(identity service.Identity) (string, error)
	VerifyRefreshToken(tokenString string) (*service.Claims, error)
}

// AuthResult is a new session: the user with its token pair
type AuthResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// authService implements AuthService
type authService struct {
	userRepo  UserRepository
	codec     TokenCodec
	validator *validation.Validator
	logger    *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo UserRepository, codec TokenCodec, validator *validation.Validator, logger *zap.Logger) *authService {
	return &authService{
		userRepo:  userRepo,
		codec:     codec,
		validator: validator,
		logger:    logger,
	}
}

// Register creates a new USER account and opens a session for it
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*AuthResult, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("email already in use")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Name:         req.Name,
		Role:         models.RoleUser, // Default role
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int("user_id", user.ID))
	return s.openSession(ctx, user)
}

// Login verifies credentials and opens a new session, revoking the previous refresh token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*AuthResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(req.Password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

// Refresh exchanges the stored refresh token for a new access token.
// The refresh token itself is not rotated.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrRefreshTokenMissing
	}

	claims, err := s.codec.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", ErrRefreshTokenInvalid
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return "", ErrRefreshTokenRevoked
		}
		return "", err
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return "", ErrRefreshTokenRevoked
	}

	// The role comes from the stored user so a role change applies on the next refresh
	accessToken, err := s.codec.IssueAccessToken(identityOf(user))
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}

	return accessToken, nil
}

// Logout revokes the stored refresh token of the user
func (s *authService) Logout(ctx context.Context, userID int) error {
	return s.userRepo.UpdateRefreshToken(ctx, userID, nil)
}

// Me returns the user behind the access token
func (s *authService) Me(ctx context.Context, userID int) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// EnsureAdmin makes sure at least one ADMIN exists.
// When none does, the account with the given email is promoted, or created if missing.
// It returns true when something was changed.
func (s *authService) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	admins, err := s.userRepo.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	if admins > 0 {
		return false, nil
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.logger.Warn("no admin account exists and ADMIN_EMAIL/ADMIN_PASSWORD are not set")
		return false, nil
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.userRepo.UpdateRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return false, err
		}
		s.logger.Info("promoted bootstrap admin", zap.Int("user_id", existing.ID))
		return true, nil
	case !apperr.IsKind(err, apperr.KindNotFound):
		return false, err
	}

	req := &models.RegisterRequest{Email: email, Password: password, Name: strings.TrimSpace(name)}
	if err := s.validator.Struct(req); err != nil {
		return false, fmt.Errorf("invalid bootstrap admin: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.User{
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Name:         req.Name,
		Role:         models.RoleAdmin,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return false, err
	}

	s.logger.Info("created bootstrap admin", zap.Int("user_id", admin.ID))
	return true, nil
}

// openSession issues a token pair and stores the refresh token as the only valid one
func (s *authService) openSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	accessToken, refreshToken, err := s.codec.IssuePair(identityOf(user))
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return nil, err
	}
	user.RefreshToken = &refreshToken

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func identityOf(user *models.User) service.Identity {
	return service.Identity{UserID: user.ID, Email: user.Email, Role: string(user.Role)}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
