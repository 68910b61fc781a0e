package services

import (
	"context"

	"github.com/todoboard/backend/internal/models"
	"github.com/todoboard/backend/libs/apperr"
	"github.com/todoboard/backend/libs/validation"
	"go.uber.org/zap"
)

// userService implements UserService
type userService struct {
	repo      UserRepository
	validator *validation.Validator
	logger    *zap.Logger
}

// NewUserService creates a new user administration service
func NewUserService(repo UserRepository, validator *validation.Validator, logger *zap.Logger) *userService {
	return &userService{
		repo:      repo,
		validator: validator,
		logger:    logger,
	}
}

// List returns all users
func (s *userService) List(ctx context.Context) ([]models.User, error) {
	return s.repo.List(ctx)
}

// Get returns a user by ID
func (s *userService) Get(ctx context.Context, id int) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateRole changes the role of targetID on behalf of actorID.
// An admin cannot change their own role.
func (s *userService) UpdateRole(ctx context.Context, actorID, targetID int, req *models.UpdateUserRoleRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	if actorID == targetID {
		return nil, apperr.Forbidden("cannot change your own role")
	}

	if err := s.repo.UpdateRole(ctx, targetID, req.Role); err != nil {
		return nil, err
	}

	s.logger.Info("user role changed",
		zap.Int("actor_id", actorID),
		zap.Int("user_id", targetID),
		zap.String("role", string(req.Role)),
	)

	return s.repo.GetByID(ctx, targetID)
}

// Delete removes targetID on behalf of actorID.
// An admin cannot delete their own account and the last admin cannot be deleted.
func (s *userService) Delete(ctx context.Context, actorID, targetID int) error {
	if actorID == targetID {
		return apperr.Forbidden("cannot delete your own account")
	}

	if err := s.repo.Delete(ctx, targetID); err != nil {
		return err
	}

	s.logger.Info("user deleted", zap.Int("actor_id", actorID), zap.Int("user_id", targetID))
	return nil
}
