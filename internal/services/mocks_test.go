package services

import (
	"context"
	"errors"
	"time"

	"github.com/todoboard/backend/internal/models"
	"github.com/todoboard/backend/internal/testutil/memstore"
	"github.com/todoboard/backend/libs/auth/service"
	"github.com/todoboard/backend/libs/validation"
	"go.uber.org/zap"
)

var errDatabase = errors.New("database connection failed")

func newTestCodec() *service.TokenCodec {
	return service.NewTokenCodec("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func newTestValidator() *validation.Validator {
	return validation.New()
}

// failingUserRepository wraps the in-memory users and fails selected calls
type failingUserRepository struct {
	*memstore.Users
	getByEmailErr    error
	updateTokenErr   error
	countByRoleErr   error
	existsByEmailErr error
}

func (m *failingUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.getByEmailErr != nil {
		return nil, m.getByEmailErr
	}
	return m.Users.GetByEmail(ctx, email)
}

func (m *failingUserRepository) UpdateRefreshToken(ctx context.Context, id int, token *string) error {
	if m.updateTokenErr != nil {
		return m.updateTokenErr
	}
	return m.Users.UpdateRefreshToken(ctx, id, token)
}

func (m *failingUserRepository) CountByRole(ctx context.Context, role models.Role) (int, error) {
	if m.countByRoleErr != nil {
		return 0, m.countByRoleErr
	}
	return m.Users.CountByRole(ctx, role)
}

func (m *failingUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailErr != nil {
		return false, m.existsByEmailErr
	}
	return m.Users.ExistsByEmail(ctx, email)
}

// mockNotifier records assignment notifications
type mockNotifier struct {
	payloads []models.TodoAssignedPayload
	err      error
}

func (m *mockNotifier) NotifyTodoAssigned(ctx context.Context, payload models.TodoAssignedPayload) error {
	m.payloads = append(m.payloads, payload)
	return m.err
}

// mockStatsRepository is a mock implementation of StatsRepository
type mockStatsRepository struct {
	stats *models.DashboardStats
	err   error
	calls int
}

func (m *mockStatsRepository) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

// mockCache is a map-backed Cache
type mockCache struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return data, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

// seedUser stores a user with the given role without hashing a password
func seedUser(store *memstore.Store, email string, role models.Role) *models.User {
	user := &models.User{Email: email, Name: "User " + email, Role: role, PasswordHash: "x"}
	if err := store.Users().Create(context.Background(), user); err != nil {
		panic(err)
	}
	return user
}

func newTestLogger() *zap.Logger {
	return zap.NewNop()
}
