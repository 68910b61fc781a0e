package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/todoboard/backend/internal/models"
	"github.com/todoboard/backend/internal/services"
	"github.com/todoboard/backend/libs/auth/middleware"
	"github.com/todoboard/backend/libs/auth/service"
)

var (
	adminClaims = &service.Claims{UserID: 1, Email: "admin@example.com", Role: service.RoleAdmin}
	userClaims  = &service.Claims{UserID: 2, Email: "user@example.com", Role: service.RoleUser}
)

// newRequest builds a request, attaching claims the way Authenticate does
func newRequest(method, target, body string, claims *service.Claims) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if claims != nil {
		req = req.WithContext(middleware.WithClaims(req.Context(), claims))
	}
	return req
}

type routeRegistrar interface {
	RegisterRoutes(r chi.Router)
}

func serve(h routeRegistrar, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// mockAuthService is a mock implementation of AuthService
type mockAuthService struct {
	result       *services.AuthResult
	accessToken  string
	user         *models.User
	err          error
	refreshToken string
	logoutUserID int
}

func (m *mockAuthService) Register(ctx context.Context, req *models.RegisterRequest) (*services.AuthResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*services.AuthResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	m.refreshToken = refreshToken
	if m.err != nil {
		return "", m.err
	}
	return m.accessToken, nil
}

func (m *mockAuthService) Logout(ctx context.Context, userID int) error {
	m.logoutUserID = userID
	return m.err
}

func (m *mockAuthService) Me(ctx context.Context, userID int) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

// mockTodoService is a mock implementation of TodoService
type mockTodoService struct {
	todo      *models.Todo
	list      *models.TodoListResponse
	err       error
	filter    models.TodoFilter
	creatorID int
	updateReq *models.UpdateTodoRequest
	calls     int
}

func (m *mockTodoService) List(ctx context.Context, filter models.TodoFilter) (*models.TodoListResponse, error) {
	m.calls++
	m.filter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

func (m *mockTodoService) Get(ctx context.Context, id int) (*models.Todo, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.todo, nil
}

func (m *mockTodoService) Create(ctx context.Context, creatorID int, req *models.CreateTodoRequest) (*models.Todo, error) {
	m.calls++
	m.creatorID = creatorID
	if m.err != nil {
		return nil, m.err
	}
	return m.todo, nil
}

func (m *mockTodoService) Update(ctx context.Context, id int, req *models.UpdateTodoRequest) (*models.Todo, error) {
	m.calls++
	m.updateReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.todo, nil
}

func (m *mockTodoService) Delete(ctx context.Context, id int) error {
	m.calls++
	return m.err
}

// mockCategoryService is a mock implementation of CategoryService
type mockCategoryService struct {
	category *models.Category
	err      error
	calls    int
}

func (m *mockCategoryService) List(ctx context.Context) ([]models.Category, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []models.Category{*m.category}, nil
}

func (m *mockCategoryService) Get(ctx context.Context, id int) (*models.Category, error) {
	m.calls++
	return m.category, m.err
}

func (m *mockCategoryService) Create(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error) {
	m.calls++
	return m.category, m.err
}

func (m *mockCategoryService) Update(ctx context.Context, id int, req *models.UpdateCategoryRequest) (*models.Category, error) {
	m.calls++
	return m.category, m.err
}

func (m *mockCategoryService) Delete(ctx context.Context, id int) error {
	m.calls++
	return m.err
}

// mockUserService is a mock implementation of UserService
type mockUserService struct {
	user     *models.User
	err      error
	actorID  int
	targetID int
	calls    int
}

func (m *mockUserService) List(ctx context.Context) ([]models.User, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []models.User{*m.user}, nil
}

func (m *mockUserService) Get(ctx context.Context, id int) (*models.User, error) {
	m.calls++
	return m.user, m.err
}

func (m *mockUserService) UpdateRole(ctx context.Context, actorID, targetID int, req *models.UpdateUserRoleRequest) (*models.User, error) {
	m.calls++
	m.actorID, m.targetID = actorID, targetID
	return m.user, m.err
}

func (m *mockUserService) Delete(ctx context.Context, actorID, targetID int) error {
	m.calls++
	m.actorID, m.targetID = actorID, targetID
	return m.err
}

// mockStatsService is a mock implementation of StatsService
type mockStatsService struct {
	stats *models.DashboardStats
	err   error
}

func (m *mockStatsService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	return m.stats, m.err
}

// mockPinger is a mock database ping
type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.err
}
