package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/todoboard/backend/internal/handlers"
	"github.com/todoboard/backend/internal/models"
	"github.com/todoboard/backend/internal/services"
	"github.com/todoboard/backend/internal/testutil/memstore"
	"github.com/todoboard/backend/libs/auth/service"
	"github.com/todoboard/backend/libs/validation"
	"go.uber.org/zap"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-secret"
)

type stubStatsRepository struct{}

func (stubStatsRepository) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	return &models.DashboardStats{}, nil
}

type stubPinger struct{}

func (stubPinger) PingContext(ctx context.Context) error { return nil }

// testEnv wires real services on top of the in-memory store
type testEnv struct {
	t      *testing.T
	store  *memstore.Store
	router http.Handler
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{t: t, store: memstore.New(), now: time.Now()}
	logger := zap.NewNop()
	v := validation.New()
	codec := service.NewTokenCodec("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour,
		service.WithClock(func() time.Time { return env.now }))

	users := env.store.Users()
	authService := services.NewAuthService(users, codec, v, logger)
	todoService := services.NewTodoService(env.store.Todos(), env.store.Categories(), users, nil, v, logger)
	categoryService := services.NewCategoryService(env.store.Categories(), v)
	userService := services.NewUserService(users, v, logger)
	statsService := services.NewStatsService(stubStatsRepository{}, nil, 0, logger)

	_, err := authService.EnsureAdmin(context.Background(), adminEmail, adminPassword, "Admin")
	require.NoError(t, err)

	env.router = NewRouter(codec, Handlers{
		Auth:       handlers.NewAuthHandler(authService, false, codec.RefreshTokenExpiry(), logger),
		Todos:      handlers.NewTodoHandler(todoService, logger),
		Categories: handlers.NewCategoryHandler(categoryService, logger),
		Users:      handlers.NewUserHandler(userService, logger),
		Stats:      handlers.NewStatsHandler(statsService, logger),
		Health:     handlers.NewHealthHandler(stubPinger{}, logger),
	}, Options{AllowedOrigins: []string{"*"}, MaxRequestSize: 1 << 20}, logger)

	return env
}

func (e *testEnv) do(method, path string, body any, token string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, APIPrefix+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// session is what a client keeps after login
type session struct {
	accessToken string
	refresh     *http.Cookie
	userID      int
}

func (e *testEnv) login(email, password string) session {
	e.t.Helper()

	w := e.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())

	var resp models.AuthResponse
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp))

	var refresh *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == handlers.RefreshCookieName {
			refresh = c
		}
	}
	require.NotNil(e.t, refresh)

	return session{accessToken: resp.AccessToken, refresh: refresh, userID: resp.User.ID}
}

func (e *testEnv) register(email, password, name string) session {
	e.t.Helper()

	w := e.do(http.MethodPost, "/auth/register", map[string]string{"email": email, "password": password, "name": name}, "")
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.AuthResponse
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(e.t, models.RoleUser, resp.User.Role)

	return e.login(email, password)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestRouter_AssignedTodoScenario(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(adminEmail, adminPassword)
	bob := env.register("bob@example.com", "bob-secret", "Bob")

	w := env.do(http.MethodPost, "/categories", map[string]any{"name": "Work", "color": "#3B82F6"}, admin.accessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	work := decode[models.Category](t, w)

	w = env.do(http.MethodPost, "/todos", map[string]any{
		"title":        "Ship release",
		"categoryId":   work.ID,
		"assignedToId": bob.userID,
		"priority":     "HIGH",
	}, admin.accessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	todo := decode[models.Todo](t, w)

	w = env.do(http.MethodGet, fmt.Sprintf("/todos?assignedToId=%d", bob.userID), nil, bob.accessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decode[models.TodoListResponse](t, w)
	require.Len(t, list.Todos, 1)
	got := list.Todos[0]
	assert.Equal(t, "Ship release", got.Title)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Work", got.Category.Name)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, bob.userID, got.AssignedTo.ID)
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, admin.userID, got.CreatedBy.ID)

	w = env.do(http.MethodPatch, fmt.Sprintf("/todos/%d", todo.ID), map[string]any{"status": "DONE"}, bob.accessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodGet, fmt.Sprintf("/todos/%d", todo.ID), nil, bob.accessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusTodo, decode[models.Todo](t, w).Status)
}

func TestRouter_NonAdminMutationsAreForbidden(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(adminEmail, adminPassword)
	bob := env.register("bob@example.com", "bob-secret", "Bob")

	w := env.do(http.MethodPost, "/categories", map[string]any{"name": "Work"}, admin.accessToken)
	require.Equal(t, http.StatusCreated, w.Code)
	work := decode[models.Category](t, w)
	w = env.do(http.MethodPost, "/todos", map[string]any{"title": "Keep"}, admin.accessToken)
	require.Equal(t, http.StatusCreated, w.Code)
	todo := decode[models.Todo](t, w)

	requests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/todos", map[string]any{"title": "Sneaky"}},
		{http.MethodPatch, fmt.Sprintf("/todos/%d", todo.ID), map[string]any{"title": "Changed"}},
		{http.MethodDelete, fmt.Sprintf("/todos/%d", todo.ID), nil},
		{http.MethodPost, "/categories", map[string]any{"name": "Home"}},
		{http.MethodPatch, fmt.Sprintf("/categories/%d", work.ID), map[string]any{"name": "Play"}},
		{http.MethodDelete, fmt.Sprintf("/categories/%d", work.ID), nil},
		{http.MethodGet, "/users", nil},
		{http.MethodGet, fmt.Sprintf("/users/%d", admin.userID), nil},
		{http.MethodPatch, fmt.Sprintf("/users/%d", bob.userID), map[string]any{"role": "ADMIN"}},
		{http.MethodDelete, fmt.Sprintf("/users/%d", admin.userID), nil},
		{http.MethodGet, "/dashboard/stats", nil},
	}

	for _, req := range requests {
		t.Run(req.method+" "+req.path, func(t *testing.T) {
			w := env.do(req.method, req.path, req.body, bob.accessToken)
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}

	assert.Equal(t, 1, env.store.Todos().Count())
	stored, err := env.store.Todos().GetByID(context.Background(), todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep", stored.Title)
	category, err := env.store.Categories().GetByID(context.Background(), work.ID)
	require.NoError(t, err)
	assert.Equal(t, "Work", category.Name)
	user, err := env.store.Users().GetByID(context.Background(), bob.userID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
}

func TestRouter_Authentication(t *testing.T) {
	t.Run("anonymous list", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodGet, "/todos", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"error"`)
	})

	t.Run("expired access token", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.login(adminEmail, adminPassword)

		w := env.do(http.MethodGet, "/todos", nil, admin.accessToken)
		require.Equal(t, http.StatusOK, w.Code)

		env.now = env.now.Add(16 * time.Minute)
		w = env.do(http.MethodGet, "/todos", nil, admin.accessToken)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("tampered signature", func(t *testing.T) {
		env := newTestEnv(t)
		admin := env.login(adminEmail, adminPassword)

		parts := strings.Split(admin.accessToken, ".")
		require.Len(t, parts, 3)
		sig := []byte(parts[2])
		if sig[0] == 'A' {
			sig[0] = 'B'
		} else {
			sig[0] = 'A'
		}
		tampered := parts[0] + "." + parts[1] + "." + string(sig)

		w := env.do(http.MethodGet, "/todos", nil, tampered)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("login failures are indistinguishable", func(t *testing.T) {
		env := newTestEnv(t)
		env.register("bob@example.com", "bob-secret", "Bob")

		wrongPassword := env.do(http.MethodPost, "/auth/login", map[string]string{"email": "bob@example.com", "password": "nope-nope"}, "")
		unknownEmail := env.do(http.MethodPost, "/auth/login", map[string]string{"email": "ghost@example.com", "password": "nope-nope"}, "")

		assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
		assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
		assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	})

	t.Run("second login revokes the first refresh token", func(t *testing.T) {
		env := newTestEnv(t)
		env.register("bob@example.com", "bob-secret", "Bob")

		first := env.login("bob@example.com", "bob-secret")
		env.now = env.now.Add(time.Second)
		second := env.login("bob@example.com", "bob-secret")

		w := env.do(http.MethodPost, "/auth/refresh", nil, "", first.refresh)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = env.do(http.MethodPost, "/auth/refresh", nil, "", second.refresh)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		refreshed := decode[models.RefreshResponse](t, w)

		w = env.do(http.MethodGet, "/auth/me", nil, refreshed.AccessToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "bob@example.com", decode[models.User](t, w).Email)
	})

	t.Run("logout revokes the refresh token", func(t *testing.T) {
		env := newTestEnv(t)
		bob := env.register("bob@example.com", "bob-secret", "Bob")

		w := env.do(http.MethodPost, "/auth/logout", nil, bob.accessToken)
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do(http.MethodPost, "/auth/refresh", nil, "", bob.refresh)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("health is public", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodGet, "/health", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})
}

func TestRouter_LastAdminDemotion(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(adminEmail, adminPassword)
	env.register("bob@example.com", "bob-secret", "Bob")
	bob := env.login("bob@example.com", "bob-secret")

	w := env.do(http.MethodPatch, fmt.Sprintf("/users/%d", bob.userID), map[string]any{"role": "ADMIN"}, admin.accessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	staleAdmin := env.login("bob@example.com", "bob-secret")

	w = env.do(http.MethodPatch, fmt.Sprintf("/users/%d", bob.userID), map[string]any{"role": "USER"}, admin.accessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// bob's access token still carries ADMIN until it expires
	w = env.do(http.MethodPatch, fmt.Sprintf("/users/%d", admin.userID), map[string]any{"role": "USER"}, staleAdmin.accessToken)
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	users, err := env.store.Users().List(context.Background())
	require.NoError(t, err)
	admins := 0
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

func TestRouter_UserDeletion(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(adminEmail, adminPassword)
	bob := env.register("bob@example.com", "bob-secret", "Bob")
	carol := env.register("carol@example.com", "carol-secret", "Carol")

	t.Run("sole admin cannot be deleted", func(t *testing.T) {
		w := env.do(http.MethodDelete, fmt.Sprintf("/users/%d", admin.userID), nil, admin.accessToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		_, err := env.store.Users().GetByID(context.Background(), admin.userID)
		assert.NoError(t, err)
	})

	w := env.do(http.MethodPatch, fmt.Sprintf("/users/%d", bob.userID), map[string]any{"role": "ADMIN"}, admin.accessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.RoleAdmin, decode[models.User](t, w).Role)

	// Bob's token still says USER until he logs in again
	bob = env.login("bob@example.com", "bob-secret")

	w = env.do(http.MethodPost, "/todos", map[string]any{"title": "Bob's own"}, bob.accessToken)
	require.Equal(t, http.StatusCreated, w.Code)
	bobsTodo := decode[models.Todo](t, w)

	w = env.do(http.MethodPost, "/todos", map[string]any{"title": "Review", "assignedToId": bob.userID}, admin.accessToken)
	require.Equal(t, http.StatusCreated, w.Code)
	assigned := decode[models.Todo](t, w)

	t.Run("non-last admin is deleted with cascade", func(t *testing.T) {
		w := env.do(http.MethodDelete, fmt.Sprintf("/users/%d", bob.userID), nil, admin.accessToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		_, err := env.store.Users().GetByID(context.Background(), bob.userID)
		assert.Error(t, err)

		_, err = env.store.Todos().GetByID(context.Background(), bobsTodo.ID)
		assert.Error(t, err)

		remaining, err := env.store.Todos().GetByID(context.Background(), assigned.ID)
		require.NoError(t, err)
		assert.Nil(t, remaining.AssignedToID)
	})

	t.Run("regular user cannot delete anyone", func(t *testing.T) {
		w := env.do(http.MethodDelete, fmt.Sprintf("/users/%d", admin.userID), nil, carol.accessToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
