// Package memstore is an in-memory implementation of the repositories used in tests
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/todoboard/backend/internal/models"
	"github.com/todoboard/backend/libs/apperr"
)

// Store holds users, categories and todos behind one lock
type Store struct {
	mu         sync.Mutex
	users      map[int]models.User
	categories map[int]models.Category
	todos      map[int]models.Todo
	nextID     int
	clock      time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		users:      make(map[int]models.User),
		categories: make(map[int]models.Category),
		todos:      make(map[int]models.Todo),
		clock:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// Users returns the user repository view of the store
func (s *Store) Users() *Users { return &Users{s} }

// Categories returns the category repository view of the store
func (s *Store) Categories() *Categories { return &Categories{s} }

// Todos returns the todo repository view of the store
func (s *Store) Todos() *Todos { return &Todos{s} }

// tick advances the clock so every write gets a distinct timestamp
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

// Users implements the user repository
type Users struct{ s *Store }

func (r *Users) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return apperr.Conflict("email already in use")
		}
	}
	now := r.s.tick()
	user.ID = r.s.id()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = *user
	return nil
}

func (r *Users) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return &u, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (r *Users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *Users) List(ctx context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *Users) CountByRole(ctx context.Context, role models.Role) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.countRole(role), nil
}

func (r *Users) UpdateRefreshToken(ctx context.Context, id int, token *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.RefreshToken = token
	u.UpdatedAt = r.s.tick()
	r.s.users[id] = u
	return nil
}

func (r *Users) UpdateRole(ctx context.Context, id int, role models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	if u.Role == models.RoleAdmin && role != models.RoleAdmin && r.s.countRole(models.RoleAdmin) <= 1 {
		return apperr.Forbidden("cannot demote the last admin")
	}
	u.Role = role
	u.UpdatedAt = r.s.tick()
	r.s.users[id] = u
	return nil
}

func (r *Users) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	if u.Role == models.RoleAdmin && r.s.countRole(models.RoleAdmin) <= 1 {
		return apperr.Forbidden("cannot delete the last admin")
	}

	for todoID, t := range r.s.todos {
		switch {
		case t.CreatedByID == id:
			delete(r.s.todos, todoID)
		case t.AssignedToID != nil && *t.AssignedToID == id:
			t.AssignedToID = nil
			r.s.todos[todoID] = t
		}
	}
	delete(r.s.users, id)
	return nil
}

func (s *Store) countRole(role models.Role) int {
	n := 0
	for _, u := range s.users {
		if u.Role == role {
			n++
		}
	}
	return n
}

// Categories implements the category repository
type Categories struct{ s *Store }

func (r *Categories) Create(ctx context.Context, category *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.tick()
	category.ID = r.s.id()
	category.CreatedAt, category.UpdatedAt = now, now
	r.s.categories[category.ID] = *category
	return nil
}

func (r *Categories) GetByID(ctx context.Context, id int) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, apperr.NotFound("category not found")
	}
	return &c, nil
}

func (r *Categories) List(ctx context.Context) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	categories := make([]models.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Name != categories[j].Name {
			return categories[i].Name < categories[j].Name
		}
		return categories[i].ID < categories[j].ID
	})
	return categories, nil
}

func (r *Categories) Update(ctx context.Context, id int, changes models.CategoryChanges) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.categories[id]
	if !ok {
		return apperr.NotFound("category not found")
	}
	if changes.Name != nil {
		c.Name = *changes.Name
	}
	if changes.Color != nil {
		c.Color = changes.Color
	}
	if changes.ClearColor {
		c.Color = nil
	}
	c.UpdatedAt = r.s.tick()
	r.s.categories[id] = c
	return nil
}

func (r *Categories) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return apperr.NotFound("category not found")
	}
	for todoID, t := range r.s.todos {
		if t.CategoryID != nil && *t.CategoryID == id {
			t.CategoryID = nil
			r.s.todos[todoID] = t
		}
	}
	delete(r.s.categories, id)
	return nil
}

// Todos implements the todo repository
type Todos struct{ s *Store }

func (r *Todos) Create(ctx context.Context, todo *models.Todo) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.tick()
	todo.ID = r.s.id()
	todo.CreatedAt, todo.UpdatedAt = now, now
	stored := *todo
	stored.Category, stored.CreatedBy, stored.AssignedTo = nil, nil, nil
	r.s.todos[todo.ID] = stored
	return nil
}

func (r *Todos) GetByID(ctx context.Context, id int) (*models.Todo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.todos[id]
	if !ok {
		return nil, apperr.NotFound("todo not found")
	}
	joined := r.s.join(t)
	return &joined, nil
}

func (r *Todos) List(ctx context.Context, filter models.TodoFilter) ([]models.Todo, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []models.Todo
	for _, t := range r.s.todos {
		if matches(t, filter) {
			matched = append(matched, r.s.join(t))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return append([]models.Todo{}, matched[start:end]...), total, nil
}

func (r *Todos) Update(ctx context.Context, id int, changes models.TodoChanges) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.todos[id]
	if !ok {
		return apperr.NotFound("todo not found")
	}
	if changes.Title != nil {
		t.Title = *changes.Title
	}
	if changes.Description != nil {
		t.Description = changes.Description
	}
	if changes.ClearDescription {
		t.Description = nil
	}
	if changes.Status != nil {
		t.Status = *changes.Status
	}
	if changes.Priority != nil {
		t.Priority = *changes.Priority
	}
	if changes.DueDate != nil {
		t.DueDate = changes.DueDate
	}
	if changes.ClearDueDate {
		t.DueDate = nil
	}
	if changes.CategoryID != nil {
		t.CategoryID = changes.CategoryID
	}
	if changes.ClearCategory {
		t.CategoryID = nil
	}
	if changes.AssignedToID != nil {
		t.AssignedToID = changes.AssignedToID
	}
	if changes.ClearAssignee {
		t.AssignedToID = nil
	}
	t.UpdatedAt = r.s.tick()
	r.s.todos[id] = t
	return nil
}

func (r *Todos) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.todos[id]; !ok {
		return apperr.NotFound("todo not found")
	}
	delete(r.s.todos, id)
	return nil
}

// Count returns the number of stored todos
func (r *Todos) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return len(r.s.todos)
}

func matches(t models.Todo, f models.TodoFilter) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
		return false
	}
	if f.AssignedToID != nil && (t.AssignedToID == nil || *t.AssignedToID != *f.AssignedToID) {
		return false
	}
	if f.ExcludeAssignedToID != nil && t.AssignedToID != nil && *t.AssignedToID == *f.ExcludeAssignedToID {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		description := ""
		if t.Description != nil {
			description = *t.Description
		}
		if !strings.Contains(strings.ToLower(t.Title), needle) && !strings.Contains(strings.ToLower(description), needle) {
			return false
		}
	}
	return true
}

// join fills the related category and users the way the SQL query does
func (s *Store) join(t models.Todo) models.Todo {
	t.Category, t.CreatedBy, t.AssignedTo = nil, nil, nil
	if t.CategoryID != nil {
		if c, ok := s.categories[*t.CategoryID]; ok {
			t.Category = &models.CategorySummary{ID: c.ID, Name: c.Name, Color: c.Color}
		}
	}
	if u, ok := s.users[t.CreatedByID]; ok {
		t.CreatedBy = &models.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	if t.AssignedToID != nil {
		if u, ok := s.users[*t.AssignedToID]; ok {
			t.AssignedTo = &models.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}
	return t
}
