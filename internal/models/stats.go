package models

import "time"

// UncategorizedLabel names the bucket of todos without a category
const UncategorizedLabel = "Uncategorized"

// DashboardStats is the body of GET /dashboard/stats
type DashboardStats struct {
	Totals          StatsTotals          `json:"totals"`
	TodosByStatus   map[TodoStatus]int   `json:"todosByStatus"`
	TodosByPriority map[TodoPriority]int `json:"todosByPriority"`
	TodosByCategory []CategoryCount      `json:"todosByCategory"`
	RecentTodos     []RecentTodo         `json:"recentTodos"`
}

// StatsTotals holds row counts
type StatsTotals struct {
	Todos      int `json:"todos"`
	Users      int `json:"users"`
	Categories int `json:"categories"`
}

// CategoryCount is the number of todos in a category
type CategoryCount struct {
	CategoryID *int   `json:"categoryId"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
}

// RecentTodo is a todo as listed on the dashboard
type RecentTodo struct {
	ID         int              `json:"id"`
	Title      string           `json:"title"`
	Status     TodoStatus       `json:"status"`
	Priority   TodoPriority     `json:"priority"`
	CreatedAt  time.Time        `json:"createdAt"`
	Category   *CategorySummary `json:"category"`
	AssignedTo *UserSummary     `json:"assignedTo"`
}
