package models

import "time"

// Task type names handled by the worker
const (
	TaskTypeTodoAssigned    = "todo:assigned"
	TaskTypeTodoDueReminder = "todo:due_reminder"
)

// TodoAssignedPayload is the payload of a todo:assigned task
type TodoAssignedPayload struct {
	TodoID        int        `json:"todoId"`
	Title         string     `json:"title"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	AssigneeEmail string     `json:"assigneeEmail"`
	AssigneeName  string     `json:"assigneeName"`
}

// TodoDueReminderPayload is the payload of a todo:due_reminder task
type TodoDueReminderPayload struct {
	TodoID        int       `json:"todoId"`
	Title         string    `json:"title"`
	DueDate       time.Time `json:"dueDate"`
	AssigneeEmail string    `json:"assigneeEmail"`
	AssigneeName  string    `json:"assigneeName"`
}

// DueTodo is an open, assigned todo approaching its due date
type DueTodo struct {
	ID            int
	Title         string
	DueDate       time.Time
	AssigneeEmail string
	AssigneeName  string
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	OK bool `json:"ok"`
}
