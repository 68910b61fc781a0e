package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/todoboard/backend/internal/models"
	"go.uber.org/zap"
)

// DueTodoSource lists open, assigned todos due in a time range
type DueTodoSource interface {
	ListDueBetween(ctx context.Context, from, to time.Time) ([]models.DueTodo, error)
}

// Marker records that something happened, at most once per key
type Marker interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unmark(ctx context.Context, key string) error
}

// ReminderNotifier enqueues due date reminders
type ReminderNotifier interface {
	NotifyDueReminder(ctx context.Context, payload models.TodoDueReminderPayload) error
}

// ReminderScanner finds todos due within a window and enqueues one reminder per todo
type ReminderScanner struct {
	todos    DueTodoSource
	marker   Marker
	notifier ReminderNotifier
	window   time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewReminderScanner creates a new reminder scanner
func NewReminderScanner(todos DueTodoSource, marker Marker, notifier ReminderNotifier, window time.Duration, logger *zap.Logger) *ReminderScanner {
	return &ReminderScanner{
		todos:    todos,
		marker:   marker,
		notifier: notifier,
		window:   window,
		logger:   logger,
		now:      time.Now,
	}
}

// Run scans once and returns the number of reminders enqueued.
// Failures for a single todo are logged and do not stop the scan.
func (s *ReminderScanner) Run(ctx context.Context) (int, error) {
	now := s.now().UTC()
	due, err := s.todos.ListDueBetween(ctx, now, now.Add(s.window))
	if err != nil {
		return 0, fmt.Errorf("failed to list due todos: %w", err)
	}

	sent := 0
	for _, todo := range due {
		// The marker outlives the due date so the todo is not reminded again
		ttl := todo.DueDate.Sub(now) + s.window
		key := reminderKey(todo.ID, todo.DueDate)
		first, err := s.marker.MarkOnce(ctx, key, ttl)
		if err != nil {
			s.logger.Error("Failed to mark reminder", zap.Int("todo_id", todo.ID), zap.Error(err))
			continue
		}
		if !first {
			continue
		}

		payload := models.TodoDueReminderPayload{
			TodoID:        todo.ID,
			Title:         todo.Title,
			DueDate:       todo.DueDate,
			AssigneeEmail: todo.AssigneeEmail,
			AssigneeName:  todo.AssigneeName,
		}
		if err := s.notifier.NotifyDueReminder(ctx, payload); err != nil {
			s.logger.Error("Failed to enqueue reminder", zap.Int("todo_id", todo.ID), zap.Error(err))
			// let the next scan retry
			if err := s.marker.Unmark(ctx, key); err != nil {
				s.logger.Error("Failed to clear reminder marker", zap.Int("todo_id", todo.ID), zap.Error(err))
			}
			continue
		}
		sent++
	}

	s.logger.Info("Reminder scan finished", zap.Int("due", len(due)), zap.Int("enqueued", sent))
	return sent, nil
}

// reminderKey matches the asynq task ID, so moving the due date allows a new reminder
func reminderKey(todoID int, dueDate time.Time) string {
	return fmt.Sprintf("todo:reminder:%d:%d", todoID, dueDate.Unix())
}
