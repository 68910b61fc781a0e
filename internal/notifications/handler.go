package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/todoboard/backend/internal/models"
	"go.uber.org/zap"
)

// Handler processes notification tasks in the worker
type Handler struct {
	mailer Mailer
	logger *zap.Logger
}

// NewHandler creates a new notification task handler
func NewHandler(mailer Mailer, logger *zap.Logger) *Handler {
	return &Handler{
		mailer: mailer,
		logger: logger,
	}
}

// Register registers the task handlers on mux
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(models.TaskTypeTodoAssigned, h.HandleTodoAssigned)
	mux.HandleFunc(models.TaskTypeTodoDueReminder, h.HandleDueReminder)
}

// HandleTodoAssigned emails the assignee of a todo
func (h *Handler) HandleTodoAssigned(ctx context.Context, t *asynq.Task) error {
	var payload models.TodoAssignedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if payload.AssigneeEmail == "" {
		return fmt.Errorf("%s payload has no recipient: %w", t.Type(), asynq.SkipRetry)
	}

	subject, body, err := renderAssigned(payload)
	if err != nil {
		return err
	}
	if err := h.mailer.Send(ctx, payload.AssigneeEmail, subject, body); err != nil {
		return err
	}

	h.logger.Info("Assignment notification sent", zap.Int("todo_id", payload.TodoID))
	return nil
}

// HandleDueReminder emails a due date reminder to the assignee of a todo
func (h *Handler) HandleDueReminder(ctx context.Context, t *asynq.Task) error {
	var payload models.TodoDueReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if payload.AssigneeEmail == "" {
		return fmt.Errorf("%s payload has no recipient: %w", t.Type(), asynq.SkipRetry)
	}

	subject, body, err := renderReminder(payload)
	if err != nil {
		return err
	}
	if err := h.mailer.Send(ctx, payload.AssigneeEmail, subject, body); err != nil {
		return err
	}

	h.logger.Info("Due reminder sent", zap.Int("todo_id", payload.TodoID))
	return nil
}
