// Package notifications delivers todo notifications by email through asynq tasks.
//
// The API enqueues todo:assigned tasks, the scheduler enqueues todo:due_reminder
// tasks and the worker renders and sends both.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/todoboard/backend/internal/models"
)

// Queue is the asynq queue notification tasks are sent to
const Queue = "notifications"

const maxRetry = 5

// Enqueuer is the subset of *asynq.Client used by the producer
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Producer enqueues notification tasks
type Producer struct {
	client Enqueuer
}

// NewProducer creates a new notification producer
func NewProducer(client Enqueuer) *Producer {
	return &Producer{client: client}
}

// NotifyTodoAssigned enqueues an email to the new assignee of a todo
func (p *Producer) NotifyTodoAssigned(ctx context.Context, payload models.TodoAssignedPayload) error {
	return p.enqueue(ctx, models.TaskTypeTodoAssigned, payload)
}

// NotifyDueReminder enqueues a due date reminder.
// The task ID is derived from the todo and its due date, so a reminder
// already queued for the same due date is not queued twice.
func (p *Producer) NotifyDueReminder(ctx context.Context, payload models.TodoDueReminderPayload) error {
	taskID := fmt.Sprintf("reminder:%d:%d", payload.TodoID, payload.DueDate.Unix())
	err := p.enqueue(ctx, models.TaskTypeTodoDueReminder, payload, asynq.TaskID(taskID))
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func (p *Producer) enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}

	opts = append([]asynq.Option{asynq.Queue(Queue), asynq.MaxRetry(maxRetry)}, opts...)
	if _, err := p.client.EnqueueContext(ctx, asynq.NewTask(taskType, data), opts...); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}

	return nil
}
