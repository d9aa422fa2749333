package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/wellnesshub/backend/internal/models"
	"go.uber.org/zap"
)

const (
	// TypeNotification is the asynq task type of queued notifications
	TypeNotification = "notification:send"
	// NotificationQueue is the asynq queue notifications are sent to
	NotificationQueue = "notifications"
)

// TaskEnqueuer is the subset of the asynq client used for notifications
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NotificationDispatcher queues notifications for the worker
type NotificationDispatcher struct {
	client TaskEnqueuer
	logger *zap.Logger
}

// NewNotificationDispatcher creates a notification dispatcher
func NewNotificationDispatcher(client TaskEnqueuer, logger *zap.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{
		client: client,
		logger: logger,
	}
}

// Notify enqueues the notification
func (d *NotificationDispatcher) Notify(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	info, err := d.client.EnqueueContext(ctx, asynq.NewTask(TypeNotification, payload),
		asynq.Queue(NotificationQueue),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	d.logger.Debug("notification queued", zap.String("type", string(n.Type)), zap.String("task_id", info.ID))
	return nil
}

// ParseNotification decodes a queued notification payload
func ParseNotification(task *asynq.Task) (models.Notification, error) {
	var n models.Notification
	if err := json.Unmarshal(task.Payload(), &n); err != nil {
		return n, fmt.Errorf("failed to decode notification: %w", err)
	}
	if n.RecipientID == "" {
		return n, fmt.Errorf("notification has no recipient")
	}
	return n, nil
}
