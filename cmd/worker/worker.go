package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/wellnesshub/backend/internal/models"
	"github.com/wellnesshub/backend/internal/repositories"
	"github.com/wellnesshub/backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// AccountRepository defines the interface for resolving notification recipients
type AccountRepository interface {
	// GetByID retrieves an account by its ID
	//
	// "id" parameter is used to retrieve the account.
	//
	// If the account does not exist, ErrNotFound is returned together with "nil" value.
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
}

// SMTPSettings holds the outgoing mail settings of the worker
type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Worker delivers queued notifications by email
type Worker struct {
	logger   *zap.Logger
	accounts AccountRepository
	smtp     SMTPSettings
	send     func(m *mail.Message) error
}

// NewWorker creates a new worker instance
func NewWorker(logger *zap.Logger, accounts AccountRepository, smtp SMTPSettings) *Worker {
	w := &Worker{
		logger:   logger,
		accounts: accounts,
		smtp:     smtp,
	}
	w.send = w.dialAndSend
	return w
}

// HandleNotification handles notification delivery
func (w *Worker) HandleNotification(ctx context.Context, t *asynq.Task) error {
	n, err := services.ParseNotification(t)
	if err != nil {
		// A malformed payload never succeeds, so it is not retried
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	recipientID, err := primitive.ObjectIDFromHex(n.RecipientID)
	if err != nil {
		return fmt.Errorf("invalid recipient id %q: %w", n.RecipientID, asynq.SkipRetry)
	}

	account, err := w.accounts.GetByID(ctx, recipientID)
	if err != nil {
		// Account was removed after the notification was queued
		if errors.Is(err, repositories.ErrNotFound) {
			w.logger.Info("Notification recipient not found, skipping", zap.String("recipient_id", n.RecipientID))
			return nil
		}
		return err
	}
	if account.Email == "" {
		w.logger.Info("Notification recipient has no email, skipping", zap.String("recipient_id", n.RecipientID))
		return nil
	}

	if err := w.send(w.buildMessage(account.Email, n)); err != nil {
		return err
	}

	w.logger.Info("Notification sent", zap.String("type", string(n.Type)), zap.String("recipient_id", n.RecipientID))
	return nil
}

// buildMessage renders the notification email
func (w *Worker) buildMessage(to string, n models.Notification) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", w.smtp.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", notificationSubject(n))
	m.SetBody("text/plain", n.Message)
	return m
}

func notificationSubject(n models.Notification) string {
	switch n.Type {
	case models.NotificationEnrolled:
		return fmt.Sprintf("New learner in %s", n.CourseTitle)
	case models.NotificationCourseFeedback:
		return fmt.Sprintf("New review of %s", n.CourseTitle)
	case models.NotificationStaleEnrollment:
		return "Your course is waiting for you"
	default:
		return "WellnessHub notification"
	}
}

// dialAndSend sends an email using gopkg.in/mail.v2
func (w *Worker) dialAndSend(m *mail.Message) error {
	d := mail.NewDialer(w.smtp.Host, w.smtp.Port, w.smtp.Username, w.smtp.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
