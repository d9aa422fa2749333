package services

import (
	"context"
	"fmt"
	"time"

	"github.com/wellnesshub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// StaleProgressRepository is the interface that wraps methods used by the reminder sweep
type StaleProgressRepository interface {
	// FindStale retrieves up to "limit" incomplete ledgers created before "cutoff" that were not reminded yet.
	FindStale(ctx context.Context, cutoff time.Time, limit int64) ([]models.CourseProgress, error)
	// MarkReminded records that a reminder was queued for the ledger.
	MarkReminded(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

const reminderBatchSize = 500

type reminderService struct {
	progress   StaleProgressRepository
	notifier   Notifier
	staleAfter time.Duration
	logger     *zap.Logger
}

// NewReminderService creates the stale enrollment sweep
func NewReminderService(progress StaleProgressRepository, notifier Notifier, staleAfter time.Duration, logger *zap.Logger) *reminderService {
	return &reminderService{
		progress:   progress,
		notifier:   notifier,
		staleAfter: staleAfter,
		logger:     logger,
	}
}

// SweepStaleEnrollments queues one reminder per incomplete enrollment older than the stale age
// and returns how many were queued. A ledger whose reminder could not be queued is retried on the next sweep.
func (s *reminderService) SweepStaleEnrollments(ctx context.Context, now time.Time) (int, error) {
	ledgers, err := s.progress.FindStale(ctx, now.Add(-s.staleAfter), reminderBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to find stale enrollments: %w", err)
	}

	queued := 0
	for _, ledger := range ledgers {
		n := models.Notification{
			Type:        models.NotificationStaleEnrollment,
			RecipientID: ledger.UserID.Hex(),
			CourseID:    ledger.CourseID.Hex(),
			Message:     fmt.Sprintf("Hi %s, your course is waiting for you. Pick up where you left off!", ledger.UserName),
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.logger.Warn("failed to queue reminder", zap.String("ledger_id", ledger.ID.Hex()), zap.Error(err))
			continue
		}
		if err := s.progress.MarkReminded(ctx, ledger.ID, now); err != nil {
			s.logger.Warn("failed to mark ledger reminded", zap.String("ledger_id", ledger.ID.Hex()), zap.Error(err))
			continue
		}
		queued++
	}

	return queued, nil
}
