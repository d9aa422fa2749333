package services

import (
	"context"
	"fmt"

	"github.com/wellnesshub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ScoreRepository is the interface that wraps the learner score update
type ScoreRepository interface {
	// IncrementScore adds weight to the learner's progress bar and badgeCount to their badge counter.
	//
	// "ctx" is the context for the request.
	// "userID" is the learner.
	// "weight" and "badgeCount" are non-negative deltas.
	//
	// If the account does not exist, repositories.ErrNotFound is returned.
	IncrementScore(ctx context.Context, userID primitive.ObjectID, weight float64, badgeCount int) error
}

// EarnedBadgeAppender is the interface that wraps the idempotent earned badge append
type EarnedBadgeAppender interface {
	// AppendEarnedBadges appends every entry whose badge is not earned yet.
	// It returns the entries that were written, which may be fewer than given
	// when a concurrent evaluation recorded some of them first.
	AppendEarnedBadges(ctx context.Context, userID, courseID primitive.ObjectID, entries []models.EarnedBadge) ([]models.EarnedBadge, error)
}

type scoreAccumulator struct {
	ledger   EarnedBadgeAppender
	accounts ScoreRepository
	logger   *zap.Logger
}

// NewScoreAccumulator creates the component recording awards on the ledger and the account
func NewScoreAccumulator(ledger EarnedBadgeAppender, accounts ScoreRepository, logger *zap.Logger) *scoreAccumulator {
	return &scoreAccumulator{
		ledger:   ledger,
		accounts: accounts,
		logger:   logger,
	}
}

// ApplyAward appends the award's badges to the ledger and adds the weight and count of the
// badges actually written to the learner's score. It returns the recorded part of the award.
func (a *scoreAccumulator) ApplyAward(ctx context.Context, userID, courseID primitive.ObjectID, award Award) (Award, error) {
	if len(award.Entries) == 0 {
		return Award{}, nil
	}

	written, err := a.ledger.AppendEarnedBadges(ctx, userID, courseID, award.Entries)
	if err != nil {
		return Award{}, fmt.Errorf("failed to record earned badges: %w", err)
	}
	if len(written) < len(award.Entries) {
		a.logger.Warn("some earned badges were already recorded",
			zap.String("user_id", userID.Hex()),
			zap.String("course_id", courseID.Hex()),
			zap.Int("evaluated", len(award.Entries)),
			zap.Int("recorded", len(written)),
		)
	}
	if len(written) == 0 {
		return Award{}, nil
	}

	recorded := award.subset(written)
	if recorded.TotalWeight > 0 {
		if err := a.accounts.IncrementScore(ctx, userID, recorded.TotalWeight, len(recorded.Entries)); err != nil {
			return Award{}, fmt.Errorf("failed to update learner score: %w", err)
		}
	}

	return recorded, nil
}
