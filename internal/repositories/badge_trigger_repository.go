package repositories

import (
	"context"
	"fmt"

	"github.com/wellnesshub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const badgeTriggersCollection = "badgeTriggers"

type badgeTriggerRepository struct {
	triggers *mongo.Collection
	logger   *zap.Logger
}

// NewBadgeTriggerRepository creates a read-only repository of badge triggers
func NewBadgeTriggerRepository(db *mongo.Database, logger *zap.Logger) *badgeTriggerRepository {
	return &badgeTriggerRepository{
		triggers: db.Collection(badgeTriggersCollection),
		logger:   logger,
	}
}

// ListAll returns every badge trigger ordered by name
func (r *badgeTriggerRepository) ListAll(ctx context.Context) ([]models.BadgeTrigger, error) {
	cursor, err := r.triggers.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		r.logger.Error("failed to query badge triggers", zap.Error(err))
		return nil, fmt.Errorf("failed to query badge triggers: %w", err)
	}
	defer cursor.Close(ctx)

	triggers := []models.BadgeTrigger{}
	if err := cursor.All(ctx, &triggers); err != nil {
		r.logger.Error("failed to decode badge triggers", zap.Error(err))
		return nil, fmt.Errorf("failed to decode badge triggers: %w", err)
	}
	return triggers, nil
}
