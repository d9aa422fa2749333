package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/wellnesshub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const accountsCollection = "users"

type accountRepository struct {
	accounts *mongo.Collection
	logger   *zap.Logger
}

// NewAccountRepository creates a repository for learner accounts
func NewAccountRepository(db *mongo.Database, logger *zap.Logger) *accountRepository {
	return &accountRepository{
		accounts: db.Collection(accountsCollection),
		logger:   logger,
	}
}

// GetByID returns the account fields used by course progress, or ErrNotFound
func (r *accountRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	projection := bson.M{"name": 1, "email": 1, "profilePic": 1, "progressBar": 1, "badges": 1, "enrolledCourses": 1}

	var account models.Account
	err := r.accounts.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(projection)).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get account", zap.String("user_id", id.Hex()), zap.Error(err))
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// IncrementScore adds weight to the progress bar and badgeCount to the badge counter.
// Only positive deltas are applied so scores never decrease.
func (r *accountRepository) IncrementScore(ctx context.Context, id primitive.ObjectID, weight float64, badgeCount int) error {
	if weight < 0 || badgeCount < 0 {
		return fmt.Errorf("negative score delta: weight=%v badges=%d", weight, badgeCount)
	}

	res, err := r.accounts.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"progressBar": weight, "badges": badgeCount}},
	)
	if err != nil {
		r.logger.Error("failed to increment score", zap.String("user_id", id.Hex()), zap.Error(err))
		return fmt.Errorf("failed to increment score: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddEnrolledCourse adds the course to the learner's enrolled set
func (r *accountRepository) AddEnrolledCourse(ctx context.Context, id, courseID primitive.ObjectID) error {
	res, err := r.accounts.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"enrolledCourses": courseID}},
	)
	if err != nil {
		r.logger.Error("failed to add enrolled course", zap.String("user_id", id.Hex()), zap.Error(err))
		return fmt.Errorf("failed to add enrolled course: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
