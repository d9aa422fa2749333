package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wellnesshub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const progressCollection = "courseProgress"

type progressRepository struct {
	progress *mongo.Collection
	logger   *zap.Logger
}

// NewProgressRepository creates a repository for progress ledgers
func NewProgressRepository(db *mongo.Database, logger *zap.Logger) *progressRepository {
	return &progressRepository{
		progress: db.Collection(progressCollection),
		logger:   logger,
	}
}

// Create inserts a new ledger. A second ledger for the same learner and course
// violates the unique index and yields ErrAlreadyExists.
func (r *progressRepository) Create(ctx context.Context, ledger *models.CourseProgress) error {
	res, err := r.progress.InsertOne(ctx, ledger)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		r.logger.Error("failed to create progress ledger", zap.Error(err))
		return fmt.Errorf("failed to create progress ledger: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		ledger.ID = id
	}
	return nil
}

// Get returns the ledger of the learner in the course, or ErrNotFound
func (r *progressRepository) Get(ctx context.Context, userID, courseID primitive.ObjectID) (*models.CourseProgress, error) {
	var ledger models.CourseProgress
	err := r.progress.FindOne(ctx, bson.M{"userId": userID, "courseId": courseID}).Decode(&ledger)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get progress ledger", zap.Error(err))
		return nil, fmt.Errorf("failed to get progress ledger: %w", err)
	}
	return &ledger, nil
}

// AddCompletedLesson adds the lesson to the completed set if it is absent and the course
// is not completed, and returns the updated ledger.
// When the condition does not hold (or there is no ledger) ErrNoMatch is returned.
func (r *progressRepository) AddCompletedLesson(ctx context.Context, userID, courseID primitive.ObjectID, entry models.CompletedLesson) (*models.CourseProgress, error) {
	filter := bson.M{
		"userId":                    userID,
		"courseId":                  courseID,
		"isCompleted":               false,
		"completedLessons.lessonId": bson.M{"$ne": entry.LessonID},
	}
	update := bson.M{
		"$push": bson.M{"completedLessons": entry},
		"$set":  bson.M{"updatedAt": entry.CompletedAt},
	}

	return r.findOneAndUpdate(ctx, filter, update, "failed to add completed lesson")
}

// MarkCompleted completes the course if it is not completed yet, storing the review,
// rating and answers, and returns the updated ledger.
// When the ledger is missing or already completed ErrNoMatch is returned.
func (r *progressRepository) MarkCompleted(ctx context.Context, userID, courseID primitive.ObjectID, review string, rating float64, answers []models.Answer) (*models.CourseProgress, error) {
	if answers == nil {
		answers = []models.Answer{}
	}

	filter := bson.M{"userId": userID, "courseId": courseID, "isCompleted": false}
	update := bson.M{
		"$set": bson.M{
			"isCompleted": true,
			"review":      review,
			"rating":      rating,
			"updatedAt":   time.Now().UTC(),
		},
		"$push": bson.M{"answers": bson.M{"$each": answers}},
	}

	return r.findOneAndUpdate(ctx, filter, update, "failed to complete course")
}

// AppendEarnedBadges appends each entry whose badge id is not earned yet and returns
// the entries that were written. Every entry carries its own guard, so a concurrent
// evaluation that recorded some of the badges does not drop the rest.
func (r *progressRepository) AppendEarnedBadges(ctx context.Context, userID, courseID primitive.ObjectID, entries []models.EarnedBadge) ([]models.EarnedBadge, error) {
	var recorded []models.EarnedBadge
	for _, entry := range entries {
		res, err := r.progress.UpdateOne(ctx,
			bson.M{
				"userId":               userID,
				"courseId":             courseID,
				"earnedBadges.badgeId": bson.M{"$ne": entry.BadgeID},
			},
			bson.M{
				"$push": bson.M{"earnedBadges": entry},
				"$set":  bson.M{"updatedAt": time.Now().UTC()},
			},
		)
		if err != nil {
			r.logger.Error("failed to append earned badge",
				zap.String("badge_id", entry.BadgeID.Hex()),
				zap.Error(err),
			)
			return recorded, fmt.Errorf("failed to append earned badge: %w", err)
		}
		if res.ModifiedCount > 0 {
			recorded = append(recorded, entry)
		}
	}
	return recorded, nil
}

// FindStale returns incomplete ledgers created before cutoff that have not been reminded
func (r *progressRepository) FindStale(ctx context.Context, cutoff time.Time, limit int64) ([]models.CourseProgress, error) {
	filter := bson.M{
		"isCompleted":    false,
		"createdAt":      bson.M{"$lt": cutoff},
		"reminderSentAt": bson.M{"$exists": false},
	}

	cursor, err := r.progress.Find(ctx, filter, options.Find().SetLimit(limit).SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		r.logger.Error("failed to query stale ledgers", zap.Error(err))
		return nil, fmt.Errorf("failed to query stale ledgers: %w", err)
	}
	defer cursor.Close(ctx)

	var ledgers []models.CourseProgress
	if err := cursor.All(ctx, &ledgers); err != nil {
		r.logger.Error("failed to decode stale ledgers", zap.Error(err))
		return nil, fmt.Errorf("failed to decode stale ledgers: %w", err)
	}
	return ledgers, nil
}

// MarkReminded records that a reminder was queued for the ledger
func (r *progressRepository) MarkReminded(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.progress.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"reminderSentAt": at}})
	if err != nil {
		r.logger.Error("failed to mark ledger reminded", zap.Error(err))
		return fmt.Errorf("failed to mark ledger reminded: %w", err)
	}
	return nil
}

func (r *progressRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M, msg string) (*models.CourseProgress, error) {
	var ledger models.CourseProgress
	err := r.progress.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ledger)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoMatch
	}
	if err != nil {
		r.logger.Error(msg, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	return &ledger, nil
}
