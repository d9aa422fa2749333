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

type courseRepository struct {
	courses *mongo.Collection
	lessons *ListStore[models.Lesson]
	badges  *ListStore[models.Badge]
	logger  *zap.Logger
}

// NewCourseRepository creates a course repository reading lists through the given stores
func NewCourseRepository(db *mongo.Database, lessons *ListStore[models.Lesson], badges *ListStore[models.Badge], logger *zap.Logger) *courseRepository {
	return &courseRepository{
		courses: db.Collection(coursesCollection),
		lessons: lessons,
		badges:  badges,
		logger:  logger,
	}
}

// GetByID returns the course with both lists read through their list stores,
// so items in overflow storage follow the primary items.
// If the course does not exist, ErrNotFound is returned.
func (r *courseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error) {
	var course models.Course
	err := r.courses.FindOne(ctx,
		bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{LessonPartition.ListField: 0, BadgePartition.ListField: 0}),
	).Decode(&course)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get course", zap.String("course_id", id.Hex()), zap.Error(err))
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if course.Lessons, err = r.lessons.Read(ctx, id); err != nil {
		return nil, err
	}
	if course.Badges, err = r.badges.Read(ctx, id); err != nil {
		return nil, err
	}

	if course.Lessons == nil {
		course.Lessons = []models.Lesson{}
	}
	if course.Badges == nil {
		course.Badges = []models.Badge{}
	}
	return &course, nil
}

// IncrementLearnerCounters applies deltas to the ongoing and completed learner counters.
// If the course does not exist, ErrNotFound is returned.
func (r *courseRepository) IncrementLearnerCounters(ctx context.Context, id primitive.ObjectID, ongoingDelta, completedDelta int) error {
	res, err := r.courses.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"userOngoing": ongoingDelta, "userCompletedCourse": completedDelta},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		r.logger.Error("failed to update course counters", zap.String("course_id", id.Hex()), zap.Error(err))
		return fmt.Errorf("failed to update course counters: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
