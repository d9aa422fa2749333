package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wellnesshub/backend/internal/models"
	"github.com/wellnesshub/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// LessonStore is the interface that wraps the overflow-aware lesson list of a course
type LessonStore interface {
	// Append adds a lesson to the course, spilling into overflow storage once the course document is full.
	//
	// If the course does not exist, repositories.ErrNotFound is returned.
	Append(ctx context.Context, courseID primitive.ObjectID, lesson models.Lesson) error
	// Update sets "fields" on the lesson in whichever partition holds it.
	//
	// If the lesson is in neither partition, repositories.ErrItemNotFound is returned.
	Update(ctx context.Context, courseID, lessonID primitive.ObjectID, fields bson.M) error
	// Delete removes the lesson from whichever partition holds it.
	//
	// Please reference Update method for error values.
	Delete(ctx context.Context, courseID, lessonID primitive.ObjectID) error
}

// BadgeStore is the interface that wraps the overflow-aware badge list of a course
type BadgeStore interface {
	// Append adds a badge to the course. Please reference LessonStore for partition behavior.
	Append(ctx context.Context, courseID primitive.ObjectID, badge models.Badge) error
	// Update sets "fields" on the badge in whichever partition holds it.
	Update(ctx context.Context, courseID, badgeID primitive.ObjectID, fields bson.M) error
}

type courseContentService struct {
	courses  CourseRepository
	lessons  LessonStore
	badges   BadgeStore
	triggers TriggerRegistry
	now      func() time.Time
	logger   *zap.Logger
}

// NewCourseContentService creates the service for lesson and badge authoring
func NewCourseContentService(courses CourseRepository, lessons LessonStore, badges BadgeStore, triggers TriggerRegistry, logger *zap.Logger) *courseContentService {
	return &courseContentService{
		courses:  courses,
		lessons:  lessons,
		badges:   badges,
		triggers: triggers,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// GetCourse returns the course with all of its lessons and badges
func (s *courseContentService) GetCourse(ctx context.Context, courseID primitive.ObjectID) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		s.logger.Error("failed to get course", zap.String("course_id", courseID.Hex()), zap.Error(err))
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

// ListTriggers returns the badge trigger registry
func (s *courseContentService) ListTriggers(ctx context.Context) ([]models.BadgeTrigger, error) {
	triggers, err := s.triggers.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list badge triggers", zap.Error(err))
		return nil, fmt.Errorf("failed to list badge triggers: %w", err)
	}
	return triggers, nil
}

// AppendLesson adds a lesson to a course owned by mentorID
//
// Lesson number and title must be unique within the course.
func (s *courseContentService) AppendLesson(ctx context.Context, mentorID, courseID primitive.ObjectID, req *models.CreateLessonRequest) (*models.Lesson, error) {
	title := strings.TrimSpace(req.Title)
	if req.Number < 1 || title == "" || req.Duration < 0 {
		return nil, fmt.Errorf("%w: lesson number must be positive and title must not be empty", ErrInvalidRequest)
	}

	course, err := s.getOwnedCourse(ctx, mentorID, courseID)
	if err != nil {
		return nil, err
	}

	if err := checkLessonUnique(course.Lessons, primitive.NilObjectID, req.Number, title); err != nil {
		return nil, err
	}

	now := s.now()
	lesson := models.Lesson{
		ID:          primitive.NewObjectID(),
		CourseID:    courseID,
		Number:      req.Number,
		Title:       title,
		Description: req.Description,
		Duration:    req.Duration,
		VideoURL:    req.VideoURL,
		PdfURL:      req.PdfURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.lessons.Append(ctx, courseID, lesson); err != nil {
		return nil, s.storageError("failed to append lesson", err)
	}
	return &lesson, nil
}

// UpdateLesson applies a partial update to a lesson
func (s *courseContentService) UpdateLesson(ctx context.Context, mentorID, courseID, lessonID primitive.ObjectID, req *models.UpdateLessonRequest) (*models.Lesson, error) {
	course, err := s.getOwnedCourse(ctx, mentorID, courseID)
	if err != nil {
		return nil, err
	}

	lesson, ok := course.FindLesson(lessonID)
	if !ok {
		return nil, ErrLessonNotFound
	}

	fields := bson.M{}
	if req.Number != nil {
		if *req.Number < 1 {
			return nil, fmt.Errorf("%w: lesson number must be positive", ErrInvalidRequest)
		}
		lesson.Number = *req.Number
		fields["number"] = lesson.Number
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidRequest)
		}
		lesson.Title = title
		fields["title"] = title
	}
	if req.Description != nil {
		lesson.Description = *req.Description
		fields["description"] = lesson.Description
	}
	if req.Duration != nil {
		if *req.Duration < 0 {
			return nil, fmt.Errorf("%w: duration must not be negative", ErrInvalidRequest)
		}
		lesson.Duration = *req.Duration
		fields["duration"] = lesson.Duration
	}
	if req.VideoURL != nil {
		lesson.VideoURL = *req.VideoURL
		fields["videoUrl"] = lesson.VideoURL
	}
	if req.PdfURL != nil {
		lesson.PdfURL = *req.PdfURL
		fields["pdfUrl"] = lesson.PdfURL
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidRequest)
	}

	if err := checkLessonUnique(course.Lessons, lessonID, lesson.Number, lesson.Title); err != nil {
		return nil, err
	}

	lesson.UpdatedAt = s.now()
	fields["updatedAt"] = lesson.UpdatedAt

	if err := s.lessons.Update(ctx, courseID, lessonID, fields); err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, s.storageError("failed to update lesson", err)
	}
	return &lesson, nil
}

// DeleteLesson removes a lesson from a course
func (s *courseContentService) DeleteLesson(ctx context.Context, mentorID, courseID, lessonID primitive.ObjectID) error {
	if _, err := s.getOwnedCourse(ctx, mentorID, courseID); err != nil {
		return err
	}

	if err := s.lessons.Delete(ctx, courseID, lessonID); err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return ErrLessonNotFound
		}
		return s.storageError("failed to delete lesson", err)
	}
	return nil
}

// AppendBadge adds a badge to a course owned by mentorID
//
// The trigger must exist, and among the course's non-deleted badges name and trigger must be unique.
func (s *courseContentService) AppendBadge(ctx context.Context, mentorID, courseID primitive.ObjectID, req *models.CreateBadgeRequest) (*models.Badge, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: badge name must not be empty", ErrInvalidRequest)
	}

	course, err := s.getOwnedCourse(ctx, mentorID, courseID)
	if err != nil {
		return nil, err
	}

	triggerID, err := s.resolveTrigger(ctx, req.TriggerID)
	if err != nil {
		return nil, err
	}

	if err := checkBadgeUnique(course.ActiveBadges(), primitive.NilObjectID, name, triggerID); err != nil {
		return nil, err
	}

	now := s.now()
	badge := models.Badge{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: req.Description,
		TriggerID:   triggerID,
		CreatorID:   mentorID,
		CourseID:    courseID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.badges.Append(ctx, courseID, badge); err != nil {
		return nil, s.storageError("failed to append badge", err)
	}
	return &badge, nil
}

// UpdateBadge applies a partial update to a non-deleted badge
func (s *courseContentService) UpdateBadge(ctx context.Context, mentorID, courseID, badgeID primitive.ObjectID, req *models.UpdateBadgeRequest) (*models.Badge, error) {
	course, err := s.getOwnedCourse(ctx, mentorID, courseID)
	if err != nil {
		return nil, err
	}

	badge, ok := course.FindBadge(badgeID)
	if !ok || badge.IsDeleted {
		return nil, ErrBadgeNotFound
	}

	fields := bson.M{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: badge name must not be empty", ErrInvalidRequest)
		}
		badge.Name = name
		fields["name"] = name
	}
	if req.Description != nil {
		badge.Description = *req.Description
		fields["description"] = badge.Description
	}
	if req.TriggerID != nil {
		triggerID, err := s.resolveTrigger(ctx, *req.TriggerID)
		if err != nil {
			return nil, err
		}
		badge.TriggerID = triggerID
		fields["triggerId"] = triggerID
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidRequest)
	}

	if err := checkBadgeUnique(course.ActiveBadges(), badgeID, badge.Name, badge.TriggerID); err != nil {
		return nil, err
	}

	badge.UpdatedAt = s.now()
	fields["updatedAt"] = badge.UpdatedAt

	if err := s.badges.Update(ctx, courseID, badgeID, fields); err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return nil, ErrBadgeNotFound
		}
		return nil, s.storageError("failed to update badge", err)
	}
	return &badge, nil
}

// DeleteBadge soft-deletes a badge so earned references stay resolvable
func (s *courseContentService) DeleteBadge(ctx context.Context, mentorID, courseID, badgeID primitive.ObjectID) error {
	course, err := s.getOwnedCourse(ctx, mentorID, courseID)
	if err != nil {
		return err
	}

	if badge, ok := course.FindBadge(badgeID); !ok || badge.IsDeleted {
		return ErrBadgeNotFound
	}

	err = s.badges.Update(ctx, courseID, badgeID, bson.M{"isDeleted": true, "updatedAt": s.now()})
	if err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return ErrBadgeNotFound
		}
		return s.storageError("failed to delete badge", err)
	}
	return nil
}

func (s *courseContentService) getOwnedCourse(ctx context.Context, mentorID, courseID primitive.ObjectID) (*models.Course, error) {
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.CreatorID != mentorID {
		return nil, ErrNotCourseOwner
	}
	return course, nil
}

// resolveTrigger checks that the trigger exists and has a well-formed condition
func (s *courseContentService) resolveTrigger(ctx context.Context, rawID string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidTrigger
	}

	triggers, err := s.ListTriggers(ctx)
	if err != nil {
		return primitive.NilObjectID, err
	}

	index, _ := models.NewTriggerIndex(triggers)
	if _, ok := index[id]; !ok {
		return primitive.NilObjectID, ErrInvalidTrigger
	}
	return id, nil
}

func (s *courseContentService) storageError(msg string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrCourseNotFound
	}
	s.logger.Error(msg, zap.Error(err))
	return fmt.Errorf("%s: %w", msg, err)
}

func checkLessonUnique(lessons []models.Lesson, self primitive.ObjectID, number int, title string) error {
	for _, l := range lessons {
		if l.ID == self {
			continue
		}
		if l.Number == number {
			return ErrDuplicateLessonNumber
		}
		if strings.EqualFold(l.Title, title) {
			return ErrDuplicateLessonTitle
		}
	}
	return nil
}

func checkBadgeUnique(active []models.Badge, self primitive.ObjectID, name string, triggerID primitive.ObjectID) error {
	for _, b := range active {
		if b.ID == self {
			continue
		}
		if strings.EqualFold(b.Name, name) {
			return ErrDuplicateBadgeName
		}
		if b.TriggerID == triggerID {
			return ErrDuplicateBadgeTrigger
		}
	}
	return nil
}
