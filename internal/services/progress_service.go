package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wellnesshub/backend/internal/models"
	"github.com/wellnesshub/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CourseRepository is the interface that wraps methods for course data access
type CourseRepository interface {
	// GetByID retrieves a course with its lessons and badges resolved across primary and overflow storage.
	//
	// "ctx" is the context for the request.
	// "id" is the course id.
	//
	// If the course does not exist, repositories.ErrNotFound is returned together with "nil" value.
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error)
	// IncrementLearnerCounters applies deltas to the "userOngoing" and "userCompletedCourse" counters.
	//
	// If the course does not exist, repositories.ErrNotFound is returned.
	IncrementLearnerCounters(ctx context.Context, id primitive.ObjectID, ongoingDelta, completedDelta int) error
}

// ProgressRepository is the interface that wraps methods for progress ledger data access
type ProgressRepository interface {
	EarnedBadgeAppender
	// Create inserts a new ledger.
	//
	// If a ledger already exists for the learner and course, repositories.ErrAlreadyExists is returned.
	Create(ctx context.Context, ledger *models.CourseProgress) error
	// Get retrieves the ledger of a learner in a course.
	//
	// If there is no ledger, repositories.ErrNotFound is returned together with "nil" value.
	Get(ctx context.Context, userID, courseID primitive.ObjectID) (*models.CourseProgress, error)
	// AddCompletedLesson adds the entry to the completed lessons if the lesson is absent and the course is not completed.
	//
	// The updated ledger is returned. When the condition does not hold repositories.ErrNoMatch is returned.
	AddCompletedLesson(ctx context.Context, userID, courseID primitive.ObjectID, entry models.CompletedLesson) (*models.CourseProgress, error)
	// MarkCompleted completes the course storing the review, rating and answers, if it is not completed yet.
	//
	// The updated ledger is returned. When the condition does not hold repositories.ErrNoMatch is returned.
	MarkCompleted(ctx context.Context, userID, courseID primitive.ObjectID, review string, rating float64, answers []models.Answer) (*models.CourseProgress, error)
}

// AccountRepository is the interface that wraps methods for learner account data access
type AccountRepository interface {
	ScoreRepository
	// GetByID retrieves the account of a learner.
	//
	// If the account does not exist, repositories.ErrNotFound is returned together with "nil" value.
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	// AddEnrolledCourse adds the course to the learner's enrolled courses.
	AddEnrolledCourse(ctx context.Context, id, courseID primitive.ObjectID) error
}

// TriggerRegistry provides the badge trigger registry
type TriggerRegistry interface {
	// ListAll returns every badge trigger.
	ListAll(ctx context.Context) ([]models.BadgeTrigger, error)
}

// Transactor runs a unit of work atomically. Repositories must be called with the context passed to fn.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier queues notifications
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// MaxRating is the highest course rating a learner can give
const MaxRating = 5

type progressService struct {
	courses  CourseRepository
	progress ProgressRepository
	accounts AccountRepository
	triggers TriggerRegistry
	tx       Transactor
	notifier Notifier
	score    *scoreAccumulator
	now      func() time.Time
	logger   *zap.Logger
}

// NewProgressService creates the service owning the progress ledger transitions
func NewProgressService(
	courses CourseRepository,
	progress ProgressRepository,
	accounts AccountRepository,
	triggers TriggerRegistry,
	tx Transactor,
	notifier Notifier,
	logger *zap.Logger,
) *progressService {
	return &progressService{
		courses:  courses,
		progress: progress,
		accounts: accounts,
		triggers: triggers,
		tx:       tx,
		notifier: notifier,
		score:    NewScoreAccumulator(progress, accounts, logger),
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// Enroll creates the ledger of the learner in the course
//
// The course "ongoing" counter and the learner's enrolled courses are updated in the same unit of work.
// If the learner is already enrolled, ErrAlreadyEnrolled is returned.
func (s *progressService) Enroll(ctx context.Context, userID, courseID primitive.ObjectID) (*models.CourseProgress, error) {
	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: account not found", ErrInvalidRequest)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	now := s.now()
	ledger := &models.CourseProgress{
		UserID:           userID,
		CourseID:         courseID,
		UserName:         account.Name,
		UserPic:          account.ProfilePic,
		CompletedLessons: []models.CompletedLesson{},
		EarnedBadges:     []models.EarnedBadge{},
		Answers:          []models.Answer{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.progress.Create(ctx, ledger); err != nil {
			if errors.Is(err, repositories.ErrAlreadyExists) {
				return ErrAlreadyEnrolled
			}
			return err
		}
		if err := s.courses.IncrementLearnerCounters(ctx, courseID, 1, 0); err != nil {
			return err
		}
		return s.accounts.AddEnrolledCourse(ctx, userID, courseID)
	})
	if err != nil {
		return nil, s.wrapUnexpected("failed to enroll", err)
	}

	s.notify(ctx, models.Notification{
		Type:        models.NotificationEnrolled,
		RecipientID: course.CreatorID.Hex(),
		ActorID:     userID.Hex(),
		CourseID:    courseID.Hex(),
		CourseTitle: course.Title,
		Message:     fmt.Sprintf("%s enrolled in %s", account.Name, course.Title),
	})

	return ledger, nil
}

// RecordLessonCompletion adds the lesson to the learner's completed lessons and awards
// the progress badges the new completion percentage reaches
//
// Possible rejections are ErrCourseNotFound, ErrLessonNotFound, ErrNotEnrolled,
// ErrAlreadyCompleted and ErrLessonAlreadyRecorded.
func (s *progressService) RecordLessonCompletion(ctx context.Context, userID, courseID, lessonID primitive.ObjectID) (*models.AwardResponse, error) {
	course, index, err := s.loadCourseAndTriggers(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if _, ok := course.FindLesson(lessonID); !ok {
		return nil, ErrLessonNotFound
	}

	var response models.AwardResponse
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		now := s.now()
		ledger, err := s.progress.AddCompletedLesson(ctx, userID, courseID, models.CompletedLesson{LessonID: lessonID, CompletedAt: now})
		if errors.Is(err, repositories.ErrNoMatch) {
			return s.explainLessonRejection(ctx, userID, courseID)
		}
		if err != nil {
			return err
		}

		pct := completionPercentage(len(ledger.CompletedLessons), course.LessonCount)
		award := EvaluateBadges(course.Badges, index, ledger.EarnedBadges, LessonCompletionPath, pct, now)

		recorded, err := s.score.ApplyAward(ctx, userID, courseID, award)
		if err != nil {
			return err
		}
		response = awardResponse(recorded)
		return nil
	})
	if err != nil {
		return nil, s.wrapUnexpected("failed to record lesson completion", err)
	}

	return &response, nil
}

// RecordCourseCompletion completes the course with the learner's review, rating and answers
// and awards the course's progress-100 badges
//
// Possible rejections are ErrCourseNotFound, ErrInvalidRequest, ErrNotEnrolled and ErrAlreadyCompleted.
func (s *progressService) RecordCourseCompletion(ctx context.Context, userID, courseID primitive.ObjectID, req *models.CompleteCourseRequest) (*models.AwardResponse, error) {
	if req.Rating < 0 || req.Rating > MaxRating {
		return nil, fmt.Errorf("%w: rating must be between 0 and %d", ErrInvalidRequest, MaxRating)
	}

	course, index, err := s.loadCourseAndTriggers(ctx, courseID)
	if err != nil {
		return nil, err
	}

	answers, err := resolveAnswers(course, req.Answers)
	if err != nil {
		return nil, err
	}

	var (
		response models.AwardResponse
		ledger   *models.CourseProgress
	)
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		ledger, err = s.progress.MarkCompleted(ctx, userID, courseID, req.Review, req.Rating, answers)
		if errors.Is(err, repositories.ErrNoMatch) {
			return s.explainCompletionRejection(ctx, userID, courseID)
		}
		if err != nil {
			return err
		}

		if err := s.courses.IncrementLearnerCounters(ctx, courseID, -1, 1); err != nil {
			return err
		}

		award := EvaluateBadges(course.Badges, index, ledger.EarnedBadges, CourseCompletionPath, 100, s.now())
		recorded, err := s.score.ApplyAward(ctx, userID, courseID, award)
		if err != nil {
			return err
		}
		response = awardResponse(recorded)
		return nil
	})
	if err != nil {
		return nil, s.wrapUnexpected("failed to record course completion", err)
	}

	s.notify(ctx, models.Notification{
		Type:        models.NotificationCourseFeedback,
		RecipientID: course.CreatorID.Hex(),
		ActorID:     userID.Hex(),
		CourseID:    courseID.Hex(),
		CourseTitle: course.Title,
		Message:     fmt.Sprintf("%s completed %s and left a %.1f star review", ledger.UserName, course.Title, req.Rating),
	})

	return &response, nil
}

// GetProgress returns the learner's progress summary in the course
func (s *progressService) GetProgress(ctx context.Context, userID, courseID primitive.ObjectID) (*models.ProgressResponse, error) {
	course, ledger, err := s.loadCourseAndLedger(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	return &models.ProgressResponse{
		CourseID:         courseID,
		LessonCount:      course.LessonCount,
		CompletedLessons: ledger.CompletedLessons,
		Percentage:       completionPercentage(len(ledger.CompletedLessons), course.LessonCount),
		IsCompleted:      ledger.IsCompleted,
		EarnedBadges:     ledger.EarnedBadges,
	}, nil
}

// GetEarnedBadges resolves the learner's earned badges against the course badge list.
// Soft-deleted badges stay resolvable; badges removed from the course are left out.
func (s *progressService) GetEarnedBadges(ctx context.Context, userID, courseID primitive.ObjectID) ([]models.EarnedBadgeResponse, error) {
	course, ledger, err := s.loadCourseAndLedger(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	earned := make([]models.EarnedBadgeResponse, 0, len(ledger.EarnedBadges))
	for _, e := range ledger.EarnedBadges {
		badge, ok := course.FindBadge(e.BadgeID)
		if !ok {
			continue
		}
		earned = append(earned, models.EarnedBadgeResponse{Badge: badge, EarnedOn: e.EarnedOn})
	}
	return earned, nil
}

// loadCourseAndTriggers fetches the course and the trigger registry concurrently
func (s *progressService) loadCourseAndTriggers(ctx context.Context, courseID primitive.ObjectID) (*models.Course, models.TriggerIndex, error) {
	var (
		course   *models.Course
		triggers []models.BadgeTrigger
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		course, err = s.getCourse(gctx, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		triggers, err = s.triggers.ListAll(gctx)
		if err != nil {
			s.logger.Error("failed to load badge triggers", zap.Error(err))
			return fmt.Errorf("failed to load badge triggers: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	index, skipped := models.NewTriggerIndex(triggers)
	for _, t := range skipped {
		s.logger.Warn("skipping badge trigger with malformed condition",
			zap.String("trigger_id", t.ID.Hex()),
			zap.String("condition", t.Condition),
		)
	}
	return course, index, nil
}

func (s *progressService) loadCourseAndLedger(ctx context.Context, userID, courseID primitive.ObjectID) (*models.Course, *models.CourseProgress, error) {
	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}

	ledger, err := s.progress.Get(ctx, userID, courseID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, ErrNotEnrolled
	}
	if err != nil {
		s.logger.Error("failed to get progress ledger", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return course, ledger, nil
}

func (s *progressService) getCourse(ctx context.Context, courseID primitive.ObjectID) (*models.Course, error) {
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

// explainLessonRejection finds out why the conditional lesson insert matched nothing
func (s *progressService) explainLessonRejection(ctx context.Context, userID, courseID primitive.ObjectID) error {
	ledger, err := s.progress.Get(ctx, userID, courseID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrNotEnrolled
	case err != nil:
		return err
	case ledger.IsCompleted:
		return ErrAlreadyCompleted
	default:
		return ErrLessonAlreadyRecorded
	}
}

// explainCompletionRejection finds out why the conditional completion matched nothing
func (s *progressService) explainCompletionRejection(ctx context.Context, userID, courseID primitive.ObjectID) error {
	_, err := s.progress.Get(ctx, userID, courseID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrNotEnrolled
	case err != nil:
		return err
	default:
		return ErrAlreadyCompleted
	}
}

// resolveAnswers validates submitted answers against the course questions
func resolveAnswers(course *models.Course, submitted []models.AnswerRequest) ([]models.Answer, error) {
	questions := make(map[primitive.ObjectID]string, len(course.Questions))
	for _, q := range course.Questions {
		questions[q.ID] = q.Question
	}

	answers := make([]models.Answer, 0, len(submitted))
	for _, a := range submitted {
		id, err := primitive.ObjectIDFromHex(a.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid question id %q", ErrInvalidRequest, a.QuestionID)
		}
		question, ok := questions[id]
		if !ok {
			return nil, fmt.Errorf("%w: question %s does not belong to this course", ErrInvalidRequest, a.QuestionID)
		}
		answers = append(answers, models.Answer{QuestionID: id, Question: question, Answer: a.Answer})
	}
	return answers, nil
}

func awardResponse(recorded Award) models.AwardResponse {
	if len(recorded.Entries) == 0 {
		return models.AwardResponse{NewBadges: []models.EarnedBadge{}}
	}
	return models.AwardResponse{NewBadges: recorded.Entries, WeightAwarded: recorded.TotalWeight}
}

// notify dispatches a notification, logging and swallowing failures
func (s *progressService) notify(ctx context.Context, n models.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("failed to dispatch notification", zap.String("type", string(n.Type)), zap.Error(err))
	}
}

// wrapUnexpected passes rejected results through and wraps storage failures
func (s *progressService) wrapUnexpected(msg string, err error) error {
	if isRejection(err) {
		return err
	}
	s.logger.Error(msg, zap.Error(err))
	return fmt.Errorf("%s: %w", msg, err)
}

var rejections = []error{
	ErrNotEnrolled, ErrAlreadyEnrolled, ErrAlreadyCompleted, ErrLessonAlreadyRecorded,
	ErrCourseNotFound, ErrLessonNotFound, ErrBadgeNotFound, ErrNotCourseOwner,
	ErrDuplicateLessonNumber, ErrDuplicateLessonTitle, ErrDuplicateBadgeName,
	ErrDuplicateBadgeTrigger, ErrInvalidTrigger, ErrInvalidRequest,
}

func isRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}
