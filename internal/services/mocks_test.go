package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/wellnesshub/backend/internal/models"
	"github.com/wellnesshub/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mockCourseRepository is a mock implementation of CourseRepository
type mockCourseRepository struct {
	mu             sync.Mutex
	course         *models.Course
	err            error
	counterErr     error
	ongoingDelta   int
	completedDelta int
}

func (m *mockCourseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.course == nil || m.course.ID != id {
		return nil, repositories.ErrNotFound
	}
	c := *m.course
	return &c, nil
}

func (m *mockCourseRepository) IncrementLearnerCounters(ctx context.Context, id primitive.ObjectID, ongoingDelta, completedDelta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counterErr != nil {
		return m.counterErr
	}
	m.ongoingDelta += ongoingDelta
	m.completedDelta += completedDelta
	return nil
}

type ledgerKey struct {
	userID, courseID primitive.ObjectID
}

// memProgressRepository is an in-memory ProgressRepository honoring the conditional writes
type memProgressRepository struct {
	mu        sync.Mutex
	ledgers   map[ledgerKey]*models.CourseProgress
	err       error
	appendErr error
}

func newMemProgressRepository() *memProgressRepository {
	return &memProgressRepository{ledgers: map[ledgerKey]*models.CourseProgress{}}
}

func cloneLedger(l *models.CourseProgress) *models.CourseProgress {
	c := *l
	c.CompletedLessons = slices.Clone(l.CompletedLessons)
	c.EarnedBadges = slices.Clone(l.EarnedBadges)
	c.Answers = slices.Clone(l.Answers)
	return &c
}

func (m *memProgressRepository) Create(ctx context.Context, ledger *models.CourseProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	key := ledgerKey{ledger.UserID, ledger.CourseID}
	if _, ok := m.ledgers[key]; ok {
		return repositories.ErrAlreadyExists
	}
	ledger.ID = primitive.NewObjectID()
	m.ledgers[key] = cloneLedger(ledger)
	return nil
}

func (m *memProgressRepository) Get(ctx context.Context, userID, courseID primitive.ObjectID) (*models.CourseProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	ledger, ok := m.ledgers[ledgerKey{userID, courseID}]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneLedger(ledger), nil
}

func (m *memProgressRepository) AddCompletedLesson(ctx context.Context, userID, courseID primitive.ObjectID, entry models.CompletedLesson) (*models.CourseProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	ledger, ok := m.ledgers[ledgerKey{userID, courseID}]
	if !ok || ledger.IsCompleted {
		return nil, repositories.ErrNoMatch
	}
	for _, l := range ledger.CompletedLessons {
		if l.LessonID == entry.LessonID {
			return nil, repositories.ErrNoMatch
		}
	}
	ledger.CompletedLessons = append(ledger.CompletedLessons, entry)
	return cloneLedger(ledger), nil
}

func (m *memProgressRepository) MarkCompleted(ctx context.Context, userID, courseID primitive.ObjectID, review string, rating float64, answers []models.Answer) (*models.CourseProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	ledger, ok := m.ledgers[ledgerKey{userID, courseID}]
	if !ok || ledger.IsCompleted {
		return nil, repositories.ErrNoMatch
	}
	ledger.IsCompleted = true
	ledger.Review = review
	ledger.Rating = rating
	ledger.Answers = append(ledger.Answers, answers...)
	return cloneLedger(ledger), nil
}

func (m *memProgressRepository) AppendEarnedBadges(ctx context.Context, userID, courseID primitive.ObjectID, entries []models.EarnedBadge) ([]models.EarnedBadge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	ledger, ok := m.ledgers[ledgerKey{userID, courseID}]
	if !ok {
		return nil, nil
	}
	var written []models.EarnedBadge
	for _, e := range entries {
		if ledger.HasEarned(e.BadgeID) {
			continue
		}
		ledger.EarnedBadges = append(ledger.EarnedBadges, e)
		written = append(written, e)
	}
	return written, nil
}

// memAccountRepository is an in-memory AccountRepository
type memAccountRepository struct {
	mu       sync.Mutex
	accounts map[primitive.ObjectID]*models.Account
	scoreErr error
	calls    int
}

func newMemAccountRepository(accounts ...models.Account) *memAccountRepository {
	m := &memAccountRepository{accounts: map[primitive.ObjectID]*models.Account{}}
	for i := range accounts {
		a := accounts[i]
		m.accounts[a.ID] = &a
	}
	return m
}

func (m *memAccountRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (m *memAccountRepository) IncrementScore(ctx context.Context, id primitive.ObjectID, weight float64, badgeCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.scoreErr != nil {
		return m.scoreErr
	}
	a, ok := m.accounts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	a.ProgressBar += weight
	a.Badges += badgeCount
	return nil
}

func (m *memAccountRepository) AddEnrolledCourse(ctx context.Context, id, courseID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if !slices.Contains(a.EnrolledCourses, courseID) {
		a.EnrolledCourses = append(a.EnrolledCourses, courseID)
	}
	return nil
}

// mockTriggerRegistry is a mock implementation of TriggerRegistry
type mockTriggerRegistry struct {
	triggers []models.BadgeTrigger
	err      error
}

func (m *mockTriggerRegistry) ListAll(ctx context.Context) ([]models.BadgeTrigger, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.triggers, nil
}

// mockTransactor runs the unit of work directly and counts calls
type mockTransactor struct {
	mu    sync.Mutex
	calls int
}

func (m *mockTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return fn(ctx)
}

// mockNotifier records notifications
type mockNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (m *mockNotifier) Notify(ctx context.Context, n models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, n)
	return nil
}

// mockLessonStore is a mock implementation of LessonStore
type mockLessonStore struct {
	appended []models.Lesson
	updated  bson.M
	deleted  []primitive.ObjectID
	err      error
}

func (m *mockLessonStore) Append(ctx context.Context, courseID primitive.ObjectID, lesson models.Lesson) error {
	if m.err != nil {
		return m.err
	}
	m.appended = append(m.appended, lesson)
	return nil
}

func (m *mockLessonStore) Update(ctx context.Context, courseID, lessonID primitive.ObjectID, fields bson.M) error {
	if m.err != nil {
		return m.err
	}
	m.updated = fields
	return nil
}

func (m *mockLessonStore) Delete(ctx context.Context, courseID, lessonID primitive.ObjectID) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, lessonID)
	return nil
}

// mockBadgeStore is a mock implementation of BadgeStore
type mockBadgeStore struct {
	appended []models.Badge
	updated  bson.M
	err      error
}

func (m *mockBadgeStore) Append(ctx context.Context, courseID primitive.ObjectID, badge models.Badge) error {
	if m.err != nil {
		return m.err
	}
	m.appended = append(m.appended, badge)
	return nil
}

func (m *mockBadgeStore) Update(ctx context.Context, courseID, badgeID primitive.ObjectID, fields bson.M) error {
	if m.err != nil {
		return m.err
	}
	m.updated = fields
	return nil
}

// mockEnqueuer is a mock implementation of TaskEnqueuer
type mockEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.tasks = append(m.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: NotificationQueue}, nil
}

// mockStaleRepository is a mock implementation of StaleProgressRepository
type mockStaleRepository struct {
	ledgers   []models.CourseProgress
	findErr   error
	markErr   error
	reminded  []primitive.ObjectID
	cutoff    time.Time
	lastLimit int64
}

func (m *mockStaleRepository) FindStale(ctx context.Context, cutoff time.Time, limit int64) ([]models.CourseProgress, error) {
	m.cutoff = cutoff
	m.lastLimit = limit
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.ledgers, nil
}

func (m *mockStaleRepository) MarkReminded(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.reminded = append(m.reminded, id)
	return nil
}
