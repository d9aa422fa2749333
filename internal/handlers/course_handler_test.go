package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wellnesshub/backend/internal/auth"
	"github.com/wellnesshub/backend/internal/models"
	"github.com/wellnesshub/backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// mockCourseContentService is a mock implementation of CourseContentService
type mockCourseContentService struct {
	course   *models.Course
	triggers []models.BadgeTrigger
	lesson   *models.Lesson
	badge    *models.Badge
	err      error

	gotMentorID     primitive.ObjectID
	gotCourseID     primitive.ObjectID
	gotItemID       primitive.ObjectID
	gotLessonCreate *models.CreateLessonRequest
	gotLessonUpdate *models.UpdateLessonRequest
	gotBadgeCreate  *models.CreateBadgeRequest
	gotBadgeUpdate  *models.UpdateBadgeRequest
	deleted         bool
}

func (m *mockCourseContentService) GetCourse(ctx context.Context, courseID primitive.ObjectID) (*models.Course, error) {
	m.gotCourseID = courseID
	return m.course, m.err
}

func (m *mockCourseContentService) ListTriggers(ctx context.Context) ([]models.BadgeTrigger, error) {
	return m.triggers, m.err
}

func (m *mockCourseContentService) AppendLesson(ctx context.Context, mentorID, courseID primitive.ObjectID, req *models.CreateLessonRequest) (*models.Lesson, error) {
	m.gotMentorID, m.gotCourseID, m.gotLessonCreate = mentorID, courseID, req
	return m.lesson, m.err
}

func (m *mockCourseContentService) UpdateLesson(ctx context.Context, mentorID, courseID, lessonID primitive.ObjectID, req *models.UpdateLessonRequest) (*models.Lesson, error) {
	m.gotMentorID, m.gotCourseID, m.gotItemID, m.gotLessonUpdate = mentorID, courseID, lessonID, req
	return m.lesson, m.err
}

func (m *mockCourseContentService) DeleteLesson(ctx context.Context, mentorID, courseID, lessonID primitive.ObjectID) error {
	m.gotMentorID, m.gotCourseID, m.gotItemID = mentorID, courseID, lessonID
	m.deleted = m.err == nil
	return m.err
}

func (m *mockCourseContentService) AppendBadge(ctx context.Context, mentorID, courseID primitive.ObjectID, req *models.CreateBadgeRequest) (*models.Badge, error) {
	m.gotMentorID, m.gotCourseID, m.gotBadgeCreate = mentorID, courseID, req
	return m.badge, m.err
}

func (m *mockCourseContentService) UpdateBadge(ctx context.Context, mentorID, courseID, badgeID primitive.ObjectID, req *models.UpdateBadgeRequest) (*models.Badge, error) {
	m.gotMentorID, m.gotCourseID, m.gotItemID, m.gotBadgeUpdate = mentorID, courseID, badgeID, req
	return m.badge, m.err
}

func (m *mockCourseContentService) DeleteBadge(ctx context.Context, mentorID, courseID, badgeID primitive.ObjectID) error {
	m.gotMentorID, m.gotCourseID, m.gotItemID = mentorID, courseID, badgeID
	m.deleted = m.err == nil
	return m.err
}

func newCourseRouter(svc CourseContentService, userID primitive.ObjectID, role auth.Role) chi.Router {
	handler := NewCourseHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(withCaller(userID, role))
		handler.RegisterRoutes(r, auth.RoleMiddleware(auth.RoleMentor))
	})
	return r
}

func TestCourseHandler_GetCourse(t *testing.T) {
	courseID := primitive.NewObjectID()

	tests := []struct {
		name           string
		path           string
		err            error
		expectedStatus int
	}{
		{name: "success", path: "/api/v1/courses/" + courseID.Hex(), expectedStatus: http.StatusOK},
		{name: "invalid id", path: "/api/v1/courses/123", expectedStatus: http.StatusBadRequest},
		{name: "not found", path: "/api/v1/courses/" + courseID.Hex(), err: services.ErrCourseNotFound, expectedStatus: http.StatusNotFound},
		{name: "storage failure", path: "/api/v1/courses/" + courseID.Hex(), err: errors.New("timeout"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCourseContentService{
				course: &models.Course{ID: courseID, Title: "Breathing", LessonCount: 2},
				err:    tt.err,
			}
			router := newCourseRouter(svc, primitive.NewObjectID(), auth.RoleMember)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				var course models.Course
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&course))
				assert.Equal(t, "Breathing", course.Title)
				assert.Equal(t, courseID, svc.gotCourseID)
			}
		})
	}
}

func TestCourseHandler_ListTriggers(t *testing.T) {
	svc := &mockCourseContentService{triggers: []models.BadgeTrigger{{Name: "Halfway", Condition: "progress-50", Weight: 15}}}
	router := newCourseRouter(svc, primitive.NewObjectID(), auth.RoleMember)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/badge-triggers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var triggers []models.BadgeTrigger
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&triggers))
	require.Len(t, triggers, 1)
	assert.Equal(t, 15.0, triggers[0].Weight)
}

func TestCourseHandler_MentorRoutesRequireRole(t *testing.T) {
	courseID := primitive.NewObjectID()
	svc := &mockCourseContentService{}
	router := newCourseRouter(svc, primitive.NewObjectID(), auth.RoleMember)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/mentor/courses/"+courseID.Hex()+"/lessons", strings.NewReader(`{"number":1,"title":"Intro"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, svc.gotLessonCreate)
}

func TestCourseHandler_CreateLesson(t *testing.T) {
	mentorID := primitive.NewObjectID()
	courseID := primitive.NewObjectID()
	path := "/api/v1/mentor/courses/" + courseID.Hex() + "/lessons"

	tests := []struct {
		name           string
		body           string
		err            error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "created",
			body:           `{"number":1,"title":"Intro","duration":300}`,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid body",
			body:           `not json`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
		{
			name:           "duplicate number",
			body:           `{"number":1,"title":"Intro"}`,
			err:            services.ErrDuplicateLessonNumber,
			expectedStatus: http.StatusBadRequest,
			expectedError:  services.ErrDuplicateLessonNumber.Error(),
		},
		{
			name:           "not the owner",
			body:           `{"number":1,"title":"Intro"}`,
			err:            services.ErrNotCourseOwner,
			expectedStatus: http.StatusForbidden,
			expectedError:  services.ErrNotCourseOwner.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCourseContentService{
				lesson: &models.Lesson{ID: primitive.NewObjectID(), CourseID: courseID, Number: 1, Title: "Intro"},
				err:    tt.err,
			}
			router := newCourseRouter(svc, mentorID, auth.RoleMentor)

			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, rec))
				return
			}
			require.NotNil(t, svc.gotLessonCreate)
			assert.Equal(t, 300, svc.gotLessonCreate.Duration)
			assert.Equal(t, mentorID, svc.gotMentorID)
			assert.Equal(t, courseID, svc.gotCourseID)
		})
	}
}

func TestCourseHandler_UpdateLesson(t *testing.T) {
	mentorID := primitive.NewObjectID()
	courseID := primitive.NewObjectID()
	lessonID := primitive.NewObjectID()

	svc := &mockCourseContentService{lesson: &models.Lesson{ID: lessonID, Title: "Renamed"}}
	router := newCourseRouter(svc, mentorID, auth.RoleMentor)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/mentor/courses/"+courseID.Hex()+"/lessons/"+lessonID.Hex(), strings.NewReader(`{"title":"Renamed"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.gotLessonUpdate)
	require.NotNil(t, svc.gotLessonUpdate.Title)
	assert.Equal(t, "Renamed", *svc.gotLessonUpdate.Title)
	assert.Nil(t, svc.gotLessonUpdate.Number)
	assert.Equal(t, lessonID, svc.gotItemID)
}

func TestCourseHandler_DeleteLesson(t *testing.T) {
	courseID := primitive.NewObjectID()
	lessonID := primitive.NewObjectID()
	path := "/api/v1/mentor/courses/" + courseID.Hex() + "/lessons/" + lessonID.Hex()

	t.Run("deleted", func(t *testing.T) {
		svc := &mockCourseContentService{}
		router := newCourseRouter(svc, primitive.NewObjectID(), auth.RoleMentor)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, path, nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, svc.deleted)
	})

	t.Run("lesson not found", func(t *testing.T) {
		svc := &mockCourseContentService{err: services.ErrLessonNotFound}
		router := newCourseRouter(svc, primitive.NewObjectID(), auth.RoleMentor)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, path, nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCourseHandler_Badges(t *testing.T) {
	mentorID := primitive.NewObjectID()
	courseID := primitive.NewObjectID()
	badgeID := primitive.NewObjectID()
	base := "/api/v1/mentor/courses/" + courseID.Hex() + "/badges"

	t.Run("create", func(t *testing.T) {
		svc := &mockCourseContentService{badge: &models.Badge{ID: badgeID, Name: "Finisher"}}
		router := newCourseRouter(svc, mentorID, auth.RoleMentor)

		body := `{"name":"Finisher","triggerId":"` + primitive.NewObjectID().Hex() + `"}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, base, strings.NewReader(body)))

		require.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, svc.gotBadgeCreate)
		assert.Equal(t, "Finisher", svc.gotBadgeCreate.Name)
	})

	t.Run("create with unknown trigger", func(t *testing.T) {
		svc := &mockCourseContentService{err: services.ErrInvalidTrigger}
		router := newCourseRouter(svc, mentorID, auth.RoleMentor)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, base, strings.NewReader(`{"name":"x","triggerId":"y"}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, services.ErrInvalidTrigger.Error(), decodeError(t, rec))
	})

	t.Run("update", func(t *testing.T) {
		svc := &mockCourseContentService{badge: &models.Badge{ID: badgeID, Name: "Closer"}}
		router := newCourseRouter(svc, mentorID, auth.RoleMentor)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, base+"/"+badgeID.Hex(), strings.NewReader(`{"name":"Closer"}`)))

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.gotBadgeUpdate)
		assert.Equal(t, "Closer", *svc.gotBadgeUpdate.Name)
		assert.Equal(t, badgeID, svc.gotItemID)
	})

	t.Run("delete", func(t *testing.T) {
		svc := &mockCourseContentService{}
		router := newCourseRouter(svc, mentorID, auth.RoleMentor)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, base+"/"+badgeID.Hex(), nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, svc.deleted)
	})

	t.Run("delete with invalid id", func(t *testing.T) {
		svc := &mockCourseContentService{}
		router := newCourseRouter(svc, mentorID, auth.RoleMentor)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, base+"/zzz", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, svc.deleted)
	})
}
