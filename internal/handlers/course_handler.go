package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wellnesshub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CourseContentService is the interface that wraps methods for course content operations.
type CourseContentService interface {
	// Method GetCourse retrieve a course with its complete lesson and badge lists.
	//
	// Lessons and badges kept in overflow storage are merged into the returned course.
	// If the course does not exist, ErrCourseNotFound is returned together with "nil" value.
	GetCourse(ctx context.Context, courseID primitive.ObjectID) (*models.Course, error)
	// Method ListTriggers retrieve the badge trigger registry.
	ListTriggers(ctx context.Context) ([]models.BadgeTrigger, error)
	// Method AppendLesson add a lesson to a course owned by "mentorID".
	//
	// Lesson number and title must be unique within the course.
	// The lesson lands in overflow storage once the course document is full.
	AppendLesson(ctx context.Context, mentorID, courseID primitive.ObjectID, req *models.CreateLessonRequest) (*models.Lesson, error)
	// Method UpdateLesson apply a partial update to a lesson of a course owned by "mentorID".
	//
	// Only non-nil fields of "req" are changed.
	UpdateLesson(ctx context.Context, mentorID, courseID, lessonID primitive.ObjectID, req *models.UpdateLessonRequest) (*models.Lesson, error)
	// Method DeleteLesson remove a lesson from a course owned by "mentorID".
	DeleteLesson(ctx context.Context, mentorID, courseID, lessonID primitive.ObjectID) error
	// Method AppendBadge add a badge to a course owned by "mentorID".
	//
	// Badge name and trigger must be unique among the course's active badges, and the trigger must exist.
	AppendBadge(ctx context.Context, mentorID, courseID primitive.ObjectID, req *models.CreateBadgeRequest) (*models.Badge, error)
	// Method UpdateBadge apply a partial update to a badge of a course owned by "mentorID".
	UpdateBadge(ctx context.Context, mentorID, courseID, badgeID primitive.ObjectID, req *models.UpdateBadgeRequest) (*models.Badge, error)
	// Method DeleteBadge soft delete a badge of a course owned by "mentorID".
	//
	// Deleted badges are never awarded again but stay resolvable for learners who earned them.
	DeleteBadge(ctx context.Context, mentorID, courseID, badgeID primitive.ObjectID) error
}

// CourseHandler handles HTTP requests for course content
type CourseHandler struct {
	BaseHandler
	service CourseContentService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(svc CourseContentService, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all course handler routes.
// Authoring routes are guarded by mentorMiddleware.
func (h *CourseHandler) RegisterRoutes(r chi.Router, mentorMiddleware func(http.Handler) http.Handler) {
	r.Get("/courses/{courseId}", h.GetCourse)
	r.Get("/badge-triggers", h.ListTriggers)
	r.Route("/mentor/courses/{courseId}", func(r chi.Router) {
		r.Use(mentorMiddleware)
		r.Post("/lessons", h.CreateLesson)
		r.Put("/lessons/{lessonId}", h.UpdateLesson)
		r.Delete("/lessons/{lessonId}", h.DeleteLesson)
		r.Post("/badges", h.CreateBadge)
		r.Put("/badges/{badgeId}", h.UpdateBadge)
		r.Delete("/badges/{badgeId}", h.DeleteBadge)
	})
}

// GetCourse handles GET /api/v1/courses/{courseId}
// @Summary Get course
// @Description Get a course with all of its lessons and badges
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} models.Course
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/courses/{courseId} [get]
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID, ok := h.pathObjectID(w, r, "courseId")
	if !ok {
		return
	}

	course, err := h.service.GetCourse(r.Context(), courseID)
	if err != nil {
		h.respondServiceError(w, err, "failed to get course")
		return
	}

	h.respondJSON(w, http.StatusOK, course)
}

// ListTriggers handles GET /api/v1/badge-triggers
// @Summary List badge triggers
// @Description Get the registry of badge trigger rules
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.BadgeTrigger
// @Failure 500 {object} map[string]string
// @Router /api/v1/badge-triggers [get]
func (h *CourseHandler) ListTriggers(w http.ResponseWriter, r *http.Request) {
	triggers, err := h.service.ListTriggers(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "failed to list badge triggers")
		return
	}

	h.respondJSON(w, http.StatusOK, triggers)
}

// CreateLesson handles POST /api/v1/mentor/courses/{courseId}/lessons
// @Summary Add lesson
// @Description Append a lesson to a course owned by the caller
// @Tags mentor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Param request body models.CreateLessonRequest true "Lesson"
// @Success 201 {object} models.Lesson
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/mentor/courses/{courseId}/lessons [post]
func (h *CourseHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	mentorID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	courseID, ok := h.pathObjectID(w, r, "courseId")
	if !ok {
		return
	}

	var req models.CreateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lesson, err := h.service.AppendLesson(r.Context(), mentorID, courseID, &req)
	if err != nil {
		h.respondServiceError(w, err, "failed to add lesson")
		return
	}

	h.respondJSON(w, http.StatusCreated, lesson)
}

// UpdateLesson handles PUT /api/v1/mentor/courses/{courseId}/lessons/{lessonId}
// @Summary Update lesson
// @Description Partially update a lesson of a course owned by the caller
// @Tags mentor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Param request body models.UpdateLessonRequest true "Changed fields"
// @Success 200 {object} models.Lesson
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/mentor/courses/{courseId}/lessons/{lessonId} [put]
func (h *CourseHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	mentorID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	courseID, ok := h.pathObjectID(w, r, "courseId")
	if !ok {
		return
	}
	lessonID, ok := h.pathObjectID(w, r, "lessonId")
	if !ok {
		return
	}

	var req models.UpdateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lesson, err := h.service.UpdateLesson(r.Context(), mentorID, courseID, lessonID, &req)
	if err != nil {
		h.respondServiceError(w, err, "failed to update lesson")
		return
	}

	h.respondJSON(w, http.StatusOK, lesson)
}

// DeleteLesson handles DELETE /api/v1/mentor/courses/{courseId}/lessons/{lessonId}
// @Summary Delete lesson
// @Description Remove a lesson from a course owned by the caller
// @Tags mentor
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/mentor/courses/{courseId}/lessons/{lessonId} [delete]
func (h *CourseHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	mentorID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	courseID, ok := h.pathObjectID(w, r, "courseId")
	if !ok {
		return
	}
	lessonID, ok := h.pathObjectID(w, r, "lessonId")
	if !ok {
		return
	}

	if err := h.service.DeleteLesson(r.Context(), mentorID, courseID, lessonID); err != nil {
		h.respondServiceError(w, err, "failed to delete lesson")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateBadge handles POST /api/v1/mentor/courses/{courseId}/badges
// @Summary Add badge
// @Description Append a badge to a course owned by the caller
// @Tags mentor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Param request body models.CreateBadgeRequest true "Badge"
// @Success 201 {object} models.Badge
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/mentor/courses/{courseId}/badges [post]
func (h *CourseHandler) CreateBadge(w http.ResponseWriter, r *http.Request) {
	mentorID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	courseID, ok := h.pathObjectID(w, r, "courseId")
	if !ok {
		return
	}

	var req models.CreateBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	badge, err := h.service.AppendBadge(r.Context(), mentorID, courseID, &req)
	if err != nil {
		h.respondServiceError(w, err, "failed to add badge")
		return
	}

	h.respondJSON(w, http.StatusCreated, badge)
}

// UpdateBadge handles PUT /api/v1/mentor/courses/{courseId}/badges/{badgeId}
// @Summary Update badge
// @Description Partially update a badge of a course owned by the caller
// @Tags mentor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Param badgeId path string true "Badge ID"
// @Param request body models.UpdateBadgeRequest true "Changed fields"
// @Success 200 {object} models.Badge
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/mentor/courses/{courseId}/badges/{badgeId} [put]
func (h *CourseHandler) UpdateBadge(w http.ResponseWriter, r *http.Request) {
	mentorID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	courseID, ok := h.pathObjectID(w, r, "courseId")
	if !ok {
		return
	}
	badgeID, ok := h.pathObjectID(w, r, "badgeId")
	if !ok {
		return
	}

	var req models.UpdateBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	badge, err := h.service.UpdateBadge(r.Context(), mentorID, courseID, badgeID, &req)
	if err != nil {
		h.respondServiceError(w, err, "failed to update badge")
		return
	}

	h.respondJSON(w, http.StatusOK, badge)
}

// DeleteBadge handles DELETE /api/v1/mentor/courses/{courseId}/badges/{badgeId}
// @Summary Delete badge
// @Description Soft delete a badge of a course owned by the caller
// @Tags mentor
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Param badgeId path string true "Badge ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/mentor/courses/{courseId}/badges/{badgeId} [delete]
func (h *CourseHandler) DeleteBadge(w http.ResponseWriter, r *http.Request) {
	mentorID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	courseID, ok := h.pathObjectID(w, r, "courseId")
	if !ok {
		return
	}
	badgeID, ok := h.pathObjectID(w, r, "badgeId")
	if !ok {
		return
	}

	if err := h.service.DeleteBadge(r.Context(), mentorID, courseID, badgeID); err != nil {
		h.respondServiceError(w, err, "failed to delete badge")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
