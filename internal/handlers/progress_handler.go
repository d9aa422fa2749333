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

// ProgressService is the interface that wraps methods for learner progress operations
type ProgressService interface {
	// Enroll creates the progress ledger of a learner in a course
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the learner.
	// "courseID" is the ID of the course.
	//
	// Returns the created ledger, or ErrAlreadyEnrolled if the learner already has one.
	Enroll(ctx context.Context, userID, courseID primitive.ObjectID) (*models.CourseProgress, error)
	// RecordLessonCompletion marks a lesson as completed and awards the progress badges it unlocks
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the learner.
	// "courseID" is the ID of the course.
	// "lessonID" is the ID of the completed lesson.
	//
	// Returns the newly earned badges together with the weight added to the learner's score.
	RecordLessonCompletion(ctx context.Context, userID, courseID, lessonID primitive.ObjectID) (*models.AwardResponse, error)
	// RecordCourseCompletion completes the course with a review and awards the completion badges
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the learner.
	// "courseID" is the ID of the course.
	// "req" carries the review, rating and question answers.
	//
	// Returns the newly earned badges together with the weight added to the learner's score.
	RecordCourseCompletion(ctx context.Context, userID, courseID primitive.ObjectID, req *models.CompleteCourseRequest) (*models.AwardResponse, error)
	// GetProgress retrieves the learner's completion percentage in a course
	GetProgress(ctx context.Context, userID, courseID primitive.ObjectID) (*models.ProgressResponse, error)
	// GetEarnedBadges retrieves the badges the learner earned in a course, with their earn dates
	GetEarnedBadges(ctx context.Context, userID, courseID primitive.ObjectID) ([]models.EarnedBadgeResponse, error)
}

// ProgressHandler handles HTTP requests for learner progress
type ProgressHandler struct {
	BaseHandler
	service ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(svc ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all progress handler routes
func (h *ProgressHandler) RegisterRoutes(r chi.Router) {
	r.Post("/courses/{courseId}/enroll", h.Enroll)
	r.Post("/courses/{courseId}/lessons/{lessonId}/complete", h.CompleteLesson)
	r.Post("/courses/{courseId}/complete", h.CompleteCourse)
	r.Get("/courses/{courseId}/progress", h.GetProgress)
	r.Get("/courses/{courseId}/badges/earned", h.GetEarnedBadges)
}

// Enroll handles POST /api/v1/courses/{courseId}/enroll
// @Summary Enroll in a course
// @Description Create the caller's progress ledger for the course
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Success 201 {object} models.CourseProgress
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/courses/{courseId}/enroll [post]
func (h *ProgressHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	courseID, ok := h.pathObjectID(w, r, "courseId")
	if !ok {
		return
	}

	ledger, err := h.service.Enroll(r.Context(), userID, courseID)
	if err != nil {
		h.respondServiceError(w, err, "failed to enroll")
		return
	}

	h.respondJSON(w, http.StatusCreated, ledger)
}

// CompleteLesson handles POST /api/v1/courses/{courseId}/lessons/{lessonId}/complete
// @Summary Complete a lesson
// @Description Record a completed lesson and award the progress badges it unlocks
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} models.AwardResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/courses/{courseId}/lessons/{lessonId}/complete [post]
func (h *ProgressHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
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

	award, err := h.service.RecordLessonCompletion(r.Context(), userID, courseID, lessonID)
	if err != nil {
		h.respondServiceError(w, err, "failed to record lesson completion")
		return
	}

	h.respondJSON(w, http.StatusOK, award)
}

// CompleteCourse handles POST /api/v1/courses/{courseId}/complete
// @Summary Complete a course
// @Description Complete the course with a review and award the completion badges
// @Tags progress
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Param request body models.CompleteCourseRequest true "Review, rating and answers"
// @Success 200 {object} models.AwardResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/courses/{courseId}/complete [post]
func (h *ProgressHandler) CompleteCourse(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	courseID, ok := h.pathObjectID(w, r, "courseId")
	if !ok {
		return
	}

	var req models.CompleteCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	award, err := h.service.RecordCourseCompletion(r.Context(), userID, courseID, &req)
	if err != nil {
		h.respondServiceError(w, err, "failed to record course completion")
		return
	}

	h.respondJSON(w, http.StatusOK, award)
}

// GetProgress handles GET /api/v1/courses/{courseId}/progress
// @Summary Get course progress
// @Description Get the caller's completion percentage in the course
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} models.ProgressResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/courses/{courseId}/progress [get]
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	courseID, ok := h.pathObjectID(w, r, "courseId")
	if !ok {
		return
	}

	progress, err := h.service.GetProgress(r.Context(), userID, courseID)
	if err != nil {
		h.respondServiceError(w, err, "failed to get progress")
		return
	}

	h.respondJSON(w, http.StatusOK, progress)
}

// GetEarnedBadges handles GET /api/v1/courses/{courseId}/badges/earned
// @Summary Get earned badges
// @Description Get the badges the caller earned in the course
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path string true "Course ID"
// @Success 200 {array} models.EarnedBadgeResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/courses/{courseId}/badges/earned [get]
func (h *ProgressHandler) GetEarnedBadges(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	courseID, ok := h.pathObjectID(w, r, "courseId")
	if !ok {
		return
	}

	badges, err := h.service.GetEarnedBadges(r.Context(), userID, courseID)
	if err != nil {
		h.respondServiceError(w, err, "failed to get earned badges")
		return
	}

	h.respondJSON(w, http.StatusOK, badges)
}
