package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wellnesshub/backend/internal/auth"
	"github.com/wellnesshub/backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type BaseHandler struct {
	logger *zap.Logger
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// respondServiceError maps a service error to its HTTP status.
// Rejections keep their message, everything else becomes a generic 500.
func (h *BaseHandler) respondServiceError(w http.ResponseWriter, err error, logMsg string) {
	if status, ok := serviceErrorStatus(err); ok {
		h.respondError(w, status, err.Error())
		return
	}
	h.logger.Error(logMsg, zap.Error(err))
	h.respondError(w, http.StatusInternalServerError, "unexpected error")
}

func serviceErrorStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, services.ErrInvalidRequest),
		errors.Is(err, services.ErrInvalidTrigger),
		errors.Is(err, services.ErrDuplicateLessonNumber),
		errors.Is(err, services.ErrDuplicateLessonTitle),
		errors.Is(err, services.ErrDuplicateBadgeName),
		errors.Is(err, services.ErrDuplicateBadgeTrigger):
		return http.StatusBadRequest, true
	case errors.Is(err, services.ErrNotCourseOwner),
		errors.Is(err, services.ErrNotEnrolled):
		return http.StatusForbidden, true
	case errors.Is(err, services.ErrCourseNotFound),
		errors.Is(err, services.ErrLessonNotFound),
		errors.Is(err, services.ErrBadgeNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, services.ErrAlreadyEnrolled),
		errors.Is(err, services.ErrAlreadyCompleted),
		errors.Is(err, services.ErrLessonAlreadyRecorded):
		return http.StatusConflict, true
	}
	return 0, false
}

// pathObjectID reads an ObjectID URL parameter, responding 400 when it is malformed
func (h *BaseHandler) pathObjectID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid "+name+" parameter")
		return primitive.NilObjectID, false
	}
	return id, true
}

// callerID returns the authenticated user id, responding 401 when claims are missing
func (h *BaseHandler) callerID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		h.logger.Error("user claims not found in context")
		h.respondError(w, http.StatusUnauthorized, "user ID not found in context")
		return primitive.NilObjectID, false
	}
	return claims.UserID, true
}
