package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		expectedLevel zapcore.Level
	}{
		{name: "success", status: http.StatusOK, expectedLevel: zapcore.InfoLevel},
		{name: "rejected", status: http.StatusConflict, expectedLevel: zapcore.WarnLevel},
		{name: "server error", status: http.StatusInternalServerError, expectedLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)

			r := chi.NewRouter()
			r.Use(LoggerMiddleware(zap.New(core)))
			r.Post("/api/v1/courses/{courseId}/enroll", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"ok":true}`))
			})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/courses/abc123/enroll", nil))

			assert.Equal(t, tt.status, rec.Code)
			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, "API request served", entry.Message)
			assert.Equal(t, tt.expectedLevel, entry.Level)

			fields := entry.ContextMap()
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, int64(len(`{"ok":true}`)), fields["bytes"])
			assert.Equal(t, "/api/v1/courses/abc123/enroll", fields["path"])
			assert.Equal(t, "/api/v1/courses/{courseId}/enroll", fields["route"])
			assert.Equal(t, "abc123", fields["course_id"])
		})
	}
}

func TestLoggerMiddleware_WithoutRouter(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := LoggerMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.NotContains(t, fields, "route")
	assert.NotContains(t, fields, "course_id")
}
