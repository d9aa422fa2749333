package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		incoming   string
		expectSame bool
	}{
		{name: "generates id when missing", incoming: ""},
		{name: "keeps incoming id", incoming: "req-123", expectSame: true},
		{name: "replaces oversized id", incoming: strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
			if tt.expectSame {
				assert.Equal(t, tt.incoming, seen)
			} else {
				assert.NotEqual(t, tt.incoming, seen)
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)

	r := chi.NewRouter()
	r.Use(RecoveryMiddleware(zap.New(core)))
	r.Get("/api/v1/courses/{courseId}", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/courses/abc", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"unexpected error"}`, rec.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "/api/v1/courses/{courseId}", logs.All()[0].ContextMap()["route"])
}

func TestRecoveryMiddleware_AbortHandler(t *testing.T) {
	handler := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		allowed        []string
		origin         string
		method         string
		expectedOrigin string
		expectedStatus int
	}{
		{name: "allow all", allowed: []string{"*"}, origin: "https://x.example", method: http.MethodGet, expectedOrigin: "*", expectedStatus: http.StatusOK},
		{name: "listed origin", allowed: []string{"https://x.example"}, origin: "https://X.example", method: http.MethodGet, expectedOrigin: "https://X.example", expectedStatus: http.StatusOK},
		{name: "unlisted origin", allowed: []string{"https://x.example"}, origin: "https://y.example", method: http.MethodGet, expectedOrigin: "", expectedStatus: http.StatusOK},
		{name: "preflight", allowed: []string{"*"}, origin: "https://x.example", method: http.MethodOptions, expectedOrigin: "*", expectedStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORSMiddleware(tt.allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		contentType    string
		expectedStatus int
	}{
		{name: "too large", method: http.MethodPost, body: "0123456789", contentType: "application/json", expectedStatus: http.StatusRequestEntityTooLarge},
		{name: "json body", method: http.MethodPost, body: "{}", contentType: "application/json", expectedStatus: http.StatusOK},
		{name: "json with charset", method: http.MethodPut, body: "{}", contentType: "application/json; charset=utf-8", expectedStatus: http.StatusOK},
		{name: "form body", method: http.MethodPost, body: "a=b", contentType: "application/x-www-form-urlencoded", expectedStatus: http.StatusUnsupportedMediaType},
		{name: "missing content type", method: http.MethodPut, body: "{}", expectedStatus: http.StatusUnsupportedMediaType},
		{name: "empty post", method: http.MethodPost, expectedStatus: http.StatusOK},
		{name: "get ignores content type", method: http.MethodGet, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequestSizeLimitMiddleware(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}
