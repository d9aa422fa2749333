package middlewares

import (
	"mime"
	"net/http"
)

// DefaultMaxRequestSize caps JSON bodies of the API
const DefaultMaxRequestSize int64 = 1 << 20 // 1MB

// RequestSizeLimitMiddleware caps request bodies at maxRequestSize bytes.
// Bodies sent with POST, PUT or PATCH must be JSON.
func RequestSizeLimitMiddleware(maxRequestSize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxRequestSize {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			if carriesBody(r) && !isJSON(r.Header.Get("Content-Type")) {
				writeJSONError(w, http.StatusUnsupportedMediaType, "request body must be application/json")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
			next.ServeHTTP(w, r)
		})
	}
}

func carriesBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	default:
		return false
	}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
