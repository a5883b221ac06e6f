package logging

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDMiddleware tags every request with an id, echoes it in the
// X-Request-ID header, and logs completion with status and duration. An id
// supplied by the client is kept so ids correlate across services.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		DebugContext(ctx, "request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remoteAddr", r.RemoteAddr,
		)

		next.ServeHTTP(wrapped, r)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"durationMs", time.Since(start).Milliseconds(),
		}
		if wrapped.status >= 400 {
			ErrorContext(ctx, "request failed", fields...)
		} else {
			InfoContext(ctx, "request completed", fields...)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Flush passes through so SSE streaming works behind the wrapper.
func (rec *statusRecorder) Flush() {
	if flusher, ok := rec.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
