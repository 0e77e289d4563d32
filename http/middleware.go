package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id back to the client.
const RequestIDHeader = "X-Request-Id"

// RequestLogger logs one line per request. The token segment of media paths
// is masked so that bearer credentials never reach the logs.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		slog.Info("request",
			"id", requestID,
			"method", r.Method,
			"path", MaskToken(r.URL.EscapedPath()),
			"range", r.Header.Get("Range"),
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// MaskToken replaces the token segment of a /view/<token>/... path.
func MaskToken(path string) string {
	segments := strings.Split(path, "/")

	seenView := false
	for i, s := range segments {
		if s == "" {
			continue
		}
		if !seenView {
			if s != "view" {
				return path
			}
			seenView = true
			continue
		}
		segments[i] = "***"
		break
	}

	return strings.Join(segments, "/")
}
