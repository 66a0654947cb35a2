package handler

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// statusWriter records the status code while preserving http.Flusher, which
// the chat stream depends on.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *Handler) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		h.log.WithFields(logrus.Fields{
			"method":         r.Method,
			"path":           r.URL.Path,
			"status":         sw.status,
			"duration_ms":    time.Since(start).Milliseconds(),
			"correlation_id": sw.Header().Get(correlationHeader),
		}).Info("request handled")
	})
}
