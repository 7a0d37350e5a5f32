package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/klauern/skillhub/internal/apierr"
	"github.com/klauern/skillhub/internal/logging"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// requestLogger logs one line per request and attaches a request-scoped
// logger to the context.
func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		reqLog := logger.With(slog.String("method", r.Method), logging.Path(r.URL.Path))
		next.ServeHTTP(rec, r.WithContext(logging.NewContext(r.Context(), reqLog)))

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		reqLog.Log(r.Context(), level, "request",
			slog.Int("status", rec.status),
			slog.Int("bytes", rec.bytes),
			slog.Duration(logging.KeyDuration, time.Since(start)),
		)
	})
}

// recoverer turns a handler panic into a 500.
func recoverer(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("handler panic", slog.Any("panic", v), logging.Path(r.URL.Path))
				writeError(w, &apierr.Error{Kind: apierr.KindInternal, Message: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
