package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// AccessLog writes one debug line per request using the request's context
// logger.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		l := zerolog.Ctx(r.Context())
		ev := l.Debug()
		if rec.status >= http.StatusInternalServerError {
			ev = l.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	})
}
