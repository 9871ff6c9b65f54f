package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/jsamuelsen11/storefeed/internal/adapters/http/dto"
)

// errPanicked is the only detail a client sees for a recovered panic.
var errPanicked = errors.New("internal server error")

// Recovery returns middleware that turns a handler panic into a logged
// ERROR with stack trace and, if nothing was written yet, a 500
// problem+json response. http.ErrAbortHandler is re-raised so net/http
// can abort the connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := recordStatus(w)

			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				logger.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", v),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("route", routePattern(r)),
					slog.String("stack", string(debug.Stack())),
				)
				if !rec.wrote {
					dto.WriteErrorResponse(rec, r, errPanicked)
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
