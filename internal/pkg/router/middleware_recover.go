package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/YessineAmor/stampd/internal/pkg/stacktrace"
)

// middlewareRecoverer turns handler panics into 500 responses and logs the
// condensed stack. http.ErrAbortHandler passes through untouched.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(r.Context(), "panic serving request", "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(r.Context(), "panic serving request", "panic", rvr, "stack", string(stack))
			}

			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
