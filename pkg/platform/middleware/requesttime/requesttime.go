// Package requesttime captures a single "now" per request so every
// time-sensitive check within the request agrees on the same timestamp.
package requesttime

import (
	"net/http"
	"time"

	"volunity/pkg/requestcontext"
)

// Middleware stores the current time in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
