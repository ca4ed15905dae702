package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the caller's correlation id. Tier-transition logs
// and crisis audit lines trace back to an HTTP request through it.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = contextKey("request_id")

// RequestID adopts the caller's correlation id, or mints a UUID when the
// header is absent, echoes it on the response, and stores it in the request
// context for the logging middleware.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the correlation id stored by RequestID, or
// the empty string outside its scope.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
