package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"tramita/pkg/requestcontext"
)

// RequestID assigns a correlation id and a request-scoped timestamp to every
// request. Services read both through pkg/requestcontext, which keeps a bulk
// operation's writes on one consistent clock.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
