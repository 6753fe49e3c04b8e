package middleware

import (
	"log/slog"
	"net/http"

	"github.com/aqdev/uauth/pkg/logger"
)

// RequestLogger stores a request-scoped logger in context, enriched with
// correlation_id, user_id, trace_id and span_id. Handlers retrieve it
// with logger.FromContext(ctx).
//
// Mount it after RequestLogging (sets correlation_id) and Tracing (sets
// the span context) so those fields are present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// The auth middleware sets the context key; the X-User-ID
			// header covers requests arriving through the gateway.
			userID := UserIDFromContext(ctx)
			if userID == "" {
				userID = r.Header.Get("X-User-ID")
			}
			if userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
