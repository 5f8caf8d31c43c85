package middleware

import (
	"context"
	"net/http"

	"github.com/dodream/cart/internal/cookie"
	"github.com/dodream/cart/internal/router"
	"github.com/google/uuid"
)

type contextKey string

const guestIDKey contextKey = "guest_id"

// GuestID ensures every anonymous request carries a guest identity.
// A missing guestId cookie gets a fresh UUID, set on the response, so the
// identity is stable from the client's very first request. The id is stashed
// in the request context for handlers.
func GuestID(cookies *cookie.Config, maxAge int) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := cookie.Get(r, cookie.GuestCookieName)
			if id == "" {
				id = uuid.NewString()
				cookies.Set(w, cookie.GuestCookieName, id, maxAge)
			}

			ctx := context.WithValue(r.Context(), guestIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GuestIDFromContext returns the guest identity placed by GuestID,
// or empty string if the middleware did not run.
func GuestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(guestIDKey).(string)
	return id
}
