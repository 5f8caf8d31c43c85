// Package cookie provides helpers for the guest identity cookie.
// The cookie carries an opaque token that keys the anonymous shopper's
// cart in the cache; it is the only identity an unauthenticated client has.
package cookie

import (
	"net/http"
)

// GuestCookieName is the cookie that holds the anonymous guest identity.
const GuestCookieName = "guestId"

// Config holds cookie security settings.
type Config struct {
	// Secure requires HTTPS. True in production, false in local development.
	Secure bool
}

// NewConfig creates a new cookie configuration.
func NewConfig(secure bool) *Config {
	return &Config{Secure: secure}
}

// Set writes a cookie scoped to the whole site. HttpOnly keeps the guest
// token away from scripts; SameSite Lax keeps it on top-level navigations.
func (c *Config) Set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear removes a cookie by setting MaxAge to -1.
func (c *Config) Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Get retrieves a cookie value from the request.
// Returns empty string if cookie not found.
func Get(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
