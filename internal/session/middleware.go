// ABOUTME: Session middleware for dashboard and API requests.
// ABOUTME: Resolves the session key from a bearer token or cookie and issues new ones.

package session

import (
	"context"
	"hash/fnv"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const sessionContextKey contextKey = "session"

// CookieName is the cookie that carries the session key between requests.
const CookieName = "leadscore_session"

const cookieMaxAge = 30 * 24 * 60 * 60

var validID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Middleware attaches a session key to every request. Precedence is
// "Authorization: Bearer session:<id>", then the session cookie, then a new
// random key which is sent back as a cookie.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := fromHeader(r.Header.Get("Authorization"))
		if id == "" {
			id = fromCookie(r)
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   cookieMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
	})
}

// NewContext returns a copy of ctx carrying session id.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionContextKey, id)
}

// FromContext returns the session key, or "" outside the middleware.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionContextKey).(string)
	return id
}

// SeedFor derives a stable, non-negative default seed from a session key.
func SeedFor(id string) int64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return int64(h.Sum64() &^ (1 << 63))
}

func fromHeader(authHeader string) string {
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if !strings.HasPrefix(token, "session:") {
		return ""
	}
	return valid(strings.TrimPrefix(token, "session:"))
}

func fromCookie(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return valid(c.Value)
}

func valid(id string) string {
	id = strings.TrimSpace(id)
	if !validID.MatchString(id) {
		return ""
	}
	return id
}
