// Package session assigns each visitor a stable identity carried in a cookie.
package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const CookieName = "session_id"

type Manager struct {
	maxAge time.Duration
	secure bool
	newID  func() string
}

func NewManager(maxAge time.Duration, secure bool) *Manager {
	return &Manager{maxAge: maxAge, secure: secure, newID: uuid.NewString}
}

// Identify returns the session id carried by r. When r has no usable cookie
// a fresh id is minted and set on w; minted reports whether that happened.
// The cookie is never renewed, so its lifetime is fixed from first issuance.
func (m *Manager) Identify(w http.ResponseWriter, r *http.Request) (id string, minted bool) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, false
	}
	id = m.newID()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id, true
}
