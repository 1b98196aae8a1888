// Package session exposes the authentication state of the calling client.
// The cart and checkout cores only ever read it; login and logout are owned
// by the gateway.
package session

import "net/http"

// Status is the authentication state reported by the provider.
type Status string

const (
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
	// StatusLoading means the provider has not resolved the session yet.
	// Consumers treat it as "not yet authenticated": no account sync is
	// started and no sync state is reset.
	StatusLoading Status = "loading"
)

// User identifies the authenticated customer.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Session is a snapshot of the caller's authentication state plus the device
// identity the cart is keyed by while anonymous.
type Session struct {
	Status   Status `json:"status"`
	User     User   `json:"user,omitempty"`
	DeviceID string `json:"device_id"`
}

// Authenticated reports whether the session carries a signed-in user.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.User.ID != ""
}

// Provider resolves the session for an incoming request.
type Provider interface {
	FromRequest(r *http.Request) Session
}

// HeaderProvider reads the identity headers forwarded by the API gateway
// after it validated the caller's token: X-User-ID (absent when anonymous)
// and X-Device-ID (always present, minted by the storefront frontend).
type HeaderProvider struct{}

// FromRequest builds a Session from the gateway headers.
func (HeaderProvider) FromRequest(r *http.Request) Session {
	sess := Session{
		Status:   StatusUnauthenticated,
		DeviceID: r.Header.Get("X-Device-ID"),
	}
	if uid := r.Header.Get("X-User-ID"); uid != "" {
		sess.Status = StatusAuthenticated
		sess.User = User{
			ID:    uid,
			Name:  r.Header.Get("X-User-Name"),
			Email: r.Header.Get("X-User-Email"),
		}
	}
	return sess
}

// Static is a fixed-session provider for tests.
type Static struct {
	Session Session
}

// FromRequest returns the fixed session.
func (s Static) FromRequest(*http.Request) Session {
	return s.Session
}
