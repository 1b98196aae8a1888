package http

import (
	"net/http"

	apperrors "github.com/renovamx/storefront/pkg/errors"
)

// RequireDeviceID rejects requests without the X-Device-ID header. The cart
// is keyed by device while anonymous, so a request with no device identity
// has no cart to act on.
func RequireDeviceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Device-ID") == "" {
			respondError(w, apperrors.InvalidInput("X-Device-ID header is required"), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
