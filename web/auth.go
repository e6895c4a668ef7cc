package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nasermirzaei89/bazaar/auth"
	authcontext "github.com/nasermirzaei89/bazaar/auth/context"
)

// principalMiddleware attaches the session principal to the request context. Requests
// without a usable session continue as anonymous.
func (h *Handler) principalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := h.sessionPrincipal(r)
		if err != nil {
			var notFoundErr *SessionValueNotFoundError
			if !errors.As(err, &notFoundErr) {
				slog.WarnContext(r.Context(), "ignoring unusable session", "error", err)
			}

			next.ServeHTTP(w, r)

			return
		}

		principal.AdminTags = auth.NormalizeTags(principal.AdminTags)

		next.ServeHTTP(w, r.WithContext(authcontext.WithPrincipal(r.Context(), principal)))
	})
}

// requirePrincipal returns the authenticated principal of r, or writes 401.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal := authcontext.GetPrincipal(r.Context())
	if !principal.IsAuthenticated() {
		writeError(w, r, &auth.UnauthenticatedError{})

		return auth.Principal{}, false
	}

	return principal, true
}
