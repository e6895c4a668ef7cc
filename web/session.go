package web

import (
	"fmt"
	"net/http"

	"github.com/nasermirzaei89/bazaar/auth"
)

const (
	sessionUserIDKey    = "userId"
	sessionAdminTagsKey = "adminTags"
)

type SessionValueNotFoundError struct {
	Key string
}

func (err SessionValueNotFoundError) Error() string {
	return fmt.Sprintf("session value for key '%s' not found", err.Key)
}

type SessionValueTypeError struct {
	Key string
}

func (err SessionValueTypeError) Error() string {
	return fmt.Sprintf("session value for key '%s' has unexpected type", err.Key)
}

func (h *Handler) getSessionValue(r *http.Request, key string) (any, error) {
	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil {
		return nil, fmt.Errorf("error getting session: %w", err)
	}

	value, ok := session.Values[key]
	if !ok {
		return nil, &SessionValueNotFoundError{Key: key}
	}

	return value, nil
}

// sessionPrincipal reads the principal written by the identity service.
func (h *Handler) sessionPrincipal(r *http.Request) (auth.Principal, error) {
	value, err := h.getSessionValue(r, sessionUserIDKey)
	if err != nil {
		return auth.Principal{}, err
	}

	userID, ok := value.(string)
	if !ok {
		return auth.Principal{}, &SessionValueTypeError{Key: sessionUserIDKey}
	}

	principal := auth.Principal{UserID: userID}

	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil {
		return auth.Principal{}, fmt.Errorf("error getting session: %w", err)
	}

	// Non-admins carry no admin tags at all.
	if value, ok := session.Values[sessionAdminTagsKey]; ok {
		adminTags, ok := value.([]string)
		if !ok {
			return auth.Principal{}, &SessionValueTypeError{Key: sessionAdminTagsKey}
		}

		principal.AdminTags = adminTags
	}

	return principal, nil
}

// savePrincipal writes principal into the session cookie.
func (h *Handler) savePrincipal(w http.ResponseWriter, r *http.Request, principal auth.Principal) error {
	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil {
		return fmt.Errorf("error getting session: %w", err)
	}

	session.Values[sessionUserIDKey] = principal.UserID

	if len(principal.AdminTags) > 0 {
		session.Values[sessionAdminTagsKey] = principal.AdminTags
	} else {
		delete(session.Values, sessionAdminTagsKey)
	}

	err = session.Save(r, w)
	if err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}

	return nil
}
