package web

import (
	"net/http"

	"github.com/nasermirzaei89/bazaar/auth"
	"github.com/nasermirzaei89/bazaar/users"
)

// requireAdmin returns the admin principal of r, or writes 401/403.
func requireAdmin(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return auth.Principal{}, false
	}

	if !principal.IsAdmin() {
		writeError(w, r, &auth.AdminRequiredError{UserID: principal.UserID})

		return auth.Principal{}, false
	}

	return principal, true
}

type adminDeleteCommentRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) HandleAdminDeleteComment(w http.ResponseWriter, r *http.Request) {
	principal, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req adminDeleteCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.svc.Discuss.SoftDeleteByAdmin(r.Context(), r.PathValue("commentId"), principal.UserID, req.Reason)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newCommentView(comment))
}

type muteUserRequest struct {
	Reason       string `json:"reason"`
	DurationDays *int   `json:"durationDays"`
}

func (h *Handler) HandleMuteUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req muteUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Users.Mute(r.Context(), users.MuteRequest{
		AdminID:      principal.UserID,
		UserID:       r.PathValue("userId"),
		Reason:       req.Reason,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newUserView(user))
}

func (h *Handler) HandleUnmuteUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	user, err := h.svc.Users.Unmute(r.Context(), principal.UserID, r.PathValue("userId"))
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newUserView(user))
}
