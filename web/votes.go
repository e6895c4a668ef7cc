package web

import (
	"net/http"

	authcontext "github.com/nasermirzaei89/bazaar/auth/context"
	"github.com/nasermirzaei89/bazaar/votes"
)

type castVoteRequest struct {
	Direction votes.Direction `json:"direction"`
}

func (h *Handler) HandleCastVote(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req castVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tally, err := h.svc.Votes.CastVote(r.Context(), votes.CastVoteRequest{
		TargetType: votes.TargetType(r.PathValue("targetType")),
		TargetID:   r.PathValue("targetId"),
		UserID:     principal.UserID,
		Direction:  req.Direction,
	})
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newTallyView(tally))
}

func (h *Handler) HandleGetTally(w http.ResponseWriter, r *http.Request) {
	var viewerID *string

	if principal := authcontext.GetPrincipal(r.Context()); principal.IsAuthenticated() {
		viewerID = &principal.UserID
	}

	tally, err := h.svc.Votes.GetTally(
		r.Context(),
		votes.TargetType(r.PathValue("targetType")),
		r.PathValue("targetId"),
		viewerID,
	)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newTallyView(tally))
}
