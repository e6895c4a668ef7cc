package web

import (
	"net/http"

	"github.com/nasermirzaei89/bazaar/discuss"
)

type createCommentRequest struct {
	ContainerType discuss.ContainerType `json:"containerType"`
	ContainerID   string                `json:"containerId"`
	Text          string                `json:"text"`
}

func (h *Handler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req createCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.svc.Discuss.CreateComment(r.Context(), discuss.CreateCommentRequest{
		ContainerType: req.ContainerType,
		ContainerID:   req.ContainerID,
		AuthorID:      principal.UserID,
		Text:          req.Text,
	})
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusCreated, newCommentView(comment))
}

func (h *Handler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	query := r.URL.Query()

	result, err := h.svc.Discuss.ListComments(
		r.Context(),
		discuss.ContainerType(query.Get("containerType")),
		query.Get("containerId"),
		page,
		limit,
	)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newCommentPageView(result))
}

func (h *Handler) HandleGetComment(w http.ResponseWriter, r *http.Request) {
	comment, err := h.svc.Discuss.GetComment(r.Context(), r.PathValue("commentId"))
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newCommentView(comment))
}

type createReplyRequest struct {
	Text string `json:"text"`
}

func (h *Handler) HandleCreateReply(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req createReplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.svc.Discuss.CreateReply(r.Context(), discuss.CreateReplyRequest{
		ParentID: r.PathValue("commentId"),
		AuthorID: principal.UserID,
		Text:     req.Text,
	})
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusCreated, newCommentView(reply))
}

func (h *Handler) HandleListReplies(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	result, err := h.svc.Discuss.ListReplies(r.Context(), r.PathValue("commentId"), page, limit)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newCommentPageView(result))
}

func (h *Handler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	comment, err := h.svc.Discuss.SoftDeleteByAuthor(r.Context(), r.PathValue("commentId"), principal.UserID)
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newCommentView(comment))
}
