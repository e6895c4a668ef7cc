package web

import (
	"context"
	"encoding/gob"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/bazaar/contents"
	"github.com/nasermirzaei89/bazaar/discuss"
	"github.com/nasermirzaei89/bazaar/moderation"
	"github.com/nasermirzaei89/bazaar/reports"
	"github.com/nasermirzaei89/bazaar/users"
	"github.com/nasermirzaei89/bazaar/votes"
)

func init() {
	gob.Register([]string{})
}

// Services groups the domain services the API dispatches to.
type Services struct {
	Users      *users.Service
	Contents   *contents.Service
	Discuss    *discuss.Service
	Votes      *votes.Service
	Reports    *reports.Service
	Moderation *moderation.Executor
}

type Handler struct {
	mux         *http.ServeMux
	handler     http.Handler
	svc         Services
	cookieStore *sessions.CookieStore
	sessionName string
	metrics     http.Handler
}

var _ http.Handler = (*Handler)(nil)

// NewHandler builds the JSON API. metricsHandler may be nil, in which case /metrics is not
// served.
func NewHandler(
	svc Services,
	cookieStore *sessions.CookieStore,
	sessionName string,
	metricsHandler http.Handler,
) *Handler {
	h := &Handler{
		mux:         &http.ServeMux{},
		svc:         svc,
		cookieStore: cookieStore,
		sessionName: sessionName,
		metrics:     metricsHandler,
	}

	h.registerRoutes()

	h.handler = h.principalMiddleware(h.mux)
	h.handler = recoverMiddleware(h.handler)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /healthz", h.HandleHealth)

	if h.metrics != nil {
		h.mux.Handle("GET /metrics", h.metrics)
	}

	h.mux.HandleFunc("POST /api/votes/{targetType}/{targetId}", h.HandleCastVote)
	h.mux.HandleFunc("GET /api/votes/{targetType}/{targetId}", h.HandleGetTally)

	h.mux.HandleFunc("POST /api/comments", h.HandleCreateComment)
	h.mux.HandleFunc("GET /api/comments", h.HandleListComments)
	h.mux.HandleFunc("GET /api/comments/{commentId}", h.HandleGetComment)
	h.mux.HandleFunc("DELETE /api/comments/{commentId}", h.HandleDeleteComment)
	h.mux.HandleFunc("POST /api/comments/{commentId}/replies", h.HandleCreateReply)
	h.mux.HandleFunc("GET /api/comments/{commentId}/replies", h.HandleListReplies)

	h.mux.HandleFunc("POST /api/reports", h.HandleFileReport)

	h.mux.HandleFunc("GET /api/admin/reports", h.HandleListReports)
	h.mux.HandleFunc("GET /api/admin/reports/{reportId}", h.HandleGetReport)
	h.mux.HandleFunc("PATCH /api/admin/reports/{reportId}", h.HandleUpdateReportStatus)
	h.mux.HandleFunc("POST /api/admin/reports/{reportId}/notes", h.HandleAppendReportNote)
	h.mux.HandleFunc("POST /api/admin/reports/{reportId}/actions", h.HandleExecuteAction)
	h.mux.HandleFunc("DELETE /api/admin/comments/{commentId}", h.HandleAdminDeleteComment)
	h.mux.HandleFunc("PUT /api/admin/users/{userId}/mute", h.HandleMuteUser)
	h.mux.HandleFunc("DELETE /api/admin/users/{userId}/mute", h.HandleUnmuteUser)

	h.mux.HandleFunc("POST /api/users", h.HandleCreateUser)
	h.mux.HandleFunc("GET /api/users/{userId}", h.HandleGetUser)
	h.mux.HandleFunc("POST /api/posts", h.HandleCreatePost)
	h.mux.HandleFunc("GET /api/posts", h.HandleListPosts)
	h.mux.HandleFunc("GET /api/posts/{postId}", h.HandleGetPost)
	h.mux.HandleFunc("POST /api/listings", h.HandleCreateListing)
	h.mux.HandleFunc("GET /api/listings/{listingId}", h.HandleGetListing)
	h.mux.HandleFunc("POST /api/images", h.HandleCreateImage)
	h.mux.HandleFunc("GET /api/images/{imageId}", h.HandleGetImage)
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			if err := recover(); err != nil {
				slog.ErrorContext(
					ctx,
					"recovered from panic",
					"error",
					err,
					"stack",
					string(debug.Stack()),
				)

				writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{Error: "internal error occurred"})
			}
		}(r.Context())

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
