package web

import (
	"net/http"

	"github.com/nasermirzaei89/bazaar/contents"
	"github.com/nasermirzaei89/bazaar/pagination"
	"github.com/nasermirzaei89/bazaar/users"
	"github.com/samber/lo"
)

type createUserRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
}

func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.Users.CreateUser(r.Context(), users.CreateUserRequest{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	})
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusCreated, newUserView(user))
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Users.GetUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newUserView(user))
}

type createPostRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func (h *Handler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req createPostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.svc.Contents.CreatePost(r.Context(), contents.CreatePostRequest{
		AuthorID: principal.UserID,
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
	})
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusCreated, newPostView(post))
}

func (h *Handler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	number, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)

		return
	}

	page, err := pagination.New(number, limit)
	if err != nil {
		writeError(w, r, err)

		return
	}

	posts, err := h.svc.Contents.ListPosts(r.Context(), &contents.ListPostsParams{
		Tag:    r.URL.Query().Get("tag"),
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, lo.Map(posts, func(post *contents.Post, _ int) PostView {
		return newPostView(post)
	}))
}

func (h *Handler) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.Contents.GetPost(r.Context(), r.PathValue("postId"))
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newPostView(post))
}

type createListingRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"priceCents"`
	Tags        []string `json:"tags"`
}

func (h *Handler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req createListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	listing, err := h.svc.Contents.CreateListing(r.Context(), contents.CreateListingRequest{
		SellerID:    principal.UserID,
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusCreated, newListingView(listing))
}

func (h *Handler) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.svc.Contents.GetListing(r.Context(), r.PathValue("listingId"))
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newListingView(listing))
}

type createImageRequest struct {
	ListingID string `json:"listingId"`
	URL       string `json:"url"`
	Caption   string `json:"caption"`
}

func (h *Handler) HandleCreateImage(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req createImageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	image, err := h.svc.Contents.CreateImage(r.Context(), contents.CreateImageRequest{
		UploaderID: principal.UserID,
		ListingID:  req.ListingID,
		URL:        req.URL,
		Caption:    req.Caption,
	})
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusCreated, newImageView(image))
}

func (h *Handler) HandleGetImage(w http.ResponseWriter, r *http.Request) {
	image, err := h.svc.Contents.GetImage(r.Context(), r.PathValue("imageId"))
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, newImageView(image))
}
