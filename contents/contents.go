package contents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/bazaar/apperror"
	"github.com/nasermirzaei89/bazaar/auth"
)

// PostingGuard is consulted before new content is accepted from a user.
type PostingGuard interface {
	CheckCanPost(ctx context.Context, userID string) (err error)
}

type Service struct {
	postRepo    PostRepository
	listingRepo ListingRepository
	imageRepo   ImageRepository
	guard       PostingGuard
}

func NewService(
	postRepo PostRepository,
	listingRepo ListingRepository,
	imageRepo ImageRepository,
	guard PostingGuard,
) *Service {
	return &Service{
		postRepo:    postRepo,
		listingRepo: listingRepo,
		imageRepo:   imageRepo,
		guard:       guard,
	}
}

type CreatePostRequest struct {
	AuthorID string
	Title    string
	Content  string
	Tags     []string
}

func (svc *Service) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, &apperror.ValidationError{Field: "title", Reason: "is required"}
	}

	err := svc.guard.CheckCanPost(ctx, req.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check posting permission: %w", err)
	}

	timeNow := time.Now().UTC()

	post := &Post{
		ID:        uuid.NewString(),
		AuthorID:  req.AuthorID,
		Title:     title,
		Content:   req.Content,
		Tags:      auth.NormalizeTags(req.Tags),
		CreatedAt: timeNow,
		UpdatedAt: timeNow,
	}

	err = svc.postRepo.Insert(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return post, nil
}

func (svc *Service) GetPost(ctx context.Context, postID string) (*Post, error) {
	post, err := svc.postRepo.Find(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	return post, nil
}

func (svc *Service) ListPosts(ctx context.Context, params *ListPostsParams) ([]*Post, error) {
	if params != nil && params.Tag != "" {
		normalized := *params
		normalized.Tag = strings.ToLower(strings.TrimSpace(params.Tag))
		params = &normalized
	}

	posts, err := svc.postRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}

type CreateListingRequest struct {
	SellerID    string
	Title       string
	Description string
	PriceCents  int64
	Tags        []string
}

func (svc *Service) CreateListing(ctx context.Context, req CreateListingRequest) (*Listing, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, &apperror.ValidationError{Field: "title", Reason: "is required"}
	}

	if req.PriceCents < 0 {
		return nil, &apperror.ValidationError{Field: "priceCents", Reason: "must not be negative"}
	}

	err := svc.guard.CheckCanPost(ctx, req.SellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check posting permission: %w", err)
	}

	timeNow := time.Now().UTC()

	listing := &Listing{
		ID:          uuid.NewString(),
		SellerID:    req.SellerID,
		Title:       title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Tags:        auth.NormalizeTags(req.Tags),
		CreatedAt:   timeNow,
		UpdatedAt:   timeNow,
	}

	err = svc.listingRepo.Insert(ctx, listing)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	return listing, nil
}

func (svc *Service) GetListing(ctx context.Context, listingID string) (*Listing, error) {
	listing, err := svc.listingRepo.Find(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}

	return listing, nil
}

type CreateImageRequest struct {
	UploaderID string
	ListingID  string
	URL        string
	Caption    string
}

func (svc *Service) CreateImage(ctx context.Context, req CreateImageRequest) (*Image, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, &apperror.ValidationError{Field: "url", Reason: "is required"}
	}

	err := svc.guard.CheckCanPost(ctx, req.UploaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check posting permission: %w", err)
	}

	var listingID *string

	if req.ListingID != "" {
		_, err = svc.listingRepo.Find(ctx, req.ListingID)
		if err != nil {
			return nil, fmt.Errorf("failed to find listing: %w", err)
		}

		listingID = &req.ListingID
	}

	timeNow := time.Now().UTC()

	image := &Image{
		ID:         uuid.NewString(),
		UploaderID: req.UploaderID,
		ListingID:  listingID,
		URL:        url,
		Caption:    req.Caption,
		CreatedAt:  timeNow,
		UpdatedAt:  timeNow,
	}

	err = svc.imageRepo.Insert(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("failed to create image: %w", err)
	}

	return image, nil
}

func (svc *Service) GetImage(ctx context.Context, imageID string) (*Image, error) {
	image, err := svc.imageRepo.Find(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to find image: %w", err)
	}

	return image, nil
}
