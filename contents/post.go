package contents

import (
	"context"
	"fmt"
	"time"

	"github.com/nasermirzaei89/bazaar/apperror"
)

type Post struct {
	ID               string
	AuthorID         string
	Title            string
	Content          string
	Tags             []string
	Votes            int
	IsDeletedByUser  bool
	IsDeletedByAdmin bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Listing struct {
	ID               string
	SellerID         string
	Title            string
	Description      string
	PriceCents       int64
	Tags             []string
	IsDeletedByUser  bool
	IsDeletedByAdmin bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Image struct {
	ID               string
	UploaderID       string
	ListingID        *string
	URL              string
	Caption          string
	Votes            int
	IsDeletedByUser  bool
	IsDeletedByAdmin bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Placeholders written over content removed by moderators.
const (
	RemovedTitle   = "[removed]"
	RemovedContent = "[removed by moderator]"
)

type PostRepository interface {
	Insert(ctx context.Context, post *Post) (err error)
	Find(ctx context.Context, postID string) (post *Post, err error)
	List(ctx context.Context, params *ListPostsParams) (posts []*Post, err error)
}

type ListPostsParams struct {
	Tag    string
	Limit  int
	Offset int
}

type ListingRepository interface {
	Insert(ctx context.Context, listing *Listing) (err error)
	Find(ctx context.Context, listingID string) (listing *Listing, err error)
}

type ImageRepository interface {
	Insert(ctx context.Context, image *Image) (err error)
	Find(ctx context.Context, imageID string) (image *Image, err error)
}

type PostNotFoundError struct {
	ID string
}

func (err PostNotFoundError) Error() string {
	return fmt.Sprintf("post with id %q not found", err.ID)
}

func (err PostNotFoundError) Is(target error) bool { return target == apperror.ErrNotFound }

type ListingNotFoundError struct {
	ID string
}

func (err ListingNotFoundError) Error() string {
	return fmt.Sprintf("listing with id %q not found", err.ID)
}

func (err ListingNotFoundError) Is(target error) bool { return target == apperror.ErrNotFound }

type ImageNotFoundError struct {
	ID string
}

func (err ImageNotFoundError) Error() string {
	return fmt.Sprintf("image with id %q not found", err.ID)
}

func (err ImageNotFoundError) Is(target error) bool { return target == apperror.ErrNotFound }
