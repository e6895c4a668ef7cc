package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/nasermirzaei89/bazaar/discuss"
	"github.com/nasermirzaei89/bazaar/reports"
)

// Item is the part of a reported item the executor needs.
type Item struct {
	ID      string
	OwnerID string
	Deleted bool
}

// ItemHandler is the capability set of one reportable item kind.
type ItemHandler interface {
	// Load fails with a NotFound kind error when the item does not exist.
	Load(ctx context.Context, tx Tx, itemID string) (item *Item, err error)
	SoftDelete(ctx context.Context, tx Tx, item *Item, reason string, at time.Time) (err error)
}

var registry = map[reports.ItemType]ItemHandler{
	reports.ItemTypeComment: commentHandler{},
	reports.ItemTypeListing: listingHandler{},
	reports.ItemTypeImage:   imageHandler{},
	reports.ItemTypePost:    postHandler{},
	reports.ItemTypeUser:    userHandler{},
}

// HandlerFor returns the handler registered for itemType.
func HandlerFor(itemType reports.ItemType) (ItemHandler, bool) {
	handler, ok := registry[itemType]

	return handler, ok
}

type commentHandler struct{}

func (commentHandler) Load(ctx context.Context, tx Tx, itemID string) (*Item, error) {
	comment, err := tx.FindComment(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	return &Item{ID: comment.ID, OwnerID: comment.AuthorID, Deleted: !comment.IsActive()}, nil
}

func (commentHandler) SoftDelete(ctx context.Context, tx Tx, item *Item, reason string, at time.Time) error {
	_, err := tx.SoftDeleteComment(ctx, item.ID, discuss.SoftDelete{
		By:     discuss.DeletedByAdmin,
		Reason: reason,
		At:     at,
	})
	if err != nil {
		return fmt.Errorf("failed to soft delete comment: %w", err)
	}

	return nil
}

type listingHandler struct{}

func (listingHandler) Load(ctx context.Context, tx Tx, itemID string) (*Item, error) {
	listing, err := tx.FindListing(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}

	return &Item{
		ID:      listing.ID,
		OwnerID: listing.SellerID,
		Deleted: listing.IsDeletedByUser || listing.IsDeletedByAdmin,
	}, nil
}

func (listingHandler) SoftDelete(ctx context.Context, tx Tx, item *Item, _ string, at time.Time) error {
	err := tx.SoftDeleteListing(ctx, item.ID, at)
	if err != nil {
		return fmt.Errorf("failed to soft delete listing: %w", err)
	}

	return nil
}

type imageHandler struct{}

func (imageHandler) Load(ctx context.Context, tx Tx, itemID string) (*Item, error) {
	image, err := tx.FindImage(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to find image: %w", err)
	}

	return &Item{
		ID:      image.ID,
		OwnerID: image.UploaderID,
		Deleted: image.IsDeletedByUser || image.IsDeletedByAdmin,
	}, nil
}

func (imageHandler) SoftDelete(ctx context.Context, tx Tx, item *Item, _ string, at time.Time) error {
	err := tx.SoftDeleteImage(ctx, item.ID, at)
	if err != nil {
		return fmt.Errorf("failed to soft delete image: %w", err)
	}

	return nil
}

type postHandler struct{}

func (postHandler) Load(ctx context.Context, tx Tx, itemID string) (*Item, error) {
	post, err := tx.FindPost(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	return &Item{
		ID:      post.ID,
		OwnerID: post.AuthorID,
		Deleted: post.IsDeletedByUser || post.IsDeletedByAdmin,
	}, nil
}

func (postHandler) SoftDelete(ctx context.Context, tx Tx, item *Item, _ string, at time.Time) error {
	err := tx.SoftDeletePost(ctx, item.ID, at)
	if err != nil {
		return fmt.Errorf("failed to soft delete post: %w", err)
	}

	return nil
}

// userHandler suspends reported accounts. A reported user owns itself.
type userHandler struct{}

func (userHandler) Load(ctx context.Context, tx Tx, itemID string) (*Item, error) {
	user, err := tx.FindUser(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &Item{ID: user.ID, OwnerID: user.ID, Deleted: user.IsDeletedByAdmin}, nil
}

func (userHandler) SoftDelete(ctx context.Context, tx Tx, item *Item, _ string, at time.Time) error {
	err := tx.SuspendUser(ctx, item.ID, at)
	if err != nil {
		return fmt.Errorf("failed to suspend user: %w", err)
	}

	return nil
}
