package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/bazaar/apperror"
	"github.com/nasermirzaei89/bazaar/discuss"
	"github.com/nasermirzaei89/bazaar/reports"
)

// ItemResolver captures reported items and the tags that route their reports.
type ItemResolver struct {
	db *sql.DB
}

var _ reports.ItemResolver = (*ItemResolver)(nil)

func NewItemResolver(db *sql.DB) *ItemResolver {
	return &ItemResolver{db: db}
}

type UnknownItemTypeError struct {
	ItemType reports.ItemType
}

func (err UnknownItemTypeError) Error() string {
	return fmt.Sprintf("unknown item type %q", err.ItemType)
}

func (err UnknownItemTypeError) Is(target error) bool { return target == apperror.ErrValidation }

func (resolver *ItemResolver) Resolve(ctx context.Context, itemType reports.ItemType, itemID string) (*reports.Item, error) {
	switch itemType {
	case reports.ItemTypeComment:
		return resolver.resolveComment(ctx, itemID)
	case reports.ItemTypeListing:
		listing, err := findListing(ctx, resolver.db, itemID)
		if err != nil {
			return nil, err
		}

		return &reports.Item{
			Snapshot: map[string]any{
				"sellerId":    listing.SellerID,
				"title":       listing.Title,
				"description": listing.Description,
				"priceCents":  listing.PriceCents,
			},
			Tags: listing.Tags,
		}, nil
	case reports.ItemTypeImage:
		image, err := findImage(ctx, resolver.db, itemID)
		if err != nil {
			return nil, err
		}

		item := &reports.Item{
			Snapshot: map[string]any{
				"uploaderId": image.UploaderID,
				"listingId":  image.ListingID,
				"url":        image.URL,
				"caption":    image.Caption,
			},
		}

		if image.ListingID != nil {
			item.Tags, err = resolver.containerTags(ctx, tableListings, *image.ListingID)
			if err != nil {
				return nil, err
			}
		}

		return item, nil
	case reports.ItemTypePost:
		post, err := findPost(ctx, resolver.db, itemID)
		if err != nil {
			return nil, err
		}

		return &reports.Item{
			Snapshot: map[string]any{
				"authorId": post.AuthorID,
				"title":    post.Title,
				"content":  post.Content,
			},
			Tags: post.Tags,
		}, nil
	case reports.ItemTypeUser:
		user, err := findUser(ctx, resolver.db, itemID)
		if err != nil {
			return nil, err
		}

		return &reports.Item{
			Snapshot: map[string]any{
				"username":    user.Username,
				"displayName": user.DisplayName,
				"bio":         user.Bio,
			},
		}, nil
	default:
		return nil, &UnknownItemTypeError{ItemType: itemType}
	}
}

// resolveComment routes comment reports by the tags of the listing or post they belong to.
func (resolver *ItemResolver) resolveComment(ctx context.Context, commentID string) (*reports.Item, error) {
	comment, err := findComment(ctx, resolver.db, commentID)
	if err != nil {
		return nil, err
	}

	table, ok := containerTable(comment.ContainerType)
	if !ok {
		return nil, &discuss.ContainerNotFoundError{ContainerType: comment.ContainerType, ContainerID: comment.ContainerID}
	}

	tags, err := resolver.containerTags(ctx, table, comment.ContainerID)
	if err != nil {
		return nil, err
	}

	return &reports.Item{
		Snapshot: map[string]any{
			"authorId":      comment.AuthorID,
			"containerType": comment.ContainerType,
			"containerId":   comment.ContainerID,
			"parentId":      comment.ParentID,
			"text":          comment.Text,
			"votes":         comment.Votes,
		},
		Tags: tags,
	}, nil
}

func (resolver *ItemResolver) containerTags(ctx context.Context, table, id string) ([]string, error) {
	q := sq.Select("tags").
		From(table).
		Where(sq.Eq{"id": id}).
		RunWith(resolver.db)

	var tags string

	err := q.QueryRowContext(ctx).Scan(&tags)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan container tags: %w", err)
	}

	return decodeTags(tags)
}
