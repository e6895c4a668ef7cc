package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/bazaar/contents"
)

const tableListings = "listings"

type ListingRepository struct {
	db *sql.DB
}

var _ contents.ListingRepository = (*ListingRepository)(nil)

func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

const (
	listingFieldID               = "id"
	listingFieldSellerID         = "seller_id"
	listingFieldTitle            = "title"
	listingFieldDescription      = "description"
	listingFieldPriceCents       = "price_cents"
	listingFieldTags             = "tags"
	listingFieldIsDeletedByUser  = "is_deleted_by_user"
	listingFieldIsDeletedByAdmin = "is_deleted_by_admin"
	listingFieldCreatedAt        = "created_at"
	listingFieldUpdatedAt        = "updated_at"
)

func listingColumns() []string {
	return []string{
		listingFieldID,
		listingFieldSellerID,
		listingFieldTitle,
		listingFieldDescription,
		listingFieldPriceCents,
		listingFieldTags,
		listingFieldIsDeletedByUser,
		listingFieldIsDeletedByAdmin,
		listingFieldCreatedAt,
		listingFieldUpdatedAt,
	}
}

func scanListing(row sq.RowScanner) (*contents.Listing, error) {
	var (
		listing contents.Listing
		tags    string
	)

	err := row.Scan(
		&listing.ID,
		&listing.SellerID,
		&listing.Title,
		&listing.Description,
		&listing.PriceCents,
		&tags,
		&listing.IsDeletedByUser,
		&listing.IsDeletedByAdmin,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	listing.Tags, err = decodeTags(tags)
	if err != nil {
		return nil, err
	}

	return &listing, nil
}

func (repo *ListingRepository) Insert(ctx context.Context, listing *contents.Listing) error {
	tags, err := encodeTags(listing.Tags)
	if err != nil {
		return err
	}

	q := sq.Insert(tableListings).
		Columns(listingColumns()...).
		Values(
			listing.ID,
			listing.SellerID,
			listing.Title,
			listing.Description,
			listing.PriceCents,
			tags,
			boolToInt(listing.IsDeletedByUser),
			boolToInt(listing.IsDeletedByAdmin),
			listing.CreatedAt,
			listing.UpdatedAt,
		)

	q = q.RunWith(repo.db)

	_, err = q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *ListingRepository) Find(ctx context.Context, listingID string) (*contents.Listing, error) {
	return findListing(ctx, repo.db, listingID)
}

func findListing(ctx context.Context, runner sq.StdSqlCtx, listingID string) (*contents.Listing, error) {
	q := sq.Select(listingColumns()...).
		From(tableListings).
		Where(sq.Eq{listingFieldID: listingID})

	q = q.RunWith(runner)

	listing, err := scanListing(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &contents.ListingNotFoundError{ID: listingID}
		}

		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}

	return listing, nil
}

func softDeleteListing(ctx context.Context, runner sq.StdSqlCtx, listingID string, at time.Time) error {
	q := sq.Update(tableListings).
		Set(listingFieldIsDeletedByAdmin, 1).
		Set(listingFieldTitle, contents.RemovedTitle).
		Set(listingFieldDescription, contents.RemovedContent).
		Set(listingFieldUpdatedAt, at).
		Where(sq.Eq{listingFieldID: listingID})

	affected, err := execAffected(ctx, q, runner)
	if err != nil {
		return fmt.Errorf("failed to soft delete listing: %w", err)
	}

	if affected == 0 {
		return &contents.ListingNotFoundError{ID: listingID}
	}

	return nil
}
