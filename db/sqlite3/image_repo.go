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

const tableImages = "images"

type ImageRepository struct {
	db *sql.DB
}

var _ contents.ImageRepository = (*ImageRepository)(nil)

func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

const (
	imageFieldID               = "id"
	imageFieldUploaderID       = "uploader_id"
	imageFieldListingID        = "listing_id"
	imageFieldURL              = "url"
	imageFieldCaption          = "caption"
	imageFieldVotes            = "votes"
	imageFieldIsDeletedByUser  = "is_deleted_by_user"
	imageFieldIsDeletedByAdmin = "is_deleted_by_admin"
	imageFieldCreatedAt        = "created_at"
	imageFieldUpdatedAt        = "updated_at"
)

func imageColumns() []string {
	return []string{
		imageFieldID,
		imageFieldUploaderID,
		imageFieldListingID,
		imageFieldURL,
		imageFieldCaption,
		imageFieldVotes,
		imageFieldIsDeletedByUser,
		imageFieldIsDeletedByAdmin,
		imageFieldCreatedAt,
		imageFieldUpdatedAt,
	}
}

func scanImage(row sq.RowScanner) (*contents.Image, error) {
	var image contents.Image

	err := row.Scan(
		&image.ID,
		&image.UploaderID,
		&image.ListingID,
		&image.URL,
		&image.Caption,
		&image.Votes,
		&image.IsDeletedByUser,
		&image.IsDeletedByAdmin,
		&image.CreatedAt,
		&image.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &image, nil
}

func (repo *ImageRepository) Insert(ctx context.Context, image *contents.Image) error {
	q := sq.Insert(tableImages).
		Columns(imageColumns()...).
		Values(
			image.ID,
			image.UploaderID,
			image.ListingID,
			image.URL,
			image.Caption,
			image.Votes,
			boolToInt(image.IsDeletedByUser),
			boolToInt(image.IsDeletedByAdmin),
			image.CreatedAt,
			image.UpdatedAt,
		)

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *ImageRepository) Find(ctx context.Context, imageID string) (*contents.Image, error) {
	return findImage(ctx, repo.db, imageID)
}

func findImage(ctx context.Context, runner sq.StdSqlCtx, imageID string) (*contents.Image, error) {
	q := sq.Select(imageColumns()...).
		From(tableImages).
		Where(sq.Eq{imageFieldID: imageID})

	q = q.RunWith(runner)

	image, err := scanImage(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &contents.ImageNotFoundError{ID: imageID}
		}

		return nil, fmt.Errorf("failed to scan image: %w", err)
	}

	return image, nil
}

func softDeleteImage(ctx context.Context, runner sq.StdSqlCtx, imageID string, at time.Time) error {
	q := sq.Update(tableImages).
		Set(imageFieldIsDeletedByAdmin, 1).
		Set(imageFieldCaption, contents.RemovedContent).
		Set(imageFieldUpdatedAt, at).
		Where(sq.Eq{imageFieldID: imageID})

	affected, err := execAffected(ctx, q, runner)
	if err != nil {
		return fmt.Errorf("failed to soft delete image: %w", err)
	}

	if affected == 0 {
		return &contents.ImageNotFoundError{ID: imageID}
	}

	return nil
}
