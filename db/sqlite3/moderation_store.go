package sqlite3

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/bazaar/contents"
	"github.com/nasermirzaei89/bazaar/discuss"
	"github.com/nasermirzaei89/bazaar/moderation"
	"github.com/nasermirzaei89/bazaar/reports"
	"github.com/nasermirzaei89/bazaar/users"
)

type ModerationStore struct {
	db *sql.DB
}

var _ moderation.Store = (*ModerationStore)(nil)

func NewModerationStore(db *sql.DB) *ModerationStore {
	return &ModerationStore{db: db}
}

func (store *ModerationStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx moderation.Tx) error) error {
	return inTx(ctx, store.db, func(tx *sql.Tx) error {
		return fn(ctx, &moderationTx{tx: tx})
	})
}

func (store *ModerationStore) ReopenReport(ctx context.Context, reportID string, note string, at time.Time) error {
	return inTx(ctx, store.db, func(tx *sql.Tx) error {
		return reopenReport(ctx, tx, reportID, note, at)
	})
}

type moderationTx struct {
	tx *sql.Tx
}

var _ moderation.Tx = (*moderationTx)(nil)

// FindReport touches the report row before reading it, so the transaction holds the write
// lock from its first statement and concurrent actions on the report queue behind it.
func (mtx *moderationTx) FindReport(ctx context.Context, reportID string) (*reports.Report, error) {
	q := sq.Update(tableReports).
		Set(reportFieldUpdatedAt, sq.Expr(reportFieldUpdatedAt)).
		Where(sq.Eq{reportFieldID: reportID})

	_, err := execAffected(ctx, q, mtx.tx)
	if err != nil {
		return nil, fmt.Errorf("failed to lock report: %w", err)
	}

	return findReport(ctx, mtx.tx, reportID)
}

func (mtx *moderationTx) UpdateReport(ctx context.Context, report *reports.Report) error {
	return updateReport(ctx, mtx.tx, report)
}

func (mtx *moderationTx) FindComment(ctx context.Context, commentID string) (*discuss.Comment, error) {
	return findComment(ctx, mtx.tx, commentID)
}

func (mtx *moderationTx) SoftDeleteComment(
	ctx context.Context,
	commentID string,
	del discuss.SoftDelete,
) (*discuss.Comment, error) {
	return softDeleteComment(ctx, mtx.tx, commentID, del)
}

func (mtx *moderationTx) FindListing(ctx context.Context, listingID string) (*contents.Listing, error) {
	return findListing(ctx, mtx.tx, listingID)
}

func (mtx *moderationTx) SoftDeleteListing(ctx context.Context, listingID string, at time.Time) error {
	return softDeleteListing(ctx, mtx.tx, listingID, at)
}

func (mtx *moderationTx) FindImage(ctx context.Context, imageID string) (*contents.Image, error) {
	return findImage(ctx, mtx.tx, imageID)
}

func (mtx *moderationTx) SoftDeleteImage(ctx context.Context, imageID string, at time.Time) error {
	return softDeleteImage(ctx, mtx.tx, imageID, at)
}

func (mtx *moderationTx) FindPost(ctx context.Context, postID string) (*contents.Post, error) {
	return findPost(ctx, mtx.tx, postID)
}

func (mtx *moderationTx) SoftDeletePost(ctx context.Context, postID string, at time.Time) error {
	return softDeletePost(ctx, mtx.tx, postID, at)
}

func (mtx *moderationTx) FindUser(ctx context.Context, userID string) (*users.User, error) {
	return findUser(ctx, mtx.tx, userID)
}

func (mtx *moderationTx) SuspendUser(ctx context.Context, userID string, at time.Time) error {
	return suspendUser(ctx, mtx.tx, userID, at)
}

func (mtx *moderationTx) MuteUser(ctx context.Context, userID string, mute users.MuteState, at time.Time) error {
	return updateMute(ctx, mtx.tx, userID, mute, at)
}
