package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/bazaar/discuss"
)

const tableComments = "comments"

type CommentRepository struct {
	db *sql.DB
}

var _ discuss.CommentRepository = (*CommentRepository)(nil)

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const (
	commentFieldID               = "id"
	commentFieldContainerType    = "container_type"
	commentFieldContainerID      = "container_id"
	commentFieldParentID         = "parent_id"
	commentFieldAuthorID         = "author_id"
	commentFieldText             = "text"
	commentFieldVotes            = "votes"
	commentFieldReplyCount       = "reply_count"
	commentFieldIsDeletedByUser  = "is_deleted_by_user"
	commentFieldIsDeletedByAdmin = "is_deleted_by_admin"
	commentFieldDeletedReason    = "deleted_reason"
	commentFieldCreatedAt        = "created_at"
	commentFieldUpdatedAt        = "updated_at"
)

func commentColumns() []string {
	return []string{
		commentFieldID,
		commentFieldContainerType,
		commentFieldContainerID,
		commentFieldParentID,
		commentFieldAuthorID,
		commentFieldText,
		commentFieldVotes,
		commentFieldReplyCount,
		commentFieldIsDeletedByUser,
		commentFieldIsDeletedByAdmin,
		commentFieldDeletedReason,
		commentFieldCreatedAt,
		commentFieldUpdatedAt,
	}
}

func scanComment(row sq.RowScanner) (*discuss.Comment, error) {
	var comment discuss.Comment

	err := row.Scan(
		&comment.ID,
		&comment.ContainerType,
		&comment.ContainerID,
		&comment.ParentID,
		&comment.AuthorID,
		&comment.Text,
		&comment.Votes,
		&comment.ReplyCount,
		&comment.IsDeletedByUser,
		&comment.IsDeletedByAdmin,
		&comment.DeletedReason,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &comment, nil
}

// activeComment matches comments neither the author nor an admin has deleted.
var activeComment = sq.Eq{
	commentFieldIsDeletedByUser:  0,
	commentFieldIsDeletedByAdmin: 0,
}

func insertComment(ctx context.Context, runner sq.StdSqlCtx, comment *discuss.Comment) error {
	q := sq.Insert(tableComments).
		Columns(commentColumns()...).
		Values(
			comment.ID,
			comment.ContainerType,
			comment.ContainerID,
			comment.ParentID,
			comment.AuthorID,
			comment.Text,
			comment.Votes,
			comment.ReplyCount,
			boolToInt(comment.IsDeletedByUser),
			boolToInt(comment.IsDeletedByAdmin),
			comment.DeletedReason,
			comment.CreatedAt,
			comment.UpdatedAt,
		)

	q = q.RunWith(runner)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func containerTable(containerType discuss.ContainerType) (string, bool) {
	switch containerType {
	case discuss.ContainerTypeListing:
		return tableListings, true
	case discuss.ContainerTypePost:
		return tablePosts, true
	default:
		return "", false
	}
}

func (repo *CommentRepository) Insert(ctx context.Context, comment *discuss.Comment) error {
	table, ok := containerTable(comment.ContainerType)
	if !ok {
		return &discuss.ContainerNotFoundError{ContainerType: comment.ContainerType, ContainerID: comment.ContainerID}
	}

	q := sq.Select("COUNT(*)").
		From(table).
		Where(sq.Eq{"id": comment.ContainerID})

	q = q.RunWith(repo.db)

	var count int

	err := q.QueryRowContext(ctx).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check container: %w", err)
	}

	if count == 0 {
		return &discuss.ContainerNotFoundError{ContainerType: comment.ContainerType, ContainerID: comment.ContainerID}
	}

	return insertComment(ctx, repo.db, comment)
}

func (repo *CommentRepository) InsertReply(ctx context.Context, reply *discuss.Comment) error {
	if reply.ParentID == nil {
		return errors.New("reply has no parent")
	}

	parentID := *reply.ParentID

	return inTx(ctx, repo.db, func(tx *sql.Tx) error {
		q := sq.Update(tableComments).
			Set(commentFieldReplyCount, sq.Expr(commentFieldReplyCount+" + 1")).
			Where(sq.Eq{commentFieldID: parentID}).
			Where(activeComment)

		affected, err := execAffected(ctx, q, tx)
		if err != nil {
			return fmt.Errorf("failed to increment reply count: %w", err)
		}

		if affected == 0 {
			_, err = findComment(ctx, tx, parentID)
			if err != nil {
				return err
			}

			return &discuss.ParentDeletedError{ParentID: parentID}
		}

		return insertComment(ctx, tx, reply)
	})
}

func (repo *CommentRepository) Find(ctx context.Context, commentID string) (*discuss.Comment, error) {
	return findComment(ctx, repo.db, commentID)
}

func (repo *CommentRepository) SoftDelete(
	ctx context.Context,
	commentID string,
	del discuss.SoftDelete,
) (*discuss.Comment, error) {
	var comment *discuss.Comment

	err := inTx(ctx, repo.db, func(tx *sql.Tx) error {
		var err error

		comment, err = softDeleteComment(ctx, tx, commentID, del)

		return err
	})
	if err != nil {
		return nil, err
	}

	return comment, nil
}

func (repo *CommentRepository) List(
	ctx context.Context,
	params *discuss.ListCommentsParams,
) ([]*discuss.Comment, int, error) {
	var where sq.Sqlizer

	if params.ParentID != nil {
		where = sq.Eq{commentFieldParentID: *params.ParentID}
	} else {
		where = sq.Eq{
			commentFieldContainerType: params.ContainerType,
			commentFieldContainerID:   params.ContainerID,
			commentFieldParentID:      nil,
		}
	}

	countQ := sq.Select("COUNT(*)").
		From(tableComments).
		Where(where).
		RunWith(repo.db)

	var total int

	err := countQ.QueryRowContext(ctx).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	q := sq.Select(commentColumns()...).
		From(tableComments).
		Where(where).
		OrderBy(commentFieldVotes+" DESC", commentFieldCreatedAt+" DESC", commentFieldID+" DESC").
		Limit(uint64(params.Limit)).
		Offset(uint64(params.Offset))

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	comments := make([]*discuss.Comment, 0, params.Limit)

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan comment: %w", err)
		}

		comments = append(comments, comment)
	}

	err = rows.Err()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return comments, total, nil
}

func findComment(ctx context.Context, runner sq.StdSqlCtx, commentID string) (*discuss.Comment, error) {
	q := sq.Select(commentColumns()...).
		From(tableComments).
		Where(sq.Eq{commentFieldID: commentID})

	q = q.RunWith(runner)

	comment, err := scanComment(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &discuss.CommentNotFoundError{ID: commentID}
		}

		return nil, fmt.Errorf("failed to scan comment: %w", err)
	}

	return comment, nil
}

// softDeleteComment flags an active comment and releases its slot in the parent's reply
// count. Both updates must run in the same transaction.
func softDeleteComment(
	ctx context.Context,
	tx sq.StdSqlCtx,
	commentID string,
	del discuss.SoftDelete,
) (*discuss.Comment, error) {
	flag := commentFieldIsDeletedByUser
	if del.By == discuss.DeletedByAdmin {
		flag = commentFieldIsDeletedByAdmin
	}

	q := sq.Update(tableComments).
		Set(flag, 1).
		Set(commentFieldText, del.Text()).
		Set(commentFieldDeletedReason, del.Reason).
		Set(commentFieldUpdatedAt, del.At).
		Where(sq.Eq{commentFieldID: commentID}).
		Where(activeComment).
		Suffix("RETURNING " + commentFieldParentID)

	row, err := queryRow(ctx, q, tx)
	if err != nil {
		return nil, err
	}

	var parentID sql.NullString

	err = row.Scan(&parentID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to flag comment: %w", err)
		}

		_, err = findComment(ctx, tx, commentID)
		if err != nil {
			return nil, err
		}

		return nil, &discuss.CommentAlreadyDeletedError{ID: commentID}
	}

	if parentID.Valid {
		parentQ := sq.Update(tableComments).
			Set(commentFieldReplyCount, sq.Expr(commentFieldReplyCount+" - 1")).
			Where(sq.Eq{commentFieldID: parentID.String})

		_, err = execAffected(ctx, parentQ, tx)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement reply count: %w", err)
		}
	}

	return findComment(ctx, tx, commentID)
}
