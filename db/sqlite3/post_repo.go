package sqlite3

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/bazaar/contents"
)

const tablePosts = "posts"

type PostRepository struct {
	db *sql.DB
}

var _ contents.PostRepository = (*PostRepository)(nil)

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

const (
	postFieldID               = "id"
	postFieldAuthorID         = "author_id"
	postFieldTitle            = "title"
	postFieldContent          = "content"
	postFieldTags             = "tags"
	postFieldVotes            = "votes"
	postFieldIsDeletedByUser  = "is_deleted_by_user"
	postFieldIsDeletedByAdmin = "is_deleted_by_admin"
	postFieldCreatedAt        = "created_at"
	postFieldUpdatedAt        = "updated_at"
)

func postColumns() []string {
	return []string{
		postFieldID,
		postFieldAuthorID,
		postFieldTitle,
		postFieldContent,
		postFieldTags,
		postFieldVotes,
		postFieldIsDeletedByUser,
		postFieldIsDeletedByAdmin,
		postFieldCreatedAt,
		postFieldUpdatedAt,
	}
}

func scanPost(row sq.RowScanner) (*contents.Post, error) {
	var (
		post contents.Post
		tags string
	)

	err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.Title,
		&post.Content,
		&tags,
		&post.Votes,
		&post.IsDeletedByUser,
		&post.IsDeletedByAdmin,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	post.Tags, err = decodeTags(tags)
	if err != nil {
		return nil, err
	}

	return &post, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}

	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}

	return string(b), nil
}

func decodeTags(s string) ([]string, error) {
	tags := make([]string, 0)

	err := json.Unmarshal([]byte(s), &tags)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}

	return tags, nil
}

func (repo *PostRepository) Insert(ctx context.Context, post *contents.Post) error {
	tags, err := encodeTags(post.Tags)
	if err != nil {
		return err
	}

	q := sq.Insert(tablePosts).
		Columns(postColumns()...).
		Values(
			post.ID,
			post.AuthorID,
			post.Title,
			post.Content,
			tags,
			post.Votes,
			boolToInt(post.IsDeletedByUser),
			boolToInt(post.IsDeletedByAdmin),
			post.CreatedAt,
			post.UpdatedAt,
		)

	q = q.RunWith(repo.db)

	_, err = q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *PostRepository) Find(ctx context.Context, postID string) (*contents.Post, error) {
	return findPost(ctx, repo.db, postID)
}

func (repo *PostRepository) List(ctx context.Context, params *contents.ListPostsParams) ([]*contents.Post, error) {
	q := sq.Select(postColumns()...).
		From(tablePosts).
		OrderBy(postFieldVotes+" DESC", postFieldCreatedAt+" DESC", postFieldID+" DESC")

	if params != nil {
		if params.Tag != "" {
			q = q.Where("EXISTS (SELECT 1 FROM json_each(posts.tags) WHERE json_each.value = ?)", params.Tag)
		}

		if params.Limit > 0 {
			q = q.Limit(uint64(params.Limit)).Offset(uint64(max(params.Offset, 0)))
		}
	}

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	posts := make([]*contents.Post, 0)

	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}

		posts = append(posts, post)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return posts, nil
}

func findPost(ctx context.Context, runner sq.StdSqlCtx, postID string) (*contents.Post, error) {
	q := sq.Select(postColumns()...).
		From(tablePosts).
		Where(sq.Eq{postFieldID: postID})

	q = q.RunWith(runner)

	post, err := scanPost(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &contents.PostNotFoundError{ID: postID}
		}

		return nil, fmt.Errorf("failed to scan post: %w", err)
	}

	return post, nil
}

func softDeletePost(ctx context.Context, runner sq.StdSqlCtx, postID string, at time.Time) error {
	q := sq.Update(tablePosts).
		Set(postFieldIsDeletedByAdmin, 1).
		Set(postFieldTitle, contents.RemovedTitle).
		Set(postFieldContent, contents.RemovedContent).
		Set(postFieldUpdatedAt, at).
		Where(sq.Eq{postFieldID: postID})

	affected, err := execAffected(ctx, q, runner)
	if err != nil {
		return fmt.Errorf("failed to soft delete post: %w", err)
	}

	if affected == 0 {
		return &contents.PostNotFoundError{ID: postID}
	}

	return nil
}
