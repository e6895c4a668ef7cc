package discuss

import (
	"context"
	"fmt"
	"time"

	"github.com/nasermirzaei89/bazaar/apperror"
)

type ContainerType string

const (
	ContainerTypeListing ContainerType = "listing"
	ContainerTypePost    ContainerType = "post"
)

func (containerType ContainerType) IsValid() bool {
	return containerType == ContainerTypeListing || containerType == ContainerTypePost
}

// Placeholders written over the text of deleted comments.
const (
	DeletedText = "[deleted]"
	RemovedText = "[removed by moderator]"
)

type Comment struct {
	ID               string
	ContainerType    ContainerType
	ContainerID      string
	ParentID         *string
	AuthorID         string
	Text             string
	Votes            int
	ReplyCount       int
	IsDeletedByUser  bool
	IsDeletedByAdmin bool
	DeletedReason    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsActive reports whether neither the author nor an admin has deleted the comment.
func (comment *Comment) IsActive() bool {
	return !comment.IsDeletedByUser && !comment.IsDeletedByAdmin
}

type DeletedBy string

const (
	DeletedByUser  DeletedBy = "user"
	DeletedByAdmin DeletedBy = "admin"
)

type SoftDelete struct {
	By     DeletedBy
	Reason string
	At     time.Time
}

// Text returns the placeholder stored over the comment text.
func (d SoftDelete) Text() string {
	if d.By == DeletedByAdmin {
		return RemovedText
	}

	return DeletedText
}

type CommentRepository interface {
	// Insert stores a top-level comment. It fails with ContainerNotFoundError when the
	// container is missing.
	Insert(ctx context.Context, comment *Comment) (err error)
	// InsertReply stores reply and increments the parent's reply count in one transaction.
	InsertReply(ctx context.Context, reply *Comment) (err error)
	Find(ctx context.Context, commentID string) (comment *Comment, err error)
	// SoftDelete flags an active comment and decrements its parent's reply count in one
	// transaction. It fails with CommentAlreadyDeletedError when the comment is not active.
	SoftDelete(ctx context.Context, commentID string, del SoftDelete) (comment *Comment, err error)
	List(ctx context.Context, params *ListCommentsParams) (comments []*Comment, total int, err error)
}

// ListCommentsParams selects top-level comments of a container, or the replies of ParentID
// when it is set.
type ListCommentsParams struct {
	ContainerType ContainerType
	ContainerID   string
	ParentID      *string
	Limit         int
	Offset        int
}

type CommentPage struct {
	Comments []*Comment
	Page     int
	Limit    int
	Total    int
	HasNext  bool
}

type CommentNotFoundError struct {
	ID string
}

func (err CommentNotFoundError) Error() string {
	return fmt.Sprintf("comment with id %q not found", err.ID)
}

func (err CommentNotFoundError) Is(target error) bool { return target == apperror.ErrNotFound }

type ContainerNotFoundError struct {
	ContainerType ContainerType
	ContainerID   string
}

func (err ContainerNotFoundError) Error() string {
	return fmt.Sprintf("%s with id %q not found", err.ContainerType, err.ContainerID)
}

func (err ContainerNotFoundError) Is(target error) bool { return target == apperror.ErrNotFound }

type CommentAlreadyDeletedError struct {
	ID string
}

func (err CommentAlreadyDeletedError) Error() string {
	return fmt.Sprintf("comment with id %q is already deleted", err.ID)
}

func (err CommentAlreadyDeletedError) Is(target error) bool { return target == apperror.ErrConflict }

type ParentDeletedError struct {
	ParentID string
}

func (err ParentDeletedError) Error() string {
	return fmt.Sprintf("cannot reply to deleted comment %q", err.ParentID)
}

func (err ParentDeletedError) Is(target error) bool { return target == apperror.ErrConflict }

type NotCommentAuthorError struct {
	CommentID string
	UserID    string
}

func (err NotCommentAuthorError) Error() string {
	return fmt.Sprintf("user %q is not the author of comment %q", err.UserID, err.CommentID)
}

func (err NotCommentAuthorError) Is(target error) bool { return target == apperror.ErrForbidden }
