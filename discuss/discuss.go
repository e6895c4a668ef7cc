package discuss

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/bazaar/apperror"
	"github.com/nasermirzaei89/bazaar/pagination"
)

const maxTextLength = 10000

// PostingGuard is consulted before a user may write a comment.
type PostingGuard interface {
	CheckCanPost(ctx context.Context, userID string) (err error)
}

type Service struct {
	commentRepo CommentRepository
	guard       PostingGuard
}

func NewService(commentRepo CommentRepository, guard PostingGuard) *Service {
	return &Service{
		commentRepo: commentRepo,
		guard:       guard,
	}
}

type CreateCommentRequest struct {
	ContainerType ContainerType
	ContainerID   string
	AuthorID      string
	Text          string
}

func (svc *Service) CreateComment(ctx context.Context, req CreateCommentRequest) (*Comment, error) {
	if !req.ContainerType.IsValid() {
		return nil, &apperror.ValidationError{Field: "containerType", Reason: "must be listing or post"}
	}

	text, err := validateText(req.Text)
	if err != nil {
		return nil, err
	}

	err = svc.guard.CheckCanPost(ctx, req.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check posting permission: %w", err)
	}

	timeNow := time.Now().UTC()

	comment := &Comment{
		ID:            uuid.NewString(),
		ContainerType: req.ContainerType,
		ContainerID:   req.ContainerID,
		AuthorID:      req.AuthorID,
		Text:          text,
		CreatedAt:     timeNow,
		UpdatedAt:     timeNow,
	}

	err = svc.commentRepo.Insert(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	return comment, nil
}

type CreateReplyRequest struct {
	ParentID string
	AuthorID string
	Text     string
}

func (svc *Service) CreateReply(ctx context.Context, req CreateReplyRequest) (*Comment, error) {
	text, err := validateText(req.Text)
	if err != nil {
		return nil, err
	}

	err = svc.guard.CheckCanPost(ctx, req.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check posting permission: %w", err)
	}

	parent, err := svc.commentRepo.Find(ctx, req.ParentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find parent comment: %w", err)
	}

	timeNow := time.Now().UTC()

	reply := &Comment{
		ID:            uuid.NewString(),
		ContainerType: parent.ContainerType,
		ContainerID:   parent.ContainerID,
		ParentID:      &parent.ID,
		AuthorID:      req.AuthorID,
		Text:          text,
		CreatedAt:     timeNow,
		UpdatedAt:     timeNow,
	}

	err = svc.commentRepo.InsertReply(ctx, reply)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reply: %w", err)
	}

	return reply, nil
}

func (svc *Service) GetComment(ctx context.Context, commentID string) (*Comment, error) {
	comment, err := svc.commentRepo.Find(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	return comment, nil
}

func (svc *Service) SoftDeleteByAuthor(ctx context.Context, commentID, authorID string) (*Comment, error) {
	comment, err := svc.commentRepo.Find(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	if comment.AuthorID != authorID {
		return nil, &NotCommentAuthorError{CommentID: commentID, UserID: authorID}
	}

	comment, err = svc.commentRepo.SoftDelete(ctx, commentID, SoftDelete{
		By: DeletedByUser,
		At: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to soft delete comment: %w", err)
	}

	return comment, nil
}

func (svc *Service) SoftDeleteByAdmin(ctx context.Context, commentID, adminID, reason string) (*Comment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &apperror.ValidationError{Field: "reason", Reason: "is required"}
	}

	comment, err := svc.commentRepo.SoftDelete(ctx, commentID, SoftDelete{
		By:     DeletedByAdmin,
		Reason: reason,
		At:     time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to soft delete comment: %w", err)
	}

	slog.InfoContext(ctx, "comment removed by admin", "commentId", commentID, "adminId", adminID)

	return comment, nil
}

// ListComments returns one page of the top-level comments of a container.
func (svc *Service) ListComments(
	ctx context.Context,
	containerType ContainerType,
	containerID string,
	page, limit int,
) (*CommentPage, error) {
	if !containerType.IsValid() {
		return nil, &apperror.ValidationError{Field: "containerType", Reason: "must be listing or post"}
	}

	return svc.listPage(ctx, ListCommentsParams{ContainerType: containerType, ContainerID: containerID}, page, limit)
}

func (svc *Service) ListReplies(ctx context.Context, parentID string, page, limit int) (*CommentPage, error) {
	_, err := svc.commentRepo.Find(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find parent comment: %w", err)
	}

	return svc.listPage(ctx, ListCommentsParams{ParentID: &parentID}, page, limit)
}

// Pages yields the top-level comments of a container page by page until the last one.
// Each iteration re-runs the query from the first page.
func (svc *Service) Pages(
	ctx context.Context,
	containerType ContainerType,
	containerID string,
	limit int,
) iter.Seq2[*CommentPage, error] {
	return func(yield func(*CommentPage, error) bool) {
		for page := 1; ; page++ {
			commentPage, err := svc.ListComments(ctx, containerType, containerID, page, limit)
			if err != nil {
				yield(nil, err)

				return
			}

			if !yield(commentPage, nil) || !commentPage.HasNext {
				return
			}
		}
	}
}

func (svc *Service) listPage(ctx context.Context, params ListCommentsParams, page, limit int) (*CommentPage, error) {
	p, err := pagination.New(page, limit)
	if err != nil {
		return nil, err
	}

	params.Limit = p.Limit
	params.Offset = p.Offset()

	comments, total, err := svc.commentRepo.List(ctx, &params)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return &CommentPage{
		Comments: comments,
		Page:     p.Number,
		Limit:    p.Limit,
		Total:    total,
		HasNext:  p.HasNext(total),
	}, nil
}

func validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &apperror.ValidationError{Field: "text", Reason: "is required"}
	}

	if utf8.RuneCountInString(text) > maxTextLength {
		return "", &apperror.ValidationError{Field: "text", Reason: fmt.Sprintf("must be at most %d characters", maxTextLength)}
	}

	return text, nil
}
