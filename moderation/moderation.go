// Package moderation executes admin actions against reported items as one atomic unit,
// reopening the report when an action fails.
package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/nasermirzaei89/bazaar/apperror"
	"github.com/nasermirzaei89/bazaar/contents"
	"github.com/nasermirzaei89/bazaar/discuss"
	"github.com/nasermirzaei89/bazaar/reports"
	"github.com/nasermirzaei89/bazaar/users"
)

type ActionKind string

const (
	ActionDeleteItem        ActionKind = "delete_item"
	ActionDeleteItemAndMute ActionKind = "delete_item_and_mute"
)

func (kind ActionKind) IsValid() bool {
	return kind == ActionDeleteItem || kind == ActionDeleteItemAndMute
}

func (kind ActionKind) Mutes() bool {
	return kind == ActionDeleteItemAndMute
}

// Store runs moderation actions in storage transactions.
type Store interface {
	// RunInTx commits when fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) (err error)
	// ReopenReport moves a report back to open and appends note. It runs in its own
	// transaction.
	ReopenReport(ctx context.Context, reportID string, note string, at time.Time) (err error)
}

// Tx is the set of mutations a moderation action may perform inside one transaction.
type Tx interface {
	// FindReport locks the report for the rest of the transaction.
	FindReport(ctx context.Context, reportID string) (report *reports.Report, err error)
	UpdateReport(ctx context.Context, report *reports.Report) (err error)

	FindComment(ctx context.Context, commentID string) (comment *discuss.Comment, err error)
	SoftDeleteComment(ctx context.Context, commentID string, del discuss.SoftDelete) (comment *discuss.Comment, err error)

	FindListing(ctx context.Context, listingID string) (listing *contents.Listing, err error)
	SoftDeleteListing(ctx context.Context, listingID string, at time.Time) (err error)

	FindImage(ctx context.Context, imageID string) (image *contents.Image, err error)
	SoftDeleteImage(ctx context.Context, imageID string, at time.Time) (err error)

	FindPost(ctx context.Context, postID string) (post *contents.Post, err error)
	SoftDeletePost(ctx context.Context, postID string, at time.Time) (err error)

	FindUser(ctx context.Context, userID string) (user *users.User, err error)
	SuspendUser(ctx context.Context, userID string, at time.Time) (err error)
	MuteUser(ctx context.Context, userID string, mute users.MuteState, at time.Time) (err error)
}

// Recorder receives moderation outcomes for instrumentation.
type Recorder interface {
	ModerationAction(kind string, outcome string)
	Compensation(result string)
}

type ActionRequest struct {
	ReportID         string
	Kind             ActionKind
	AdminID          string
	AdminTags        []string
	Reason           string
	MuteDurationDays *int
}

// TransactionFailureError is returned when an action failed for an unexpected reason and
// was rolled back. Compensated tells whether the report was reopened afterwards.
type TransactionFailureError struct {
	ReportID    string
	Compensated bool
	Cause       error
}

func (err TransactionFailureError) Error() string {
	if err.Compensated {
		return fmt.Sprintf("moderation action on report %q failed and the report was reopened: %v", err.ReportID, err.Cause)
	}

	return fmt.Sprintf("moderation action on report %q failed and the report could not be reopened: %v", err.ReportID, err.Cause)
}

func (err TransactionFailureError) Unwrap() error { return err.Cause }

func (err TransactionFailureError) Is(target error) bool {
	return target == apperror.ErrTransactionFailure
}
