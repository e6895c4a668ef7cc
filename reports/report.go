package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nasermirzaei89/bazaar/apperror"
)

type ItemType string

const (
	ItemTypeComment ItemType = "comment"
	ItemTypeListing ItemType = "listing"
	ItemTypeImage   ItemType = "image"
	ItemTypePost    ItemType = "post"
	ItemTypeUser    ItemType = "user"
)

func (itemType ItemType) IsValid() bool {
	switch itemType {
	case ItemTypeComment, ItemTypeListing, ItemTypeImage, ItemTypePost, ItemTypeUser:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusOpen                Status = "open"
	StatusUnderReview         Status = "under_review"
	StatusResolvedActionTaken Status = "resolved_action_taken"
	StatusResolvedNoAction    Status = "resolved_no_action"
	StatusDismissed           Status = "dismissed"
)

func (status Status) IsValid() bool {
	return status.IsPending() || status.IsTerminal()
}

// IsPending reports whether the report still awaits a decision.
func (status Status) IsPending() bool {
	return status == StatusOpen || status == StatusUnderReview
}

func (status Status) IsTerminal() bool {
	switch status {
	case StatusResolvedActionTaken, StatusResolvedNoAction, StatusDismissed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether an admin may move a report from status to next.
// Reopening a terminal report is reserved for failed moderation actions.
func (status Status) CanTransitionTo(next Status) bool {
	switch status {
	case StatusOpen:
		return next == StatusUnderReview || next.IsTerminal()
	case StatusUnderReview:
		return next.IsTerminal()
	default:
		return false
	}
}

const (
	MinReasonLength = 10
	MaxReasonLength = 500
)

type Report struct {
	ID                string
	ReporterID        string
	ItemID            string
	ItemType          ItemType
	Tags              []string
	Reason            string
	Snapshot          json.RawMessage
	Status            Status
	AdminNotes        string
	ResolvedByAdminID *string
	ResolvedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Resolve moves the report to a terminal status and stamps the resolution metadata.
func (report *Report) Resolve(status Status, adminID string, at time.Time) {
	report.Status = status
	report.ResolvedByAdminID = &adminID
	report.ResolvedAt = &at
	report.UpdatedAt = at
}

// AppendNote adds a line to the admin notes. Notes are never rewritten.
func (report *Report) AppendNote(note string) {
	report.AdminNotes = JoinNotes(report.AdminNotes, note)
}

// JoinNotes appends note to notes on its own line.
func JoinNotes(notes, note string) string {
	switch {
	case note == "":
		return notes
	case notes == "":
		return note
	default:
		return notes + "\n" + note
	}
}

// FormatNote prefixes text with its author and time.
func FormatNote(at time.Time, authorID, text string) string {
	return fmt.Sprintf("[%s] %s: %s", at.UTC().Format(time.RFC3339), authorID, text)
}

// Item is the state of a reported item captured when the report is filed.
type Item struct {
	Snapshot map[string]any
	Tags     []string
}

// ItemResolver looks up reportable items by kind.
type ItemResolver interface {
	// Resolve fails with a NotFound kind error when the item does not exist.
	Resolve(ctx context.Context, itemType ItemType, itemID string) (item *Item, err error)
}

type ReportRepository interface {
	// Insert fails with DuplicateReportError when the reporter has a pending report on the item.
	Insert(ctx context.Context, report *Report) (err error)
	Find(ctx context.Context, reportID string) (report *Report, err error)
	List(ctx context.Context, params *ListReportsParams) (reports []*Report, total int, err error)
	// Update writes status and resolution fields when the stored status still equals previous,
	// appending note to the stored admin notes when it is non-empty. It fails with
	// StatusChangedError otherwise.
	Update(ctx context.Context, report *Report, previous Status, note string) (err error)
	AppendNote(ctx context.Context, reportID string, note string, at time.Time) (err error)
}

type ListReportsParams struct {
	Status   Status
	ItemType ItemType
	Tag      string
	// VisibleTags restricts results to reports carrying one of these tags or no tags at all.
	// A nil slice applies no restriction.
	VisibleTags []string
	Limit       int
	Offset      int
}

type Filter struct {
	Status   Status
	ItemType ItemType
	Tag      string
}

type ReportPage struct {
	Reports []*Report
	Page    int
	Limit   int
	Total   int
	HasNext bool
}

type ReportNotFoundError struct {
	ID string
}

func (err ReportNotFoundError) Error() string {
	return fmt.Sprintf("report with id %q not found", err.ID)
}

func (err ReportNotFoundError) Is(target error) bool { return target == apperror.ErrNotFound }

type DuplicateReportError struct {
	ReporterID string
	ItemID     string
}

func (err DuplicateReportError) Error() string {
	return fmt.Sprintf("user %q already has an open report on item %q", err.ReporterID, err.ItemID)
}

func (err DuplicateReportError) Is(target error) bool { return target == apperror.ErrConflict }

type TagForbiddenError struct {
	Tag string
}

func (err TagForbiddenError) Error() string {
	return fmt.Sprintf("not authorized for tag %q", err.Tag)
}

func (err TagForbiddenError) Is(target error) bool { return target == apperror.ErrForbidden }

type ReportNotVisibleError struct {
	ID string
}

func (err ReportNotVisibleError) Error() string {
	return fmt.Sprintf("report %q is outside the admin's tag scope", err.ID)
}

func (err ReportNotVisibleError) Is(target error) bool { return target == apperror.ErrForbidden }

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (err InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move report from %s to %s", err.From, err.To)
}

func (err InvalidTransitionError) Is(target error) bool { return target == apperror.ErrConflict }

type StatusChangedError struct {
	ID string
}

func (err StatusChangedError) Error() string {
	return fmt.Sprintf("report %q was changed concurrently", err.ID)
}

func (err StatusChangedError) Is(target error) bool { return target == apperror.ErrConflict }
