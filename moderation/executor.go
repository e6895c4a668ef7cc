package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nasermirzaei89/bazaar/apperror"
	"github.com/nasermirzaei89/bazaar/auth"
	"github.com/nasermirzaei89/bazaar/notify"
	"github.com/nasermirzaei89/bazaar/reports"
	"github.com/nasermirzaei89/bazaar/users"
)

// SystemAuthor signs notes written by the executor itself rather than an admin.
const SystemAuthor = "system"

const compensationTimeout = 10 * time.Second

type Executor struct {
	store    Store
	notifier notify.Notifier
	recorder Recorder
	now      func() time.Time
}

func NewExecutor(store Store, notifier notify.Notifier, recorder Recorder) *Executor {
	return &Executor{
		store:    store,
		notifier: notifier,
		recorder: recorder,
		now:      time.Now,
	}
}

// WithClock replaces the time source used to stamp resolutions and mute expiry.
func (ex *Executor) WithClock(now func() time.Time) *Executor {
	ex.now = now

	return ex
}

func (ex *Executor) validate(req *ActionRequest) error {
	principal := auth.Principal{UserID: req.AdminID, AdminTags: req.AdminTags}

	if !principal.IsAuthenticated() {
		return &auth.UnauthenticatedError{}
	}

	if !principal.IsAdmin() {
		return &auth.AdminRequiredError{UserID: req.AdminID}
	}

	if !req.Kind.IsValid() {
		return &apperror.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown action kind %q", req.Kind)}
	}

	reason, err := reports.ValidateReason(req.Reason)
	if err != nil {
		return err
	}

	req.Reason = reason

	if req.MuteDurationDays != nil {
		if !req.Kind.Mutes() {
			return &apperror.ValidationError{Field: "muteDurationDays", Reason: "only applies to " + string(ActionDeleteItemAndMute)}
		}

		err = users.ValidateMuteDuration(*req.MuteDurationDays)
		if err != nil {
			return err
		}
	}

	return nil
}

// Execute applies req to the reported item and resolves the report in one transaction.
//
// Domain failures are returned as they are and leave no trace. Any other failure rolls the
// transaction back, reopens the report with a failure note and returns
// TransactionFailureError.
func (ex *Executor) Execute(ctx context.Context, req ActionRequest) (*reports.Report, error) {
	err := ex.validate(&req)
	if err != nil {
		return nil, err
	}

	timeNow := ex.now().UTC()

	var report *reports.Report

	err = ex.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error

		report, err = ex.apply(ctx, tx, req, timeNow)

		return err
	})
	if err != nil {
		if apperror.Classified(err) {
			return nil, err
		}

		return nil, ex.compensate(ctx, req, err)
	}

	ex.record(string(req.Kind), string(report.Status))

	notify.Send(ctx, ex.notifier, notify.Event{
		Type:      notify.EventModerationActionTaken,
		SubjectID: report.ID,
		Data: map[string]any{
			"kind":     req.Kind,
			"adminId":  req.AdminID,
			"itemId":   report.ItemID,
			"itemType": report.ItemType,
			"status":   report.Status,
		},
		OccurredAt: timeNow,
	})

	return report, nil
}

func (ex *Executor) apply(ctx context.Context, tx Tx, req ActionRequest, now time.Time) (*reports.Report, error) {
	report, err := tx.FindReport(ctx, req.ReportID)
	if err != nil {
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	principal := auth.Principal{UserID: req.AdminID, AdminTags: req.AdminTags}
	if !principal.CanSee(report.Tags) {
		return nil, &reports.ReportNotVisibleError{ID: report.ID}
	}

	report.AppendNote(reports.FormatNote(now, req.AdminID, fmt.Sprintf("%s: %s", req.Kind, req.Reason)))

	status, err := ex.applyToItem(ctx, tx, report, req, now)
	if err != nil {
		return nil, err
	}

	report.Resolve(status, req.AdminID, now)

	err = tx.UpdateReport(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}

	return report, nil
}

func (ex *Executor) applyToItem(
	ctx context.Context,
	tx Tx,
	report *reports.Report,
	req ActionRequest,
	now time.Time,
) (reports.Status, error) {
	handler, ok := HandlerFor(report.ItemType)
	if !ok {
		report.AppendNote(reports.FormatNote(now, SystemAuthor,
			fmt.Sprintf("no action available for item type %q", report.ItemType)))

		return reports.StatusResolvedNoAction, nil
	}

	item, err := handler.Load(ctx, tx, report.ItemID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			report.AppendNote(reports.FormatNote(now, SystemAuthor, "item no longer exists"))

			return reports.StatusResolvedActionTaken, nil
		}

		return "", fmt.Errorf("failed to load reported item: %w", err)
	}

	if item.Deleted {
		report.AppendNote(reports.FormatNote(now, SystemAuthor, "item was already deleted"))
	} else {
		err = handler.SoftDelete(ctx, tx, item, req.Reason, now)
		if err != nil {
			return "", fmt.Errorf("failed to delete reported item: %w", err)
		}

		report.AppendNote(reports.FormatNote(now, SystemAuthor, "item deleted"))
	}

	if !req.Kind.Mutes() {
		return reports.StatusResolvedActionTaken, nil
	}

	switch item.OwnerID {
	case "":
		report.AppendNote(reports.FormatNote(now, SystemAuthor, "owner could not be resolved, mute skipped"))
	case req.AdminID:
		report.AppendNote(reports.FormatNote(now, SystemAuthor, "owner is the acting admin, mute refused"))
	default:
		mute, err := users.NewMuteState(req.AdminID, MuteReason(report, req.Reason), req.MuteDurationDays, now)
		if err != nil {
			return "", err
		}

		err = tx.MuteUser(ctx, item.OwnerID, mute, now)
		if err != nil {
			return "", fmt.Errorf("failed to mute owner: %w", err)
		}

		report.AppendNote(reports.FormatNote(now, SystemAuthor, muteNote(item.OwnerID, mute)))
	}

	return reports.StatusResolvedActionTaken, nil
}

// MuteReason composes the reason stored on a mute applied through a report.
func MuteReason(report *reports.Report, adminReason string) string {
	return fmt.Sprintf("report %s (%s): %s", report.ID, report.Reason, adminReason)
}

func muteNote(userID string, mute users.MuteState) string {
	if mute.ExpiresAt == nil {
		return fmt.Sprintf("user %s muted indefinitely", userID)
	}

	return fmt.Sprintf("user %s muted until %s", userID, mute.ExpiresAt.Format(time.RFC3339))
}

// compensate reopens the report after a failed action. It is attempted once.
func (ex *Executor) compensate(ctx context.Context, req ActionRequest, cause error) error {
	slog.ErrorContext(ctx, "moderation action failed", "reportId", req.ReportID, "kind", req.Kind, "error", cause)

	ex.record(string(req.Kind), "failed")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	timeNow := ex.now().UTC()
	note := reports.FormatNote(timeNow, SystemAuthor,
		fmt.Sprintf("%s by %s failed and was rolled back: %v", req.Kind, req.AdminID, cause))

	err := ex.store.ReopenReport(ctx, req.ReportID, note, timeNow)
	if err != nil {
		slog.ErrorContext(ctx, "failed to reopen report after failed moderation action",
			"reportId", req.ReportID, "error", err, "cause", cause)

		if ex.recorder != nil {
			ex.recorder.Compensation("failed")
		}

		return &TransactionFailureError{ReportID: req.ReportID, Compensated: false, Cause: cause}
	}

	slog.WarnContext(ctx, "report reopened after failed moderation action", "reportId", req.ReportID)

	if ex.recorder != nil {
		ex.recorder.Compensation("succeeded")
	}

	return &TransactionFailureError{ReportID: req.ReportID, Compensated: true, Cause: cause}
}

func (ex *Executor) record(kind, outcome string) {
	if ex.recorder != nil {
		ex.recorder.ModerationAction(kind, outcome)
	}
}
