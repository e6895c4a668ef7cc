package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/bazaar/apperror"
	"github.com/nasermirzaei89/bazaar/auth"
	"github.com/nasermirzaei89/bazaar/notify"
	"github.com/nasermirzaei89/bazaar/pagination"
	"github.com/samber/lo"
)

// Recorder receives report filings for instrumentation.
type Recorder interface {
	ReportFiled(itemType string)
}

type Service struct {
	reportRepo ReportRepository
	resolver   ItemResolver
	notifier   notify.Notifier
	recorder   Recorder
	now        func() time.Time
}

func NewService(reportRepo ReportRepository, resolver ItemResolver, notifier notify.Notifier, recorder Recorder) *Service {
	return &Service{
		reportRepo: reportRepo,
		resolver:   resolver,
		notifier:   notifier,
		recorder:   recorder,
		now:        time.Now,
	}
}

// ValidateReason checks the rune length of a report or moderation reason.
func ValidateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)

	length := utf8.RuneCountInString(reason)
	if length < MinReasonLength || length > MaxReasonLength {
		return "", &apperror.ValidationError{
			Field:  "reason",
			Reason: fmt.Sprintf("must be between %d and %d characters", MinReasonLength, MaxReasonLength),
		}
	}

	return reason, nil
}

type FileReportRequest struct {
	ReporterID string
	ItemID     string
	ItemType   ItemType
	Reason     string
	Tags       []string
}

func (svc *Service) FileReport(ctx context.Context, req FileReportRequest) (*Report, error) {
	if req.ReporterID == "" {
		return nil, &auth.UnauthenticatedError{}
	}

	if !req.ItemType.IsValid() {
		return nil, &apperror.ValidationError{Field: "itemType", Reason: fmt.Sprintf("unknown item type %q", req.ItemType)}
	}

	if strings.TrimSpace(req.ItemID) == "" {
		return nil, &apperror.ValidationError{Field: "itemId", Reason: "is required"}
	}

	reason, err := ValidateReason(req.Reason)
	if err != nil {
		return nil, err
	}

	item, err := svc.resolver.Resolve(ctx, req.ItemType, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reported item: %w", err)
	}

	snapshot, err := json.Marshal(item.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	timeNow := svc.now().UTC()

	report := &Report{
		ID:         uuid.NewString(),
		ReporterID: req.ReporterID,
		ItemID:     req.ItemID,
		ItemType:   req.ItemType,
		Tags:       auth.NormalizeTags(lo.Union(item.Tags, req.Tags)),
		Reason:     reason,
		Snapshot:   snapshot,
		Status:     StatusOpen,
		CreatedAt:  timeNow,
		UpdatedAt:  timeNow,
	}

	err = svc.reportRepo.Insert(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}

	if svc.recorder != nil {
		svc.recorder.ReportFiled(string(report.ItemType))
	}

	notify.Send(ctx, svc.notifier, notify.Event{
		Type:      notify.EventReportFiled,
		SubjectID: report.ID,
		Data: map[string]any{
			"itemId":   report.ItemID,
			"itemType": report.ItemType,
			"tags":     report.Tags,
		},
		OccurredAt: timeNow,
	})

	return report, nil
}

func requireAdmin(principal auth.Principal) error {
	if !principal.IsAuthenticated() {
		return &auth.UnauthenticatedError{}
	}

	if !principal.IsAdmin() {
		return &auth.AdminRequiredError{UserID: principal.UserID}
	}

	return nil
}

func (svc *Service) ListReports(
	ctx context.Context,
	principal auth.Principal,
	filter Filter,
	page, limit int,
) (*ReportPage, error) {
	err := requireAdmin(principal)
	if err != nil {
		return nil, err
	}

	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, &apperror.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", filter.Status)}
	}

	if filter.ItemType != "" && !filter.ItemType.IsValid() {
		return nil, &apperror.ValidationError{Field: "itemType", Reason: fmt.Sprintf("unknown item type %q", filter.ItemType)}
	}

	tag := strings.ToLower(strings.TrimSpace(filter.Tag))
	if tag != "" && !principal.AuthorizedFor(tag) {
		return nil, &TagForbiddenError{Tag: filter.Tag}
	}

	p, err := pagination.New(page, limit)
	if err != nil {
		return nil, err
	}

	params := &ListReportsParams{
		Status:   filter.Status,
		ItemType: filter.ItemType,
		Tag:      tag,
		Limit:    p.Limit,
		Offset:   p.Offset(),
	}

	if !principal.SeesAllTags() {
		params.VisibleTags = auth.NormalizeTags(principal.AdminTags)
	}

	reports, total, err := svc.reportRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	return &ReportPage{
		Reports: reports,
		Page:    p.Number,
		Limit:   p.Limit,
		Total:   total,
		HasNext: p.HasNext(total),
	}, nil
}

func (svc *Service) GetReport(ctx context.Context, principal auth.Principal, reportID string) (*Report, error) {
	err := requireAdmin(principal)
	if err != nil {
		return nil, err
	}

	report, err := svc.reportRepo.Find(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	if !principal.CanSee(report.Tags) {
		return nil, &ReportNotVisibleError{ID: reportID}
	}

	return report, nil
}

type UpdateStatusRequest struct {
	ReportID string
	Status   Status
	Note     string
}

func (svc *Service) UpdateStatus(ctx context.Context, principal auth.Principal, req UpdateStatusRequest) (*Report, error) {
	if !req.Status.IsValid() {
		return nil, &apperror.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", req.Status)}
	}

	report, err := svc.GetReport(ctx, principal, req.ReportID)
	if err != nil {
		return nil, err
	}

	if !report.Status.CanTransitionTo(req.Status) {
		return nil, &InvalidTransitionError{From: report.Status, To: req.Status}
	}

	previous := report.Status
	timeNow := svc.now().UTC()

	if req.Status.IsTerminal() {
		report.Resolve(req.Status, principal.UserID, timeNow)
	} else {
		report.Status = req.Status
		report.UpdatedAt = timeNow
	}

	note := strings.TrimSpace(req.Note)
	if note != "" {
		note = FormatNote(timeNow, principal.UserID, note)
	}

	err = svc.reportRepo.Update(ctx, report, previous, note)
	if err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}

	report, err = svc.reportRepo.Find(ctx, req.ReportID)
	if err != nil {
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	return report, nil
}

func (svc *Service) AppendNote(ctx context.Context, principal auth.Principal, reportID, note string) (*Report, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, &apperror.ValidationError{Field: "note", Reason: "is required"}
	}

	_, err := svc.GetReport(ctx, principal, reportID)
	if err != nil {
		return nil, err
	}

	timeNow := svc.now().UTC()

	err = svc.reportRepo.AppendNote(ctx, reportID, FormatNote(timeNow, principal.UserID, note), timeNow)
	if err != nil {
		return nil, fmt.Errorf("failed to append note: %w", err)
	}

	return svc.GetReport(ctx, principal, reportID)
}
