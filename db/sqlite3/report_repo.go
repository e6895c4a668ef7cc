package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/bazaar/reports"
)

const (
	tableReports    = "reports"
	tableReportTags = "report_tags"
)

type ReportRepository struct {
	db *sql.DB
}

var _ reports.ReportRepository = (*ReportRepository)(nil)

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const (
	reportFieldID                = "id"
	reportFieldReporterID        = "reporter_id"
	reportFieldItemID            = "item_id"
	reportFieldItemType          = "item_type"
	reportFieldReason            = "reason"
	reportFieldSnapshot          = "snapshot"
	reportFieldStatus            = "status"
	reportFieldAdminNotes        = "admin_notes"
	reportFieldResolvedByAdminID = "resolved_by_admin_id"
	reportFieldResolvedAt        = "resolved_at"
	reportFieldCreatedAt         = "created_at"
	reportFieldUpdatedAt         = "updated_at"

	reportTagFieldReportID = "report_id"
	reportTagFieldTag      = "tag"
)

func reportColumns() []string {
	return []string{
		reportFieldID,
		reportFieldReporterID,
		reportFieldItemID,
		reportFieldItemType,
		reportFieldReason,
		reportFieldSnapshot,
		reportFieldStatus,
		reportFieldAdminNotes,
		reportFieldResolvedByAdminID,
		reportFieldResolvedAt,
		reportFieldCreatedAt,
		reportFieldUpdatedAt,
	}
}

func scanReport(row sq.RowScanner) (*reports.Report, error) {
	var (
		report   reports.Report
		snapshot string
	)

	err := row.Scan(
		&report.ID,
		&report.ReporterID,
		&report.ItemID,
		&report.ItemType,
		&report.Reason,
		&snapshot,
		&report.Status,
		&report.AdminNotes,
		&report.ResolvedByAdminID,
		&report.ResolvedAt,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	report.Snapshot = []byte(snapshot)
	report.Tags = make([]string, 0)

	return &report, nil
}

// appendNoteExpr appends note to the stored admin notes on a new line.
func appendNoteExpr(note string) sq.Sqlizer {
	return sq.Expr(
		"CASE WHEN "+reportFieldAdminNotes+" = '' THEN ? ELSE "+reportFieldAdminNotes+" || char(10) || ? END",
		note,
		note,
	)
}

func (repo *ReportRepository) Insert(ctx context.Context, report *reports.Report) error {
	return inTx(ctx, repo.db, func(tx *sql.Tx) error {
		q := sq.Insert(tableReports).
			Columns(reportColumns()...).
			Values(
				report.ID,
				report.ReporterID,
				report.ItemID,
				report.ItemType,
				report.Reason,
				string(report.Snapshot),
				report.Status,
				report.AdminNotes,
				report.ResolvedByAdminID,
				report.ResolvedAt,
				report.CreatedAt,
				report.UpdatedAt,
			).
			RunWith(tx)

		_, err := q.ExecContext(ctx)
		if err != nil {
			if isUniqueViolation(err) {
				return &reports.DuplicateReportError{ReporterID: report.ReporterID, ItemID: report.ItemID}
			}

			return fmt.Errorf("failed to exec insert: %w", err)
		}

		if len(report.Tags) == 0 {
			return nil
		}

		tagsQ := sq.Insert(tableReportTags).Columns(reportTagFieldReportID, reportTagFieldTag)
		for _, tag := range report.Tags {
			tagsQ = tagsQ.Values(report.ID, tag)
		}

		_, err = tagsQ.RunWith(tx).ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert report tags: %w", err)
		}

		return nil
	})
}

func (repo *ReportRepository) Find(ctx context.Context, reportID string) (*reports.Report, error) {
	return findReport(ctx, repo.db, reportID)
}

func (repo *ReportRepository) List(ctx context.Context, params *reports.ListReportsParams) ([]*reports.Report, int, error) {
	where := sq.And{}

	if params.Status != "" {
		where = append(where, sq.Eq{reportFieldStatus: params.Status})
	}

	if params.ItemType != "" {
		where = append(where, sq.Eq{reportFieldItemType: params.ItemType})
	}

	if params.Tag != "" {
		hasTag, err := hasAnyTag([]string{params.Tag})
		if err != nil {
			return nil, 0, err
		}

		where = append(where, hasTag)
	}

	if params.VisibleTags != nil {
		hasVisibleTag, err := hasAnyTag(params.VisibleTags)
		if err != nil {
			return nil, 0, err
		}

		where = append(where, sq.Or{
			sq.Expr("NOT EXISTS (SELECT 1 FROM " + tableReportTags + " rt WHERE rt.report_id = reports.id)"),
			hasVisibleTag,
		})
	}

	countQ := sq.Select("COUNT(*)").
		From(tableReports).
		Where(where).
		RunWith(repo.db)

	var total int

	err := countQ.QueryRowContext(ctx).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	q := sq.Select(reportColumns()...).
		From(tableReports).
		Where(where).
		OrderBy(reportFieldCreatedAt+" DESC", reportFieldID+" DESC").
		Limit(uint64(params.Limit)).
		Offset(uint64(params.Offset)).
		RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query: %w", err)
	}

	defer closeRows(ctx, rows)

	list := make([]*reports.Report, 0, params.Limit)

	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan report: %w", err)
		}

		list = append(list, report)
	}

	err = rows.Err()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to iterate rows: %w", err)
	}

	err = loadReportTags(ctx, repo.db, list...)
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// hasAnyTag matches reports carrying at least one of tags.
func hasAnyTag(tags []string) (sq.Sqlizer, error) {
	query, args, err := sq.Select("1").
		From(tableReportTags + " rt").
		Where("rt.report_id = reports.id").
		Where(sq.Eq{"rt.tag": tags}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build tag filter: %w", err)
	}

	return sq.Expr("EXISTS ("+query+")", args...), nil
}

func (repo *ReportRepository) Update(
	ctx context.Context,
	report *reports.Report,
	previous reports.Status,
	note string,
) error {
	q := sq.Update(tableReports).
		Set(reportFieldStatus, report.Status).
		Set(reportFieldResolvedByAdminID, report.ResolvedByAdminID).
		Set(reportFieldResolvedAt, report.ResolvedAt).
		Set(reportFieldUpdatedAt, report.UpdatedAt).
		Where(sq.Eq{reportFieldID: report.ID, reportFieldStatus: previous})

	if note != "" {
		q = q.Set(reportFieldAdminNotes, appendNoteExpr(note))
	}

	affected, err := execAffected(ctx, q, repo.db)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	if affected == 0 {
		_, err = findReport(ctx, repo.db, report.ID)
		if err != nil {
			return err
		}

		return &reports.StatusChangedError{ID: report.ID}
	}

	return nil
}

func (repo *ReportRepository) AppendNote(ctx context.Context, reportID string, note string, at time.Time) error {
	q := sq.Update(tableReports).
		Set(reportFieldAdminNotes, appendNoteExpr(note)).
		Set(reportFieldUpdatedAt, at).
		Where(sq.Eq{reportFieldID: reportID})

	affected, err := execAffected(ctx, q, repo.db)
	if err != nil {
		return fmt.Errorf("failed to append note: %w", err)
	}

	if affected == 0 {
		return &reports.ReportNotFoundError{ID: reportID}
	}

	return nil
}

func findReport(ctx context.Context, runner sq.StdSqlCtx, reportID string) (*reports.Report, error) {
	q := sq.Select(reportColumns()...).
		From(tableReports).
		Where(sq.Eq{reportFieldID: reportID}).
		RunWith(runner)

	report, err := scanReport(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &reports.ReportNotFoundError{ID: reportID}
		}

		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	err = loadReportTags(ctx, runner, report)
	if err != nil {
		return nil, err
	}

	return report, nil
}

func loadReportTags(ctx context.Context, runner sq.StdSqlCtx, list ...*reports.Report) error {
	if len(list) == 0 {
		return nil
	}

	byID := make(map[string]*reports.Report, len(list))
	ids := make([]string, 0, len(list))

	for _, report := range list {
		byID[report.ID] = report
		ids = append(ids, report.ID)
	}

	q := sq.Select(reportTagFieldReportID, reportTagFieldTag).
		From(tableReportTags).
		Where(sq.Eq{reportTagFieldReportID: ids}).
		OrderBy(reportTagFieldReportID, reportTagFieldTag).
		RunWith(runner)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to query report tags: %w", err)
	}

	defer closeRows(ctx, rows)

	for rows.Next() {
		var reportID, tag string

		err := rows.Scan(&reportID, &tag)
		if err != nil {
			return fmt.Errorf("failed to scan report tag row: %w", err)
		}

		byID[reportID].Tags = append(byID[reportID].Tags, tag)
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("failed to iterate report tag rows: %w", err)
	}

	return nil
}

// updateReport writes the mutable fields of a report inside a moderation transaction.
func updateReport(ctx context.Context, tx sq.StdSqlCtx, report *reports.Report) error {
	q := sq.Update(tableReports).
		Set(reportFieldStatus, report.Status).
		Set(reportFieldAdminNotes, report.AdminNotes).
		Set(reportFieldResolvedByAdminID, report.ResolvedByAdminID).
		Set(reportFieldResolvedAt, report.ResolvedAt).
		Set(reportFieldUpdatedAt, report.UpdatedAt).
		Where(sq.Eq{reportFieldID: report.ID})

	affected, err := execAffected(ctx, q, tx)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	if affected == 0 {
		return &reports.ReportNotFoundError{ID: report.ID}
	}

	return nil
}

// reopenReport returns a report to open, clears its resolution and appends note.
func reopenReport(ctx context.Context, runner sq.StdSqlCtx, reportID string, note string, at time.Time) error {
	q := sq.Update(tableReports).
		Set(reportFieldStatus, reports.StatusOpen).
		Set(reportFieldResolvedByAdminID, nil).
		Set(reportFieldResolvedAt, nil).
		Set(reportFieldAdminNotes, appendNoteExpr(note)).
		Set(reportFieldUpdatedAt, at).
		Where(sq.Eq{reportFieldID: reportID})

	affected, err := execAffected(ctx, q, runner)
	if err != nil {
		return fmt.Errorf("failed to reopen report: %w", err)
	}

	if affected == 0 {
		return &reports.ReportNotFoundError{ID: reportID}
	}

	return nil
}
