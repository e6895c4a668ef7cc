package sqlite3

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/bazaar/votes"
)

const (
	DriftKindVotes      = "votes"
	DriftKindReplyCount = "reply_count"
)

// Drift is a denormalized counter that disagrees with the rows it is derived from.
type Drift struct {
	Kind     string
	Table    string
	ID       string
	Actual   int
	Expected int
}

// Reconciler recomputes vote scores and reply counts from their source rows.
type Reconciler struct {
	db *sql.DB
}

func NewReconciler(db *sql.DB) *Reconciler {
	return &Reconciler{db: db}
}

var votableTables = []struct {
	targetType votes.TargetType
	table      string
}{
	{targetType: votes.TargetTypeComment, table: tableComments},
	{targetType: votes.TargetTypeImage, table: tableImages},
	{targetType: votes.TargetTypePost, table: tablePosts},
}

func expectedVotesExpr(targetType votes.TargetType, table string) sq.Sqlizer {
	return sq.Expr(
		"(SELECT COALESCE(SUM(CASE v.direction WHEN 'up' THEN 1 WHEN 'down' THEN -1 ELSE 0 END), 0) "+
			"FROM "+tableVotes+" v WHERE v.target_type = ? AND v.target_id = "+table+".id)",
		targetType,
	)
}

func expectedReplyCountExpr() sq.Sqlizer {
	return sq.Expr(
		"(SELECT COUNT(*) FROM " + tableComments + " r " +
			"WHERE r.parent_id = comments.id AND r.is_deleted_by_user = 0 AND r.is_deleted_by_admin = 0)",
	)
}

// Check lists every drifted counter without changing anything.
func (rec *Reconciler) Check(ctx context.Context) ([]Drift, error) {
	drifts := make([]Drift, 0)

	for _, votable := range votableTables {
		found, err := rec.check(ctx, DriftKindVotes, votable.table, votableFieldVotes,
			expectedVotesExpr(votable.targetType, votable.table))
		if err != nil {
			return nil, err
		}

		drifts = append(drifts, found...)
	}

	found, err := rec.check(ctx, DriftKindReplyCount, tableComments, commentFieldReplyCount, expectedReplyCountExpr())
	if err != nil {
		return nil, err
	}

	return append(drifts, found...), nil
}

func (rec *Reconciler) check(ctx context.Context, kind, table, column string, expected sq.Sqlizer) ([]Drift, error) {
	inner := sq.Select("id", column+" AS actual").
		Column(sq.Alias(expected, "expected")).
		From(table)

	q := sq.Select("id", "actual", "expected").
		FromSelect(inner, "counters").
		Where("actual != expected").
		OrderBy("id").
		RunWith(rec.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s drift in %s: %w", kind, table, err)
	}

	defer closeRows(ctx, rows)

	drifts := make([]Drift, 0)

	for rows.Next() {
		drift := Drift{Kind: kind, Table: table}

		err := rows.Scan(&drift.ID, &drift.Actual, &drift.Expected)
		if err != nil {
			return nil, fmt.Errorf("failed to scan drift row: %w", err)
		}

		drifts = append(drifts, drift)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate drift rows: %w", err)
	}

	return drifts, nil
}

// Fix rewrites every drifted counter from its source rows and returns how many it changed.
func (rec *Reconciler) Fix(ctx context.Context) (int64, error) {
	var fixed int64

	err := inTx(ctx, rec.db, func(tx *sql.Tx) error {
		for _, votable := range votableTables {
			expected := expectedVotesExpr(votable.targetType, votable.table)

			n, err := fixColumn(ctx, tx, votable.table, votableFieldVotes, expected)
			if err != nil {
				return err
			}

			fixed += n
		}

		n, err := fixColumn(ctx, tx, tableComments, commentFieldReplyCount, expectedReplyCountExpr())
		if err != nil {
			return err
		}

		fixed += n

		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "counters reconciled", "fixed", fixed)

	return fixed, nil
}

func fixColumn(ctx context.Context, tx sq.StdSqlCtx, table, column string, expected sq.Sqlizer) (int64, error) {
	query, args, err := expected.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build expected %s: %w", column, err)
	}

	q := sq.Update(table).
		Set(column, expected).
		Where(sq.Expr(column+" != "+query, args...))

	n, err := execAffected(ctx, q, tx)
	if err != nil {
		return 0, fmt.Errorf("failed to fix %s in %s: %w", column, table, err)
	}

	return n, nil
}
