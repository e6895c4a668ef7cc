package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/bazaar/votes"
	"github.com/samber/lo"
)

const tableVotes = "votes"

type VoteRepository struct {
	db *sql.DB
}

var _ votes.VoteRepository = (*VoteRepository)(nil)

func NewVoteRepository(db *sql.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

const (
	voteFieldTargetType = "target_type"
	voteFieldTargetID   = "target_id"
	voteFieldUserID     = "user_id"
	voteFieldDirection  = "direction"
	voteFieldCreatedAt  = "created_at"
)

// Columns shared by every votable table.
const (
	votableFieldID               = "id"
	votableFieldVotes            = "votes"
	votableFieldIsDeletedByUser  = "is_deleted_by_user"
	votableFieldIsDeletedByAdmin = "is_deleted_by_admin"
)

func votableTable(targetType votes.TargetType) (string, error) {
	switch targetType {
	case votes.TargetTypeComment:
		return tableComments, nil
	case votes.TargetTypeImage:
		return tableImages, nil
	case votes.TargetTypePost:
		return tablePosts, nil
	default:
		return "", &votes.InvalidTargetTypeError{TargetType: targetType}
	}
}

// Toggle starts with the delete of the voter's row so the transaction holds the write lock
// before anything is read. The previous direction, the new row and the score delta are
// therefore decided under one lock.
func (repo *VoteRepository) Toggle(
	ctx context.Context,
	targetType votes.TargetType,
	targetID string,
	userID string,
	direction votes.Direction,
	at time.Time,
) (*votes.Tally, error) {
	table, err := votableTable(targetType)
	if err != nil {
		return nil, err
	}

	var tally *votes.Tally

	err = inTx(ctx, repo.db, func(tx *sql.Tx) error {
		previous, err := deleteVote(ctx, tx, targetType, targetID, userID)
		if err != nil {
			return err
		}

		err = checkVotable(ctx, tx, table, targetType, targetID)
		if err != nil {
			return err
		}

		next, delta := votes.Transition(previous, direction)

		if next != votes.DirectionNone {
			q := sq.Insert(tableVotes).
				Columns(voteFieldTargetType, voteFieldTargetID, voteFieldUserID, voteFieldDirection, voteFieldCreatedAt).
				Values(targetType, targetID, userID, next, at).
				RunWith(tx)

			_, err = q.ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("failed to insert vote: %w", err)
			}
		}

		if delta != 0 {
			q := sq.Update(table).
				Set(votableFieldVotes, sq.Expr(votableFieldVotes+" + ?", delta)).
				Where(sq.Eq{votableFieldID: targetID})

			_, err = execAffected(ctx, q, tx)
			if err != nil {
				return fmt.Errorf("failed to update votes: %w", err)
			}
		}

		tally, err = getTally(ctx, tx, table, targetType, targetID)
		if err != nil {
			return err
		}

		tally.UserVote = next

		return nil
	})
	if err != nil {
		return nil, err
	}

	return tally, nil
}

func (repo *VoteRepository) GetTally(ctx context.Context, targetType votes.TargetType, targetID string) (*votes.Tally, error) {
	table, err := votableTable(targetType)
	if err != nil {
		return nil, err
	}

	return getTally(ctx, repo.db, table, targetType, targetID)
}

// deleteVote removes the voter's row and returns the direction it held.
func deleteVote(
	ctx context.Context,
	tx sq.StdSqlCtx,
	targetType votes.TargetType,
	targetID string,
	userID string,
) (votes.Direction, error) {
	q := sq.Delete(tableVotes).
		Where(sq.Eq{
			voteFieldTargetType: targetType,
			voteFieldTargetID:   targetID,
			voteFieldUserID:     userID,
		}).
		Suffix("RETURNING " + voteFieldDirection)

	row, err := queryRow(ctx, q, tx)
	if err != nil {
		return votes.DirectionNone, err
	}

	var previous votes.Direction

	err = row.Scan(&previous)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return votes.DirectionNone, nil
		}

		return votes.DirectionNone, fmt.Errorf("failed to delete vote: %w", err)
	}

	return previous, nil
}

func checkVotable(ctx context.Context, tx sq.StdSqlCtx, table string, targetType votes.TargetType, targetID string) error {
	q := sq.Select(votableFieldIsDeletedByUser, votableFieldIsDeletedByAdmin).
		From(table).
		Where(sq.Eq{votableFieldID: targetID}).
		RunWith(tx)

	var deletedByUser, deletedByAdmin bool

	err := q.QueryRowContext(ctx).Scan(&deletedByUser, &deletedByAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &votes.TargetNotFoundError{TargetType: targetType, TargetID: targetID}
		}

		return fmt.Errorf("failed to find vote target: %w", err)
	}

	if deletedByUser || deletedByAdmin {
		return &votes.TargetDeletedError{TargetType: targetType, TargetID: targetID}
	}

	return nil
}

func getTally(
	ctx context.Context,
	runner sq.StdSqlCtx,
	table string,
	targetType votes.TargetType,
	targetID string,
) (*votes.Tally, error) {
	scoreQ := sq.Select(votableFieldVotes).
		From(table).
		Where(sq.Eq{votableFieldID: targetID}).
		RunWith(runner)

	tally := &votes.Tally{
		TargetType: targetType,
		TargetID:   targetID,
	}

	err := scoreQ.QueryRowContext(ctx).Scan(&tally.Votes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &votes.TargetNotFoundError{TargetType: targetType, TargetID: targetID}
		}

		return nil, fmt.Errorf("failed to scan votes: %w", err)
	}

	q := sq.Select(voteFieldUserID, voteFieldDirection).
		From(tableVotes).
		Where(sq.Eq{
			voteFieldTargetType: targetType,
			voteFieldTargetID:   targetID,
		}).
		OrderBy(voteFieldCreatedAt, voteFieldUserID).
		RunWith(runner)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query voters: %w", err)
	}

	defer closeRows(ctx, rows)

	var voters []voter

	for rows.Next() {
		var v voter

		err := rows.Scan(&v.userID, &v.direction)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voter row: %w", err)
		}

		voters = append(voters, v)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate voter rows: %w", err)
	}

	tally.UpvotedBy = votersWith(voters, votes.DirectionUp)
	tally.DownvotedBy = votersWith(voters, votes.DirectionDown)

	return tally, nil
}

type voter struct {
	userID    string
	direction votes.Direction
}

// votersWith returns the ids of voters that voted in direction, keeping their order.
func votersWith(voters []voter, direction votes.Direction) []string {
	return lo.FilterMap(voters, func(v voter, _ int) (string, bool) {
		return v.userID, v.direction == direction
	})
}
