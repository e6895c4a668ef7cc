package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/bazaar/contents"
	"github.com/nasermirzaei89/bazaar/users"
)

const tableUsers = "users"

type UserRepository struct {
	db *sql.DB
}

var _ users.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const (
	userFieldID               = "id"
	userFieldUsername         = "username"
	userFieldDisplayName      = "display_name"
	userFieldBio              = "bio"
	userFieldIsDeletedByAdmin = "is_deleted_by_admin"
	userFieldIsMuted          = "is_muted"
	userFieldMuteExpiresAt    = "mute_expires_at"
	userFieldMutedByAdminID   = "muted_by_admin_id"
	userFieldMutedReason      = "muted_reason"
	userFieldCreatedAt        = "created_at"
	userFieldUpdatedAt        = "updated_at"
)

func userColumns() []string {
	return []string{
		userFieldID,
		userFieldUsername,
		userFieldDisplayName,
		userFieldBio,
		userFieldIsDeletedByAdmin,
		userFieldIsMuted,
		userFieldMuteExpiresAt,
		userFieldMutedByAdminID,
		userFieldMutedReason,
		userFieldCreatedAt,
		userFieldUpdatedAt,
	}
}

func scanUser(row sq.RowScanner) (*users.User, error) {
	var user users.User

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.Bio,
		&user.IsDeletedByAdmin,
		&user.Mute.IsMuted,
		&user.Mute.ExpiresAt,
		&user.Mute.MutedByAdminID,
		&user.Mute.Reason,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &user, nil
}

func (repo *UserRepository) Insert(ctx context.Context, user *users.User) error {
	q := sq.Insert(tableUsers).
		Columns(userColumns()...).
		Values(
			user.ID,
			user.Username,
			user.DisplayName,
			user.Bio,
			boolToInt(user.IsDeletedByAdmin),
			boolToInt(user.Mute.IsMuted),
			user.Mute.ExpiresAt,
			user.Mute.MutedByAdminID,
			user.Mute.Reason,
			user.CreatedAt,
			user.UpdatedAt,
		)

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return &users.UserAlreadyExistsError{Username: user.Username}
		}

		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *UserRepository) Find(ctx context.Context, userID string) (*users.User, error) {
	return findUser(ctx, repo.db, userID)
}

func (repo *UserRepository) UpdateMute(ctx context.Context, userID string, mute users.MuteState, updatedAt time.Time) error {
	return updateMute(ctx, repo.db, userID, mute, updatedAt)
}

func findUser(ctx context.Context, runner sq.StdSqlCtx, userID string) (*users.User, error) {
	q := sq.Select(userColumns()...).
		From(tableUsers).
		Where(sq.Eq{userFieldID: userID})

	q = q.RunWith(runner)

	user, err := scanUser(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &users.UserNotFoundError{ID: userID}
		}

		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return user, nil
}

func updateMute(ctx context.Context, runner sq.StdSqlCtx, userID string, mute users.MuteState, updatedAt time.Time) error {
	q := sq.Update(tableUsers).
		Set(userFieldIsMuted, boolToInt(mute.IsMuted)).
		Set(userFieldMuteExpiresAt, mute.ExpiresAt).
		Set(userFieldMutedByAdminID, mute.MutedByAdminID).
		Set(userFieldMutedReason, mute.Reason).
		Set(userFieldUpdatedAt, updatedAt).
		Where(sq.Eq{userFieldID: userID})

	affected, err := execAffected(ctx, q, runner)
	if err != nil {
		return fmt.Errorf("failed to update mute: %w", err)
	}

	if affected == 0 {
		return &users.UserNotFoundError{ID: userID}
	}

	return nil
}

// suspendUser flags the account as removed by an admin and blanks its public profile.
func suspendUser(ctx context.Context, runner sq.StdSqlCtx, userID string, at time.Time) error {
	q := sq.Update(tableUsers).
		Set(userFieldIsDeletedByAdmin, 1).
		Set(userFieldDisplayName, contents.RemovedTitle).
		Set(userFieldBio, "").
		Set(userFieldUpdatedAt, at).
		Where(sq.Eq{userFieldID: userID})

	affected, err := execAffected(ctx, q, runner)
	if err != nil {
		return fmt.Errorf("failed to suspend user: %w", err)
	}

	if affected == 0 {
		return &users.UserNotFoundError{ID: userID}
	}

	return nil
}
