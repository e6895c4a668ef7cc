package users

import (
	"context"
	"fmt"
	"time"

	"github.com/nasermirzaei89/bazaar/apperror"
)

type User struct {
	ID               string
	Username         string
	DisplayName      string
	Bio              string
	IsDeletedByAdmin bool
	Mute             MuteState
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// MuteState restricts a user from posting. A nil ExpiresAt means the mute is indefinite.
type MuteState struct {
	IsMuted        bool
	ExpiresAt      *time.Time
	MutedByAdminID string
	Reason         string
}

// ActiveAt reports whether the mute still applies at now. Expired mutes are never cleared
// in storage; they simply stop applying.
func (m MuteState) ActiveAt(now time.Time) bool {
	if !m.IsMuted {
		return false
	}

	return m.ExpiresAt == nil || now.Before(*m.ExpiresAt)
}

const (
	MinMuteDurationDays = 1
	MaxMuteDurationDays = 30
)

// NewMuteState builds the mute applied by adminID. A nil durationDays mutes indefinitely.
func NewMuteState(adminID, reason string, durationDays *int, now time.Time) (MuteState, error) {
	mute := MuteState{
		IsMuted:        true,
		MutedByAdminID: adminID,
		Reason:         reason,
	}

	if durationDays != nil {
		err := ValidateMuteDuration(*durationDays)
		if err != nil {
			return MuteState{}, err
		}

		expiresAt := now.AddDate(0, 0, *durationDays)
		mute.ExpiresAt = &expiresAt
	}

	return mute, nil
}

func ValidateMuteDuration(days int) error {
	if days < MinMuteDurationDays || days > MaxMuteDurationDays {
		return &apperror.ValidationError{
			Field:  "muteDurationDays",
			Reason: fmt.Sprintf("must be between %d and %d", MinMuteDurationDays, MaxMuteDurationDays),
		}
	}

	return nil
}

type UserRepository interface {
	Insert(ctx context.Context, user *User) (err error)
	Find(ctx context.Context, userID string) (user *User, err error)
	UpdateMute(ctx context.Context, userID string, mute MuteState, updatedAt time.Time) (err error)
}

type UserNotFoundError struct {
	ID string
}

func (err UserNotFoundError) Error() string {
	return fmt.Sprintf("user with id %q not found", err.ID)
}

func (err UserNotFoundError) Is(target error) bool { return target == apperror.ErrNotFound }

type UserAlreadyExistsError struct {
	Username string
}

func (err UserAlreadyExistsError) Error() string {
	return fmt.Sprintf("user with username %q already exists", err.Username)
}

func (err UserAlreadyExistsError) Is(target error) bool { return target == apperror.ErrConflict }

type UserMutedError struct {
	ID        string
	ExpiresAt *time.Time
}

func (err UserMutedError) Error() string {
	if err.ExpiresAt == nil {
		return fmt.Sprintf("user %q is muted indefinitely", err.ID)
	}

	return fmt.Sprintf("user %q is muted until %s", err.ID, err.ExpiresAt.Format(time.RFC3339))
}

func (err UserMutedError) Is(target error) bool { return target == apperror.ErrForbidden }

type SelfModerationError struct {
	AdminID string
}

func (err SelfModerationError) Error() string {
	return fmt.Sprintf("admin %q cannot moderate their own account", err.AdminID)
}

func (err SelfModerationError) Is(target error) bool { return target == apperror.ErrForbidden }
