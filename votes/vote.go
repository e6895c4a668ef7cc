package votes

import (
	"context"
	"fmt"
	"time"

	"github.com/nasermirzaei89/bazaar/apperror"
)

type TargetType string

const (
	TargetTypeComment TargetType = "comment"
	TargetTypeImage   TargetType = "image"
	TargetTypePost    TargetType = "post"
)

func (targetType TargetType) IsValid() bool {
	switch targetType {
	case TargetTypeComment, TargetTypeImage, TargetTypePost:
		return true
	default:
		return false
	}
}

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"

	// DirectionNone marks the absence of a vote.
	DirectionNone Direction = ""
)

func (direction Direction) IsValid() bool {
	return direction == DirectionUp || direction == DirectionDown
}

// Weight is the contribution of a single vote in this direction to the score.
func (direction Direction) Weight() int {
	switch direction {
	case DirectionUp:
		return 1
	case DirectionDown:
		return -1
	default:
		return 0
	}
}

// Transition computes the toggle outcome of a vote in direction requested by a user whose
// current vote is previous. It returns the user's resulting vote and the score delta.
//
// Voting the same direction twice cancels, voting the opposite direction switches.
func Transition(previous, requested Direction) (next Direction, delta int) {
	if previous == requested {
		return DirectionNone, -previous.Weight()
	}

	return requested, requested.Weight() - previous.Weight()
}

// Tally is the vote state of a votable target.
type Tally struct {
	TargetType  TargetType
	TargetID    string
	Votes       int
	UpvotedBy   []string
	DownvotedBy []string
	UserVote    Direction
}

type UserVote struct {
	TargetType TargetType
	TargetID   string
	UserID     string
	Direction  Direction
	CreatedAt  time.Time
}

type VoteRepository interface {
	// Toggle applies Transition for userID atomically and returns the resulting tally.
	Toggle(
		ctx context.Context,
		targetType TargetType,
		targetID string,
		userID string,
		direction Direction,
		at time.Time,
	) (tally *Tally, err error)
	GetTally(ctx context.Context, targetType TargetType, targetID string) (tally *Tally, err error)
}

type InvalidTargetTypeError struct {
	TargetType TargetType
}

func (err InvalidTargetTypeError) Error() string {
	return fmt.Sprintf("invalid vote target type: %q", err.TargetType)
}

func (err InvalidTargetTypeError) Is(target error) bool { return target == apperror.ErrValidation }

type InvalidDirectionError struct {
	Direction Direction
}

func (err InvalidDirectionError) Error() string {
	return fmt.Sprintf("invalid vote direction: %q", err.Direction)
}

func (err InvalidDirectionError) Is(target error) bool { return target == apperror.ErrValidation }

type TargetNotFoundError struct {
	TargetType TargetType
	TargetID   string
}

func (err TargetNotFoundError) Error() string {
	return fmt.Sprintf("%s with id %q not found", err.TargetType, err.TargetID)
}

func (err TargetNotFoundError) Is(target error) bool { return target == apperror.ErrNotFound }

type TargetDeletedError struct {
	TargetType TargetType
	TargetID   string
}

func (err TargetDeletedError) Error() string {
	return fmt.Sprintf("%s with id %q is deleted and cannot be voted on", err.TargetType, err.TargetID)
}

func (err TargetDeletedError) Is(target error) bool { return target == apperror.ErrConflict }
