package votes

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Recorder receives vote outcomes for instrumentation.
type Recorder interface {
	VoteCast(targetType string, outcome string)
}

type Service struct {
	voteRepo VoteRepository
	recorder Recorder
}

type nopRecorder struct{}

func (nopRecorder) VoteCast(string, string) {}

// NewService returns a vote service. A nil recorder discards vote outcomes.
func NewService(voteRepo VoteRepository, recorder Recorder) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &Service{
		voteRepo: voteRepo,
		recorder: recorder,
	}
}

type CastVoteRequest struct {
	TargetType TargetType
	TargetID   string
	UserID     string
	Direction  Direction
}

func (svc *Service) CastVote(ctx context.Context, req CastVoteRequest) (*Tally, error) {
	if !req.TargetType.IsValid() {
		return nil, &InvalidTargetTypeError{TargetType: req.TargetType}
	}

	if !req.Direction.IsValid() {
		return nil, &InvalidDirectionError{Direction: req.Direction}
	}

	tally, err := svc.voteRepo.Toggle(ctx, req.TargetType, req.TargetID, req.UserID, req.Direction, time.Now().UTC())
	if err != nil {
		svc.recorder.VoteCast(string(req.TargetType), "rejected")

		return nil, fmt.Errorf("failed to toggle vote: %w", err)
	}

	svc.recorder.VoteCast(string(req.TargetType), string(tally.UserVote.orNone()))

	return tally, nil
}

func (svc *Service) GetTally(
	ctx context.Context,
	targetType TargetType,
	targetID string,
	viewerID *string,
) (*Tally, error) {
	if !targetType.IsValid() {
		return nil, &InvalidTargetTypeError{TargetType: targetType}
	}

	tally, err := svc.voteRepo.GetTally(ctx, targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tally: %w", err)
	}

	tally.UserVote = DirectionNone

	if viewerID != nil && *viewerID != "" {
		switch {
		case slices.Contains(tally.UpvotedBy, *viewerID):
			tally.UserVote = DirectionUp
		case slices.Contains(tally.DownvotedBy, *viewerID):
			tally.UserVote = DirectionDown
		}
	}

	return tally, nil
}

func (direction Direction) orNone() Direction {
	if direction == DirectionNone {
		return "none"
	}

	return direction
}
