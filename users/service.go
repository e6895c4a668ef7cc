package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/bazaar/apperror"
)

type Service struct {
	userRepo UserRepository
	now      func() time.Time
}

func NewService(userRepo UserRepository) *Service {
	return &Service{
		userRepo: userRepo,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for mute expiry checks.
func (svc *Service) WithClock(now func() time.Time) *Service {
	svc.now = now

	return svc
}

type CreateUserRequest struct {
	Username    string
	DisplayName string
	Bio         string
}

const maxUsernameLength = 64

func (svc *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || len(username) > maxUsernameLength {
		return nil, &apperror.ValidationError{Field: "username", Reason: "must be 1 to 64 characters"}
	}

	timeNow := svc.now().UTC()

	user := &User{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Bio:         strings.TrimSpace(req.Bio),
		CreatedAt:   timeNow,
		UpdatedAt:   timeNow,
	}

	err := svc.userRepo.Insert(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

func (svc *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	user, err := svc.userRepo.Find(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// CheckCanPost is the lazy mute check run wherever posting is authorized.
func (svc *Service) CheckCanPost(ctx context.Context, userID string) error {
	user, err := svc.userRepo.Find(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	if user.Mute.ActiveAt(svc.now()) {
		return &UserMutedError{ID: user.ID, ExpiresAt: user.Mute.ExpiresAt}
	}

	return nil
}

type MuteRequest struct {
	AdminID      string
	UserID       string
	Reason       string
	DurationDays *int
}

func (svc *Service) Mute(ctx context.Context, req MuteRequest) (*User, error) {
	if req.AdminID == req.UserID {
		return nil, &SelfModerationError{AdminID: req.AdminID}
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, &apperror.ValidationError{Field: "reason", Reason: "is required"}
	}

	timeNow := svc.now().UTC()

	mute, err := NewMuteState(req.AdminID, reason, req.DurationDays, timeNow)
	if err != nil {
		return nil, err
	}

	err = svc.userRepo.UpdateMute(ctx, req.UserID, mute, timeNow)
	if err != nil {
		return nil, fmt.Errorf("failed to update mute: %w", err)
	}

	slog.InfoContext(ctx, "user muted", "userId", req.UserID, "adminId", req.AdminID, "expiresAt", mute.ExpiresAt)

	return svc.GetUser(ctx, req.UserID)
}

func (svc *Service) Unmute(ctx context.Context, adminID, userID string) (*User, error) {
	if adminID == userID {
		return nil, &SelfModerationError{AdminID: adminID}
	}

	err := svc.userRepo.UpdateMute(ctx, userID, MuteState{}, svc.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to clear mute: %w", err)
	}

	slog.InfoContext(ctx, "user unmuted", "userId", userID, "adminId", adminID)

	return svc.GetUser(ctx, userID)
}
