package users_test

import (
	"testing"
	"time"

	"github.com/nasermirzaei89/bazaar/apperror"
	"github.com/nasermirzaei89/bazaar/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMuteState_ActiveAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expiresAt := now.Add(time.Hour)

	tests := []struct {
		name     string
		mute     users.MuteState
		at       time.Time
		expected bool
	}{
		{name: "not muted", mute: users.MuteState{}, at: now, expected: false},
		{name: "indefinite", mute: users.MuteState{IsMuted: true}, at: now.AddDate(5, 0, 0), expected: true},
		{name: "before expiry", mute: users.MuteState{IsMuted: true, ExpiresAt: &expiresAt}, at: now, expected: true},
		{name: "at expiry", mute: users.MuteState{IsMuted: true, ExpiresAt: &expiresAt}, at: expiresAt, expected: false},
		{name: "after expiry", mute: users.MuteState{IsMuted: true, ExpiresAt: &expiresAt}, at: now.Add(2 * time.Hour), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.mute.ActiveAt(tt.at))
		})
	}
}

func TestNewMuteState(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("indefinite", func(t *testing.T) {
		t.Parallel()

		mute, err := users.NewMuteState("admin", "spam", nil, now)
		require.NoError(t, err)
		assert.True(t, mute.IsMuted)
		assert.Nil(t, mute.ExpiresAt)
		assert.Equal(t, "admin", mute.MutedByAdminID)
	})

	t.Run("bounded", func(t *testing.T) {
		t.Parallel()

		days := 7
		mute, err := users.NewMuteState("admin", "spam", &days, now)
		require.NoError(t, err)
		require.NotNil(t, mute.ExpiresAt)
		assert.Equal(t, now.AddDate(0, 0, 7), *mute.ExpiresAt)
	})

	t.Run("out of range", func(t *testing.T) {
		t.Parallel()

		for _, days := range []int{0, 31, -1} {
			_, err := users.NewMuteState("admin", "spam", &days, now)
			require.ErrorIs(t, err, apperror.ErrValidation)
		}
	})
}
