package reports_test

import (
	"testing"

	"github.com/nasermirzaei89/bazaar/reports"
	"github.com/stretchr/testify/assert"
)

func TestStatusCanTransitionTo(t *testing.T) {
	t.Parallel()

	all := []reports.Status{
		reports.StatusOpen,
		reports.StatusUnderReview,
		reports.StatusResolvedActionTaken,
		reports.StatusResolvedNoAction,
		reports.StatusDismissed,
	}

	allowed := map[reports.Status][]reports.Status{
		reports.StatusOpen: {
			reports.StatusUnderReview,
			reports.StatusResolvedActionTaken,
			reports.StatusResolvedNoAction,
			reports.StatusDismissed,
		},
		reports.StatusUnderReview: {
			reports.StatusResolvedActionTaken,
			reports.StatusResolvedNoAction,
			reports.StatusDismissed,
		},
	}

	for _, from := range all {
		for _, to := range all {
			expected := false

			for _, s := range allowed[from] {
				if s == to {
					expected = true
				}
			}

			assert.Equal(t, expected, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestJoinNotes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a", reports.JoinNotes("", "a"))
	assert.Equal(t, "a", reports.JoinNotes("a", ""))
	assert.Equal(t, "a\nb", reports.JoinNotes("a", "b"))
}

func TestValidateReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "too short", input: "short", valid: false},
		{name: "min length", input: "0123456789", valid: true},
		{name: "trimmed below min", input: "   012345678   ", valid: false},
		{name: "multibyte runes", input: "ブレーキが壊れているよ", valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := reports.ValidateReason(tt.input)
			assert.Equal(t, tt.valid, err == nil)
		})
	}
}
