package auth_test

import (
	"testing"

	"github.com/nasermirzaei89/bazaar/auth"
	"github.com/stretchr/testify/assert"
)

func TestPrincipal_CanSee(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		principal auth.Principal
		tags      []string
		expected  bool
	}{
		{
			name:      "matching tag",
			principal: auth.Principal{UserID: "a1", AdminTags: []string{"Honda"}},
			tags:      []string{"honda"},
			expected:  true,
		},
		{
			name:      "untagged item is visible to any admin",
			principal: auth.Principal{UserID: "a1", AdminTags: []string{"Honda"}},
			tags:      nil,
			expected:  true,
		},
		{
			name:      "other tag is hidden",
			principal: auth.Principal{UserID: "a1", AdminTags: []string{"Honda"}},
			tags:      []string{"BMW"},
			expected:  false,
		},
		{
			name:      "wildcard sees everything",
			principal: auth.Principal{UserID: "a1", AdminTags: []string{"all"}},
			tags:      []string{"BMW"},
			expected:  true,
		},
		{
			name:      "non admin sees nothing",
			principal: auth.Principal{UserID: "u1"},
			tags:      nil,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, tt.principal.CanSee(tt.tags))
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"honda", "bmw"}, auth.NormalizeTags([]string{" Honda", "", "BMW", "honda "}))
	assert.Empty(t, auth.NormalizeTags(nil))
}
