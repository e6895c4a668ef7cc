package auth

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nasermirzaei89/bazaar/apperror"
	"github.com/samber/lo"
)

// AllTags is the admin tag granting visibility over every report.
const AllTags = "all"

// Principal is the trusted identity handed to the core by the identity service.
type Principal struct {
	UserID    string
	AdminTags []string
}

func (p Principal) IsAuthenticated() bool {
	return p.UserID != ""
}

func (p Principal) IsAdmin() bool {
	return p.IsAuthenticated() && len(NormalizeTags(p.AdminTags)) > 0
}

// SeesAllTags reports whether the principal holds the wildcard tag.
func (p Principal) SeesAllTags() bool {
	return slices.Contains(NormalizeTags(p.AdminTags), AllTags)
}

// AuthorizedFor reports whether the principal may act on items carrying tag.
func (p Principal) AuthorizedFor(tag string) bool {
	if p.SeesAllTags() {
		return true
	}

	return slices.Contains(NormalizeTags(p.AdminTags), normalizeTag(tag))
}

// CanSee reports whether an item with the given routing tags is visible to the principal.
// Untagged items are visible to every admin.
func (p Principal) CanSee(tags []string) bool {
	if !p.IsAdmin() {
		return false
	}

	tags = NormalizeTags(tags)
	if len(tags) == 0 || p.SeesAllTags() {
		return true
	}

	return len(lo.Intersect(NormalizeTags(p.AdminTags), tags)) > 0
}

// NormalizeTags trims, lower-cases and de-duplicates tags, dropping empty ones.
func NormalizeTags(tags []string) []string {
	normalized := lo.FilterMap(tags, func(tag string, _ int) (string, bool) {
		tag = normalizeTag(tag)

		return tag, tag != ""
	})

	return lo.Uniq(normalized)
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

type UnauthenticatedError struct{}

func (err UnauthenticatedError) Error() string {
	return "authentication required"
}

func (err UnauthenticatedError) Is(target error) bool { return target == apperror.ErrForbidden }

type AdminRequiredError struct {
	UserID string
}

func (err AdminRequiredError) Error() string {
	return fmt.Sprintf("user %q is not an admin", err.UserID)
}

func (err AdminRequiredError) Is(target error) bool { return target == apperror.ErrForbidden }
