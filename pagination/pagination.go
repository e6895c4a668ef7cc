// Package pagination validates page/limit pairs shared by every listing endpoint.
package pagination

import (
	"fmt"

	"github.com/nasermirzaei89/bazaar/apperror"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is a validated, one-based page request.
type Page struct {
	Number int
	Limit  int
}

// New applies defaults to zero values and validates the rest.
func New(number, limit int) (Page, error) {
	if number == 0 {
		number = 1
	}

	if limit == 0 {
		limit = DefaultLimit
	}

	if number < 1 {
		return Page{}, &apperror.ValidationError{Field: "page", Reason: "must be positive"}
	}

	if limit < 1 || limit > MaxLimit {
		return Page{}, &apperror.ValidationError{
			Field:  "limit",
			Reason: fmt.Sprintf("must be between 1 and %d", MaxLimit),
		}
	}

	return Page{Number: number, Limit: limit}, nil
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// HasNext reports whether rows remain after this page out of total.
func (p Page) HasNext(total int) bool {
	return p.Number*p.Limit < total
}
