package sequence

import (
	"context"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

// Repository defines the atomic counter primitive behind document numbering.
//
// Next is the only mutating operation in the normal issuance flow and must be
// indivisible: create-with-zero-if-absent, increment by one, return the new
// value. Two concurrent callers for the same category must never observe the
// same result. When called inside a store transaction the increment commits
// or rolls back with it.
type Repository interface {
	// Next atomically increments the counter for the category and returns
	// the new value. The first call for a category returns 1.
	Next(ctx context.Context, category types.DocumentCategory) (int64, error)

	// Current returns the counter's value without mutating it. Returns 0 for
	// a category that has never issued a number.
	Current(ctx context.Context, category types.DocumentCategory) (int64, error)

	// Reset sets the counter back to zero. Administrative use only.
	Reset(ctx context.Context, category types.DocumentCategory) error
}
