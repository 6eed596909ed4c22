package elo

import (
	"errors"
	"fmt"
)

// ErrComputationInvariant flags a programming-error-level failure: a
// computed rating outside the configured bounds or a negative delta.
// Callers must refuse to persist when they see it.
var ErrComputationInvariant = errors.New("rating computation invariant violated")

func computationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrComputationInvariant, fmt.Sprintf(format, args...))
}
