package ranking

import (
	"errors"
	"fmt"
)

// ErrComputationInvariant flags a non-finite aggregate; it should never
// occur and must not be persisted or served.
var ErrComputationInvariant = errors.New("ranking computation invariant violated")

func invariantErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrComputationInvariant, fmt.Sprintf(format, args...))
}
