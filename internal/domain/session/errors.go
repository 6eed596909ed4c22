package session

import (
	"errors"
	"fmt"
)

// Sentinel kinds for pair token errors.
var (
	// ErrInvalidToken covers expired, consumed, mismatched and unknown
	// tokens. The vote is rejected and no rating is mutated.
	ErrInvalidToken = errors.New("invalid pair token")

	// ErrNoPairIssued means the session has no outstanding pair; the
	// caller must request a fresh pair first.
	ErrNoPairIssued = fmt.Errorf("%w: no pair issued", ErrInvalidToken)

	errExpired       = fmt.Errorf("%w: pair token expired", ErrInvalidToken)
	errWrongPair     = fmt.Errorf("%w: selected card not in issued pair", ErrInvalidToken)
	errTokenMismatch = fmt.Errorf("%w: token does not match issued pair", ErrInvalidToken)
)
