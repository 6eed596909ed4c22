package pairing

import "errors"

// Sentinel kinds for pair selection errors.
var (
	// ErrNotEnoughCards means fewer than two enabled cards exist; the
	// request fails and the caller must retry once the catalog grows.
	ErrNotEnoughCards = errors.New("not enough enabled cards to pair")
)
