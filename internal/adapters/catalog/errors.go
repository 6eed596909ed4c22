package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrUpstream = errors.New("catalog upstream error")
)
