package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrMissingSession   = errors.New("missing session parameter")
	ErrMissingToken     = errors.New("missing pair token")
	ErrMissingSelection = errors.New("missing selected card")
	ErrBadLimit         = errors.New("invalid limit parameter")
	ErrBadOrder         = errors.New("invalid order parameter")
	ErrBadBody          = errors.New("invalid request body")
)
