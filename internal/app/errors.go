package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrUnknownCard means a vote or admin call referenced an id that no
	// longer resolves to an enabled card.
	ErrUnknownCard = errors.New("unknown or disabled card")

	// ErrUnknownDimension rejects ranking queries on anything but the
	// supported group dimensions.
	ErrUnknownDimension = errors.New("unknown ranking dimension")
)
