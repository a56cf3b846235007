package valuation

import "errors"

var (
	// ErrMalformedInput means the series cannot be cleaned into any usable data.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInsufficientData means there are too few points for a computation. As a
	// warning on a Valuation it is recoverable: the affected fields are absent.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUnknownModel means the profile names a fair-value model that does not exist.
	ErrUnknownModel = errors.New("unknown fair-value model")
)
