package signing

import "errors"

var (
	// ErrNilRequest is returned by SignAttempt when the request is nil.
	ErrNilRequest = errors.New("signing: request must not be nil")

	// ErrNilResult is returned when a signer reports success but returns
	// no signed request.
	ErrNilResult = errors.New("signing: signer returned no result")
)
