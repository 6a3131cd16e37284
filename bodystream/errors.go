package bodystream

import "errors"

// Configuration errors.
var (
	// ErrChunkSize is returned by Split when the configured chunk size is
	// not positive.
	ErrChunkSize = errors.New("bodystream: chunk size must be positive")

	// ErrMemoryBudget is returned by Split when the configured memory
	// budget is not positive.
	ErrMemoryBudget = errors.New("bodystream: memory budget must be positive")

	// ErrNilSource is returned by Split when the source is nil.
	ErrNilSource = errors.New("bodystream: source must not be nil")
)

// Stream protocol errors.
var (
	// ErrAlreadySubscribed is reported when a second subscriber attaches
	// to a single-subscriber stream.
	ErrAlreadySubscribed = errors.New("bodystream: stream accepts a single subscriber")

	// ErrStreamClosed is reported when data is offered to a stream that
	// has already completed or failed.
	ErrStreamClosed = errors.New("bodystream: stream already terminated")

	// ErrCancelled is reported to pending deliveries when a subscription
	// is cancelled before they reach the subscriber.
	ErrCancelled = errors.New("bodystream: subscription cancelled")

	// ErrInvalidDemand is reported when Subscription.Request is called
	// with a non-positive amount.
	ErrInvalidDemand = errors.New("bodystream: demand must be positive")
)
