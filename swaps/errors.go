package swaps

import "errors"

var (
	// ErrNotConfigured means the aggregator credential set is incomplete.
	ErrNotConfigured = errors.New("aggregator credentials not configured")

	// ErrUnauthorized means the aggregator rejected the credentials.
	ErrUnauthorized = errors.New("aggregator rejected credentials")

	// ErrMalformedResponse means the aggregator returned a payload that does
	// not match its documented envelope.
	ErrMalformedResponse = errors.New("malformed aggregator response")

	// ErrNetworkMismatch means no configured RPC endpoint serves the chain a
	// swap requires.
	ErrNetworkMismatch = errors.New("no endpoint for required chain")

	// ErrInFlight rejects a second concurrent swap for the same wallet and
	// token pair.
	ErrInFlight = errors.New("swap already in flight for this wallet and pair")

	// ErrExecuteUnsupported is returned by quote-only providers.
	ErrExecuteUnsupported = errors.New("provider does not execute swaps")
)
