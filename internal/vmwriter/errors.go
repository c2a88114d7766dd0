package vmwriter

import "errors"

// Sentinel errors classifying write failures.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(result.LastError, vmwriter.ErrRejected) {
//	    // The endpoint answered but refused the payload.
//	}
var (
	// ErrConnection indicates the endpoint was unreachable.
	ErrConnection = errors.New("vmwriter: connection failed")

	// ErrTimeout indicates no response arrived within the request timeout.
	ErrTimeout = errors.New("vmwriter: request timed out")

	// ErrRejected indicates the endpoint responded with a non-accepting
	// status. The wrapped message carries the status code and the start
	// of the response body.
	ErrRejected = errors.New("vmwriter: write rejected")

	// ErrUnexpected is the catch-all for faults that fit no other kind.
	ErrUnexpected = errors.New("vmwriter: unexpected failure")
)
