package source

import "errors"

// Sentinel errors for record sources.
// Use errors.Is to match against wrapped errors.
var (
	// ErrReadFailed indicates a source file could not be read or parsed.
	ErrReadFailed = errors.New("source read failed")

	// ErrDecodeFailed indicates a streamed record payload was not valid JSON.
	ErrDecodeFailed = errors.New("record decode failed")
)
