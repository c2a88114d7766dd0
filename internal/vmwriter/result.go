package vmwriter

// AttemptResult records the terminal outcome of one batch.
//
// Results are produced once per batch and never mutated afterwards.
type AttemptResult struct {
	// BatchIndex is the zero-based position of the batch within the run.
	BatchIndex int

	// Succeeded reports whether the batch was accepted by the endpoint.
	Succeeded bool

	// Attempts is the number of write attempts made, including the
	// successful one if any.
	Attempts int

	// LastError is the most recent classified failure, wrapping one of
	// the package sentinel errors. It is non-nil whenever at least one
	// attempt failed, even if a later attempt succeeded.
	LastError error

	// PointsWritten is the number of points accepted: the batch length
	// on success, zero otherwise.
	PointsWritten int
}
