package tabular

import "errors"

// Sentinel errors for tabular batch processing.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, tabular.ErrSchema) {
//	    // Abort the run; the batch cannot be converted.
//	}
var (
	// ErrSchema indicates the batch is structurally unusable: a required
	// column is missing or a cell cannot be coerced to its required type.
	ErrSchema = errors.New("tabular: schema error")

	// ErrEmptyBatch indicates the batch contains no rows.
	ErrEmptyBatch = errors.New("tabular: empty batch")
)
