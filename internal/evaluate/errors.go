package evaluate

import "errors"

// Sentinel kinds for evaluation errors.
var (
	// ErrEvaluation marks an upstream vision-model failure. The service
	// layer converts it into a flagged synthetic score set rather than
	// failing the batch.
	ErrEvaluation = errors.New("vision evaluation failed")

	// ErrMalformedResponse marks a model reply that could not be parsed
	// into a score set.
	ErrMalformedResponse = errors.New("malformed evaluation response")
)
