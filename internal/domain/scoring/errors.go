package scoring

import "errors"

// Sentinel kinds for scoring errors. These allow errors.Is/As from callers.
var (
	// ErrValidation marks a raw score outside [0,100] or otherwise
	// malformed input. It is raised per item; the recommended caller
	// policy is to record the item as EXCLUDE with a validation_failed
	// flag rather than aborting the batch.
	ErrValidation = errors.New("invalid raw score")

	// ErrScorerConfig marks a scorer built with inconsistent options,
	// e.g. unordered verdict thresholds.
	ErrScorerConfig = errors.New("invalid scorer config")
)
