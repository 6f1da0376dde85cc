// Package evaluate defines the contract for obtaining raw per-dimension
// scores for an image, and the interchangeable strategies behind it: a
// real vision-model evaluator and a synthetic generator for demo mode.
// The strategy is selected by configuration and injected, never switched
// on inline.
package evaluate

import (
	"context"

	"github.com/gallerist/curio/internal/domain/registry"
	"github.com/gallerist/curio/internal/domain/scoring"
)

// FlagEvaluationFailed marks a score set produced by the fallback path
// after the upstream evaluation failed. Callers surface it so a UI can
// distinguish genuine from fallback scores.
const FlagEvaluationFailed = "evaluation_failed"

// Image is the evaluation subject.
type Image struct {
	// ID is the caller-supplied identifier for the item.
	ID string

	// Bytes is the encoded image payload.
	Bytes []byte

	// MediaType is the MIME type, e.g. "image/jpeg". Defaults to
	// image/jpeg when empty.
	MediaType string
}

// Evaluator produces a raw score set for an image against the dimensions
// of one registry. Implementations may be slow or unreliable; they honor
// ctx for cancellation. The scoring pipeline never retries or caches an
// evaluator call itself.
type Evaluator interface {
	Evaluate(ctx context.Context, reg *registry.Registry, img Image) (scoring.RawScoreSet, error)
}
