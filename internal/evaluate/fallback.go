package evaluate

import (
	"context"

	"github.com/gallerist/curio/internal/domain/registry"
	"github.com/gallerist/curio/internal/domain/scoring"
	"github.com/gallerist/curio/pkg/logger"
	"github.com/gallerist/curio/pkg/metrics"
)

// neutralScore is the per-dimension score substituted when evaluation
// fails: the midpoint of the scale, so a fallback item lands in the
// middle of the batch rather than at either extreme.
const neutralScore = 50.0

// FallbackEvaluator wraps a primary evaluator and degrades gracefully: an
// upstream failure yields a neutral score set flagged evaluation_failed
// instead of an error, so one failed call never blocks curating the rest
// of a batch. Context cancellation still propagates, since the whole
// request is gone.
type FallbackEvaluator struct {
	primary Evaluator
	log     logger.Logger
}

// NewFallbackEvaluator wraps primary.
func NewFallbackEvaluator(primary Evaluator, log logger.Logger) *FallbackEvaluator {
	if log == nil {
		log = logger.Get().Named("evaluate")
	}
	return &FallbackEvaluator{primary: primary, log: log}
}

// Evaluate delegates to the primary evaluator, substituting a flagged
// neutral score set on failure.
func (f *FallbackEvaluator) Evaluate(ctx context.Context, reg *registry.Registry, img Image) (scoring.RawScoreSet, error) {
	set, err := f.primary.Evaluate(ctx, reg, img)
	if err == nil {
		return set, nil
	}
	if ctx.Err() != nil {
		return scoring.RawScoreSet{}, err
	}

	f.log.Warn(ctx, "evaluation failed, substituting neutral scores",
		logger.String("imageID", img.ID),
		logger.Error(err),
	)
	metrics.RecordEvaluationFallback()

	return NeutralScoreSet(reg), nil
}

// NeutralScoreSet builds the all-50 score set used when upstream
// evaluation fails, flagged so callers can tell it apart from genuine
// scores.
func NeutralScoreSet(reg *registry.Registry) scoring.RawScoreSet {
	scores := make(map[string]float64, len(reg.Keys()))
	for _, key := range reg.Keys() {
		scores[key] = neutralScore
	}
	return scoring.RawScoreSet{
		Scores: scores,
		Flags:  []string{FlagEvaluationFailed},
	}
}
