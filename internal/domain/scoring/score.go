package scoring

import (
	"fmt"
	"math"

	"github.com/gallerist/curio/internal/domain/registry"
)

// Scorer computes weighted composites and verdicts against one bound
// registry. It is pure and safe for concurrent use once built.
type Scorer struct {
	reg        *registry.Registry
	penalties  PenaltyTable
	thresholds Thresholds
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithPenaltyTable sets the flag-to-delta table. The table is copied to
// keep the scorer immutable.
func WithPenaltyTable(table PenaltyTable) Option {
	return func(s *Scorer) {
		s.penalties = make(PenaltyTable, len(table))
		for flag, delta := range table {
			s.penalties[flag] = delta
		}
	}
}

// WithThresholds sets the verdict band boundaries.
func WithThresholds(t Thresholds) Option {
	return func(s *Scorer) {
		s.thresholds = t
	}
}

// NewScorer builds a scorer bound to reg. The registry weights must sum
// to 100 before binding; callers normalize first.
func NewScorer(reg *registry.Registry, opts ...Option) (*Scorer, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: nil registry", ErrScorerConfig)
	}
	if !reg.Normalized() {
		return nil, fmt.Errorf("%w: registry %q weights sum to %v, want 100", ErrScorerConfig, reg.Name(), reg.WeightSum())
	}

	s := &Scorer{
		reg:        reg,
		penalties:  PenaltyTable{},
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if !s.thresholds.valid() {
		return nil, fmt.Errorf("%w: maybe_min %v above include_min %v", ErrScorerConfig, s.thresholds.MaybeMin, s.thresholds.IncludeMin)
	}
	return s, nil
}

// Registry returns the bound registry.
func (s *Scorer) Registry() *registry.Registry { return s.reg }

// Thresholds returns the verdict bands in use.
func (s *Scorer) Thresholds() Thresholds { return s.thresholds }

// ScoreItem computes the weighted composite and verdict for one item.
//
// A score missing for a registered dimension is treated as 0 and recorded
// in the item's Warnings. A flag absent from the penalty table contributes
// a delta of 0 and is likewise recorded. Both defaults are deliberate
// product decisions, not silent drops.
//
// It returns ErrValidation if any raw score falls outside [0,100]; the
// caller decides whether to skip the item or abort the batch.
func (s *Scorer) ScoreItem(id string, raw RawScoreSet) (ScoredItem, error) {
	for key, score := range raw.Scores {
		if math.IsNaN(score) || score < 0 || score > 100 {
			return ScoredItem{}, fmt.Errorf("%w: item %q dimension %q score %v outside [0,100]", ErrValidation, id, key, score)
		}
	}

	item := ScoredItem{
		ID:        id,
		ScoresRaw: raw.Scores,
		Flags:     raw.Flags,
		Gates:     raw.Gates,
	}
	if item.ScoresRaw == nil {
		item.ScoresRaw = map[string]float64{}
	}
	if item.Flags == nil {
		item.Flags = []string{}
	}

	var composite float64
	for _, dim := range s.reg.Dimensions() {
		score, ok := raw.Scores[dim.Key]
		if !ok {
			item.Warnings = append(item.Warnings, "missing score for dimension "+dim.Key)
		}
		composite += score * dim.Weight / 100
	}

	delta, warnings := s.penaltyDelta(raw.Flags)
	item.Warnings = append(item.Warnings, warnings...)
	composite = clamp(composite+delta, 0, 100)

	item.CompositeRaw = composite
	item.Verdict = s.thresholds.Classify(composite)
	if item.hardFailed() {
		item.Verdict = VerdictExclude
	}
	return item, nil
}

// penaltyDelta sums the deltas for flags, reporting unknown flags as
// warnings rather than failing.
func (s *Scorer) penaltyDelta(flags []string) (float64, []string) {
	var delta float64
	var warnings []string
	for _, flag := range flags {
		d, ok := s.penalties[flag]
		if !ok {
			warnings = append(warnings, "unknown flag "+flag)
			continue
		}
		delta += d
	}
	return delta, warnings
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
