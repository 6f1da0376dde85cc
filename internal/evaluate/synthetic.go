package evaluate

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gallerist/curio/internal/domain/registry"
	"github.com/gallerist/curio/internal/domain/scoring"
)

// Default synthetic evaluator configuration constants.
const (
	defaultSyntheticSeed = 42
	defaultScoreMean     = 65.0
	defaultScoreSpread   = 18.0
	defaultFlagChance    = 0.15
	defaultMinLatency    = 5 * time.Millisecond
	defaultMaxLatency    = 25 * time.Millisecond
)

// SyntheticOption applies a configuration option to the SyntheticEvaluator.
type SyntheticOption func(*SyntheticEvaluator)

// WithSeed sets the random seed for deterministic score generation.
func WithSeed(seed int64) SyntheticOption {
	return func(e *SyntheticEvaluator) {
		e.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic seed for reproducible demo scores
	}
}

// WithScoreDistribution sets the mean and spread of generated scores.
func WithScoreDistribution(mean, spread float64) SyntheticOption {
	return func(e *SyntheticEvaluator) {
		if mean >= 0 && mean <= 100 && spread >= 0 {
			e.mean = mean
			e.spread = spread
		}
	}
}

// WithFlagPool sets the penalty flags the generator may attach, and the
// per-item chance of attaching one.
func WithFlagPool(flags []string, chance float64) SyntheticOption {
	return func(e *SyntheticEvaluator) {
		e.flagPool = append([]string(nil), flags...)
		if chance >= 0 && chance <= 1 {
			e.flagChance = chance
		}
	}
}

// WithSimulatedLatency sets the simulated evaluation latency range.
func WithSimulatedLatency(minLatency, maxLatency time.Duration) SyntheticOption {
	return func(e *SyntheticEvaluator) {
		if minLatency > 0 && maxLatency > minLatency {
			e.minLatency = minLatency
			e.maxLatency = maxLatency
		}
	}
}

// SyntheticEvaluator implements Evaluator with seeded pseudo-random
// scores, standing in for the vision model when no API key is configured
// ("demo mode"). It is deterministic under a fixed seed and safe for
// concurrent use.
type SyntheticEvaluator struct {
	mu         sync.Mutex
	rng        *rand.Rand
	mean       float64
	spread     float64
	flagPool   []string
	flagChance float64
	minLatency time.Duration
	maxLatency time.Duration
}

// NewSyntheticEvaluator creates a synthetic evaluator with configuration
// options.
func NewSyntheticEvaluator(opts ...SyntheticOption) *SyntheticEvaluator {
	e := &SyntheticEvaluator{
		rng:        rand.New(rand.NewSource(defaultSyntheticSeed)), //nolint:gosec // deterministic seed for reproducible demo scores
		mean:       defaultScoreMean,
		spread:     defaultScoreSpread,
		flagPool:   []string{"artifacting", "derivative"},
		flagChance: defaultFlagChance,
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate generates a score for every dimension of reg. Gates always
// pass; the synthetic path never simulates an ethics hard fail.
func (e *SyntheticEvaluator) Evaluate(ctx context.Context, reg *registry.Registry, img Image) (scoring.RawScoreSet, error) {
	e.mu.Lock()
	latency := e.minLatency + time.Duration(e.rng.Int63n(int64(e.maxLatency-e.minLatency)))
	scores := make(map[string]float64, len(reg.Keys()))
	for _, key := range reg.Keys() {
		v := e.mean + e.rng.NormFloat64()*e.spread
		scores[key] = clamp(v, 0, 100)
	}
	var flags []string
	if len(e.flagPool) > 0 && e.rng.Float64() < e.flagChance {
		flags = []string{e.flagPool[e.rng.Intn(len(e.flagPool))]}
	}
	e.mu.Unlock()

	select {
	case <-ctx.Done():
		return scoring.RawScoreSet{}, fmt.Errorf("synthetic evaluation cancelled: %w", ctx.Err())
	case <-time.After(latency):
	}

	return scoring.RawScoreSet{Scores: scores, Flags: flags}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
