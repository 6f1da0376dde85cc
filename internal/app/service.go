// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	subqueue "github.com/gallerist/curio/internal/adapters/mq/queue"
	workerpool "github.com/gallerist/curio/internal/adapters/mq/worker"
	"github.com/gallerist/curio/internal/adapters/repository"
	"github.com/gallerist/curio/internal/config"
	"github.com/gallerist/curio/internal/domain/dedupe"
	"github.com/gallerist/curio/internal/domain/model"
	"github.com/gallerist/curio/internal/domain/registry"
	"github.com/gallerist/curio/internal/domain/scoring"
	"github.com/gallerist/curio/internal/domain/types"
	"github.com/gallerist/curio/internal/evaluate"
	"github.com/gallerist/curio/pkg/logger"
	"github.com/gallerist/curio/pkg/metrics"
)

// persona bundles a configured registry and scorer with its ranking
// parameters.
type persona struct {
	cfg    config.PersonaConfig
	reg    *registry.Registry
	scorer *scoring.Scorer
}

// PersonaInfo describes a configured persona for API consumers.
type PersonaInfo = types.PersonaInfo

// BatchResult is the outcome of a synchronous batch evaluation.
type BatchResult = types.BatchResult

// Service implements the API dependencies for the curation system.
type Service struct {
	mu sync.RWMutex

	// Core components
	history   repository.Store
	deduper   dedupe.Deduper
	queue     subqueue.Queue
	evaluator evaluate.Evaluator
	pool      *workerpool.Pool
	personas  map[string]*persona

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	historySize     int
	evalConcurrency int
	evalCacheSize   int
	evaluatorMode   string
	anthropicKey    string
	anthropicModel  string
	syntheticSeed   int64
	redisAddr       string
	defaultPersona  string
	personaCfgs     map[string]config.PersonaConfig

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithHistorySize bounds the critique history store.
func WithHistorySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.historySize = size
		}
	}
}

// WithEvalConcurrency caps concurrent evaluations within a batch.
func WithEvalConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.evalConcurrency = n
		}
	}
}

// WithEvalCacheSize bounds the evaluation result cache.
func WithEvalCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.evalCacheSize = size
		}
	}
}

// WithEvaluatorMode selects the evaluation backend: "synthetic" or "anthropic".
func WithEvaluatorMode(mode string) Option {
	return func(s *Service) {
		if mode != "" {
			s.evaluatorMode = mode
		}
	}
}

// WithAnthropicCredentials sets the API key and optional model override for
// the vision evaluator.
func WithAnthropicCredentials(apiKey, model string) Option {
	return func(s *Service) {
		s.anthropicKey = apiKey
		s.anthropicModel = model
	}
}

// WithSyntheticSeed seeds the synthetic evaluator for reproducible runs.
func WithSyntheticSeed(seed int64) Option {
	return func(s *Service) {
		s.syntheticSeed = seed
	}
}

// WithRedisAddr enables the Redis-backed history store.
func WithRedisAddr(addr string) Option {
	return func(s *Service) {
		s.redisAddr = addr
	}
}

// WithPersonas sets the persona configurations and the default persona name.
func WithPersonas(personas map[string]config.PersonaConfig, defaultPersona string) Option {
	return func(s *Service) {
		if len(personas) > 0 {
			s.personaCfgs = personas
		}
		if defaultPersona != "" {
			s.defaultPersona = defaultPersona
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	defaults := config.New()
	s := &Service{
		workerCount:     runtime.NumCPU() * 2,
		queueSize:       defaults.QueueSize,
		dedupeSize:      defaults.DedupeSize,
		historySize:     defaults.HistorySize,
		evalConcurrency: defaults.EvalConcurrency,
		evalCacheSize:   defaults.EvalCacheSize,
		evaluatorMode:   defaults.Evaluator,
		syntheticSeed:   defaults.SyntheticSeed,
		defaultPersona:  defaults.DefaultPersona,
		personaCfgs:     defaults.Personas,
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting curation service...")

	personas, err := buildPersonas(s.personaCfgs)
	if err != nil {
		return err
	}
	if _, ok := personas[s.defaultPersona]; !ok {
		return fmt.Errorf("%w: default persona %q is not configured", ErrUnknownPersona, s.defaultPersona)
	}
	s.personas = personas

	if s.redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: s.redisAddr})
		s.history = repository.NewRedisStore(client,
			repository.WithRedisMaxSize(int64(s.historySize)),
		)
		s.logger.Info(ctx, "using redis history store", logger.String("addr", s.redisAddr))
	} else {
		s.history = repository.NewMemStore(
			repository.WithMaxSize(s.historySize),
		)
		s.logger.Info(ctx, "using in-memory history store")
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = subqueue.NewInMemoryQueue(
		subqueue.WithCapacity(s.queueSize),
	)
	s.evaluator = s.buildEvaluator()

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s, s.history)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "curation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("personas", len(s.personas)),
		logger.String("evaluator", s.evaluatorMode),
	)
	return nil
}

// buildEvaluator assembles the evaluation chain: base backend, neutral
// fallback, then the bounded result cache.
func (s *Service) buildEvaluator() evaluate.Evaluator {
	var base evaluate.Evaluator
	if s.evaluatorMode == "anthropic" {
		opts := []evaluate.VisionOption{
			evaluate.WithVisionLogger(s.logger.Named("vision")),
		}
		if s.anthropicModel != "" {
			opts = append(opts, evaluate.WithModel(s.anthropicModel))
		}
		base = evaluate.NewVisionEvaluator(s.anthropicKey, opts...)
	} else {
		base = evaluate.NewSyntheticEvaluator(
			evaluate.WithSeed(s.syntheticSeed),
		)
	}
	withFallback := evaluate.NewFallbackEvaluator(base, s.logger.Named("evaluate"))
	cache := evaluate.NewCache(evaluate.WithCacheSize(s.evalCacheSize))
	return evaluate.NewCachedEvaluator(withFallback, cache)
}

// buildPersonas validates the persona configurations into live registries
// and scorers.
func buildPersonas(cfgs map[string]config.PersonaConfig) (map[string]*persona, error) {
	out := make(map[string]*persona, len(cfgs))
	for name, cfg := range cfgs {
		reg, err := registry.New(name, cfg.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("persona %q: %w", name, err)
		}
		if len(cfg.CompareKeys) == 0 {
			cfg.CompareKeys = reg.Keys()
		}
		thresholds := scoring.DefaultThresholds()
		if cfg.IncludeMin != 0 || cfg.MaybeMin != 0 {
			thresholds = scoring.Thresholds{IncludeMin: cfg.IncludeMin, MaybeMin: cfg.MaybeMin}
		}
		scorer, err := scoring.NewScorer(reg,
			scoring.WithPenaltyTable(cfg.Penalties),
			scoring.WithThresholds(thresholds),
		)
		if err != nil {
			return nil, fmt.Errorf("persona %q: %w", name, err)
		}
		out[name] = &persona{cfg: cfg, reg: reg, scorer: scorer}
	}
	return out, nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping curation service...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if q, ok := s.queue.(*subqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(ctx, "curation service stopped")
}

// lookupPersona resolves a persona name, falling back to the default when
// empty.
func (s *Service) lookupPersona(name string) (*persona, error) {
	if name == "" {
		name = s.defaultPersona
	}
	p, ok := s.personas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPersona, name)
	}
	return p, nil
}

// DefaultPersona returns the name of the default persona.
func (s *Service) DefaultPersona() string {
	return s.defaultPersona
}

// Personas lists the configured personas sorted by name.
func (s *Service) Personas() []PersonaInfo {
	out := make([]PersonaInfo, 0, len(s.personas))
	for name, p := range s.personas {
		out = append(out, PersonaInfo{
			Name:        name,
			Dimensions:  p.reg.Dimensions(),
			Penalties:   p.cfg.Penalties,
			Thresholds:  p.scorer.Thresholds(),
			CompareKeys: p.cfg.CompareKeys,
			TiebreakKey: p.cfg.TiebreakKey,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SeenAndRecord atomically checks if a submission id was seen and records it
// if not. Returns true if the submission was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordCritiqueDuplicate()
	}
	return seen
}

// Unrecord removes a submission ID from the seen set, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue submits a critique for asynchronous processing.
// Returns false when the queue rejected the submission.
func (s *Service) Enqueue(ctx context.Context, sub model.Submission) bool {
	if _, err := s.lookupPersona(sub.Persona); err != nil {
		s.logger.Warn(ctx, "rejecting submission for unknown persona",
			logger.String("submissionID", sub.SubmissionID),
			logger.String("persona", sub.Persona),
		)
		return false
	}
	return s.queue.Enqueue(ctx, sub)
}

// Critique evaluates and scores a single submission. It implements the
// worker Critic interface.
func (s *Service) Critique(ctx context.Context, sub model.Submission) (scoring.ScoredItem, error) {
	p, err := s.lookupPersona(sub.Persona)
	if err != nil {
		return scoring.ScoredItem{}, err
	}
	return s.critiqueOne(ctx, p, evaluate.Image{
		ID:        sub.ImageID,
		Bytes:     sub.ImageData,
		MediaType: sub.MediaType,
	})
}

// critiqueOne runs the evaluate-then-score pipeline for one image.
// Validation failures never propagate: the item is recorded as EXCLUDE
// with a validation_failed flag.
func (s *Service) critiqueOne(ctx context.Context, p *persona, img evaluate.Image) (scoring.ScoredItem, error) {
	evalStart := time.Now()
	raw, err := s.evaluator.Evaluate(ctx, p.reg, img)
	metrics.RecordEvaluationLatency(float64(time.Since(evalStart).Milliseconds()))
	if err != nil {
		return scoring.ScoredItem{}, err
	}

	scoreStart := time.Now()
	item, err := p.scorer.ScoreItem(img.ID, raw)
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Milliseconds()))
	if err != nil {
		metrics.RecordScoringError()
		s.logger.Warn(ctx, "raw scores failed validation",
			logger.String("imageID", img.ID),
			logger.Error(err),
		)
		return excludedItem(img.ID, raw, err), nil
	}
	return item, nil
}

// excludedItem builds the EXCLUDE record for an item whose raw scores
// failed validation.
func excludedItem(id string, raw scoring.RawScoreSet, cause error) scoring.ScoredItem {
	return scoring.ScoredItem{
		ID:        id,
		ScoresRaw: raw.Scores,
		Flags:     append(append([]string(nil), raw.Flags...), scoring.FlagValidationFailed),
		Gates:     raw.Gates,
		Verdict:   scoring.VerdictExclude,
		Warnings:  []string{cause.Error()},
	}
}

// EvaluateBatch evaluates a batch of images with bounded concurrency,
// normalizes the scores across the batch, and ranks the top candidates.
func (s *Service) EvaluateBatch(ctx context.Context, personaName string, images []evaluate.Image, topN int) (BatchResult, error) {
	p, err := s.lookupPersona(personaName)
	if err != nil {
		return BatchResult{}, err
	}
	if len(images) == 0 {
		return BatchResult{}, ErrEmptyBatch
	}

	start := time.Now()
	metrics.RecordBatchSize(len(images))

	items := make([]scoring.ScoredItem, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.evalConcurrency)
	for i, img := range images {
		g.Go(func() error {
			item, err := s.critiqueOne(gctx, p, img)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	items = p.scorer.NormalizeBatch(items)

	if topN <= 0 {
		topN = p.cfg.TopN
	}
	ranked := scoring.RankTopCandidates(items, p.cfg.CompareKeys, topN,
		scoring.WithPoolCap(p.cfg.PoolCap),
		scoring.WithTiebreakKey(p.cfg.TiebreakKey),
	)

	for i := range items {
		metrics.RecordVerdict(p.reg.Name(), string(items[i].Verdict))
	}
	metrics.RecordBatchLatency(float64(time.Since(start).Milliseconds()))

	return BatchResult{Persona: p.reg.Name(), Items: items, Ranked: ranked}, nil
}

// GetCritique returns the stored critique record for a submission ID.
func (s *Service) GetCritique(ctx context.Context, id string) (repository.Record, error) {
	return s.history.Get(ctx, id)
}

// ListCritiques returns stored critiques, most recent first.
func (s *Service) ListCritiques(ctx context.Context, personaName string, limit int) ([]repository.Record, error) {
	return s.history.List(ctx, personaName, limit)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"dedupeSize":     s.dedupeSize,
		"evaluator":      s.evaluatorMode,
		"defaultPersona": s.defaultPersona,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["historyCount"] = s.history.Count(ctx)
		stats["personas"] = len(s.personas)

		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
