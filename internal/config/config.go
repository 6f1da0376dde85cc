// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer sources.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"

	"github.com/gallerist/curio/internal/domain/registry"
)

// PersonaConfig describes one curation persona: its scoring dimensions,
// penalty table, verdict thresholds and ranking parameters.
type PersonaConfig struct {
	// Dimensions lists the weighted scoring dimensions. Weights must sum
	// to 100 after normalization.
	Dimensions []registry.DimensionSpec `koanf:"dimensions" json:"dimensions"`

	// Penalties maps flag names to score deltas (typically negative).
	Penalties map[string]float64 `koanf:"penalties" json:"penalties"`

	// IncludeMin and MaybeMin set the verdict band lower edges.
	IncludeMin float64 `koanf:"include_min" json:"include_min"`
	MaybeMin   float64 `koanf:"maybe_min" json:"maybe_min"`

	// CompareKeys selects the dimensions used for pairwise comparison in
	// the playoff. Empty means all registry dimensions.
	CompareKeys []string `koanf:"compare_keys" json:"compare_keys"`

	// TiebreakKey breaks playoff ties before falling back to composite.
	TiebreakKey string `koanf:"tiebreak_key" json:"tiebreak_key"`

	// PoolCap bounds the playoff pool size.
	PoolCap int `koanf:"pool_cap" json:"pool_cap"`

	// TopN is the default number of ranked candidates to return.
	TopN int `koanf:"top_n" json:"top_n"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of critique workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submission deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// HistorySize bounds the in-memory critique history store.
	HistorySize int `koanf:"history_size"`

	// Evaluator selects the evaluation backend: "synthetic" or "anthropic".
	Evaluator string `koanf:"evaluator"`

	// AnthropicAPIKey authorizes the vision evaluator. Falls back to the
	// ANTHROPIC_API_KEY environment variable when empty.
	AnthropicAPIKey string `koanf:"anthropic_api_key"`

	// AnthropicModel overrides the default vision model.
	AnthropicModel string `koanf:"anthropic_model"`

	// RedisAddr enables the Redis-backed history store when non-empty.
	RedisAddr string `koanf:"redis_addr"`

	// EvalConcurrency caps concurrent evaluations within a batch.
	EvalConcurrency int `koanf:"eval_concurrency"`

	// EvalCacheSize bounds the evaluation result cache.
	EvalCacheSize int `koanf:"eval_cache_size"`

	// SyntheticSeed seeds the synthetic evaluator for reproducible runs.
	SyntheticSeed int64 `koanf:"synthetic_seed"`

	// DefaultPersona names the persona used when a request omits one.
	DefaultPersona string `koanf:"default_persona"`

	// Personas maps persona names to their scoring configuration.
	Personas map[string]PersonaConfig `koanf:"personas"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		QueueSize:       10_000,
		WorkerCount:     runtime.NumCPU() * 4,
		DedupeSize:      100_000,
		HistorySize:     50_000,
		Evaluator:       "synthetic",
		AnthropicModel:  "",
		RedisAddr:       "",
		EvalConcurrency: 8,
		EvalCacheSize:   1024,
		SyntheticSeed:   42,
		DefaultPersona:  "curator",
		Personas: map[string]PersonaConfig{
			"curator": {
				Dimensions: []registry.DimensionSpec{
					{Key: "composition", Weight: 25, DisplayName: "Composition"},
					{Key: "technique", Weight: 20, DisplayName: "Technique"},
					{Key: "lighting", Weight: 15, DisplayName: "Lighting"},
					{Key: "subject", Weight: 15, DisplayName: "Subject Clarity"},
					{Key: "emotion", Weight: 15, DisplayName: "Emotional Impact"},
					{Key: "originality", Weight: 10, DisplayName: "Originality"},
				},
				Penalties: map[string]float64{
					"watermark":   -15,
					"artifacting": -10,
					"derivative":  -5,
				},
				IncludeMin:  75,
				MaybeMin:    55,
				CompareKeys: []string{"composition", "technique", "originality"},
				TiebreakKey: "composition",
				PoolCap:     40,
				TopN:        10,
			},
		},
	}
}
