package evaluate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/gallerist/curio/internal/domain/registry"
	"github.com/gallerist/curio/internal/domain/scoring"
	"github.com/gallerist/curio/pkg/logger"
	"github.com/gallerist/curio/pkg/metrics"
)

// Default vision evaluator configuration constants.
const (
	defaultModel        = "claude-sonnet-4-5"
	defaultMaxTokens    = 1024
	defaultTemperature  = 0.1
	defaultRatePerSec   = 2.0
	defaultRateBurst    = 4
	defaultMediaType    = "image/jpeg"
	breakerMaxFailures  = 5
	breakerOpenDuration = 30 * time.Second
)

// VisionOption applies a configuration option to the VisionEvaluator.
type VisionOption func(*VisionEvaluator)

// WithModel sets the vision model identifier.
func WithModel(model string) VisionOption {
	return func(e *VisionEvaluator) {
		if model != "" {
			e.model = model
		}
	}
}

// WithMaxTokens sets the response token budget.
func WithMaxTokens(n int64) VisionOption {
	return func(e *VisionEvaluator) {
		if n > 0 {
			e.maxTokens = n
		}
	}
}

// WithRateLimit bounds outbound calls to the vision API.
func WithRateLimit(perSecond float64, burst int) VisionOption {
	return func(e *VisionEvaluator) {
		if perSecond > 0 && burst > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithVisionLogger sets a custom logger.
func WithVisionLogger(log logger.Logger) VisionOption {
	return func(e *VisionEvaluator) {
		if log != nil {
			e.log = log
		}
	}
}

// VisionEvaluator implements Evaluator against the Anthropic Messages
// API, sending the image as a base64 block alongside a critique prompt
// built from the registry's dimensions, and parsing the model's JSON
// reply into a RawScoreSet.
//
// Calls are rate limited and pass through a circuit breaker; when the
// breaker is open, Evaluate fails fast and the caller's fallback path
// takes over.
type VisionEvaluator struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	log         logger.Logger
}

// NewVisionEvaluator creates a vision evaluator authenticating with
// apiKey.
func NewVisionEvaluator(apiKey string, opts ...VisionOption) *VisionEvaluator {
	e := &VisionEvaluator{
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:       defaultModel,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		limiter:     rate.NewLimiter(rate.Limit(defaultRatePerSec), defaultRateBurst),
		log:         logger.Get().Named("vision"),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "vision-api",
		Timeout: breakerOpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.log.Warn(context.Background(), "vision breaker state change",
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return e
}

// Evaluate sends img to the vision model and parses the reply.
func (e *VisionEvaluator) Evaluate(ctx context.Context, reg *registry.Registry, img Image) (scoring.RawScoreSet, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return scoring.RawScoreSet{}, fmt.Errorf("%w: rate limiter: %w", ErrEvaluation, err)
	}

	mediaType := img.MediaType
	if mediaType == "" {
		mediaType = defaultMediaType
	}
	encoded := base64.StdEncoding.EncodeToString(img.Bytes)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: e.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: critiqueSystemPrompt}},
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewImageBlockBase64(mediaType, encoded),
				anthropic.NewTextBlock(buildCritiquePrompt(reg)),
			},
		}},
	}
	params.Temperature = anthropic.Float(e.temperature)

	result, err := e.breaker.Execute(func() (interface{}, error) {
		return e.client.Messages.New(ctx, params)
	})
	if err != nil {
		metrics.RecordEvaluationError()
		return scoring.RawScoreSet{}, fmt.Errorf("%w: %w", ErrEvaluation, err)
	}

	msg, ok := result.(*anthropic.Message)
	if !ok || msg == nil {
		return scoring.RawScoreSet{}, fmt.Errorf("%w: unexpected response type", ErrMalformedResponse)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		text.WriteString(block.Text)
	}

	set, err := parseScoreSet(text.String(), reg)
	if err != nil {
		metrics.RecordEvaluationError()
		return scoring.RawScoreSet{}, err
	}
	return set, nil
}

// critiqueSystemPrompt instructs the model to act as a curator and emit
// strict JSON only.
const critiqueSystemPrompt = `You are an exacting curator scoring images for a gallery selection.
Respond with a single JSON object and nothing else.`

// buildCritiquePrompt renders the scoring instructions for reg's
// dimensions.
func buildCritiquePrompt(reg *registry.Registry) string {
	var b strings.Builder
	b.WriteString("Score this image on each dimension below from 0 to 100.\n\n")
	for _, dim := range reg.Dimensions() {
		b.WriteString("- ")
		b.WriteString(dim.Key)
		if dim.DisplayName != "" {
			b.WriteString(" (")
			b.WriteString(dim.DisplayName)
			b.WriteString(")")
		}
		if dim.Description != "" {
			b.WriteString(": ")
			b.WriteString(dim.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString(`
Also report defect flags (e.g. "artifacting", "derivative") and gate checks
("model_release", "provenance") as "pass", "warn", or "missing".

Reply with exactly this JSON shape:
{"scores": {<dimension key>: <0-100>, ...}, "flags": [<string>, ...], "gates": {<gate name>: "pass"|"warn"|"missing"}}`)
	return b.String()
}

// visionReply mirrors the JSON shape the model is instructed to return.
type visionReply struct {
	Scores map[string]float64 `json:"scores"`
	Flags  []string           `json:"flags"`
	Gates  map[string]string  `json:"gates"`
}

// parseScoreSet extracts the JSON object from the model's reply text.
// Models occasionally wrap JSON in prose or code fences, so parsing spans
// the first '{' through the last '}'.
func parseScoreSet(text string, reg *registry.Registry) (scoring.RawScoreSet, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return scoring.RawScoreSet{}, fmt.Errorf("%w: no JSON object in reply", ErrMalformedResponse)
	}

	var reply visionReply
	if err := json.Unmarshal([]byte(text[start:end+1]), &reply); err != nil {
		return scoring.RawScoreSet{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if len(reply.Scores) == 0 {
		return scoring.RawScoreSet{}, fmt.Errorf("%w: reply has no scores", ErrMalformedResponse)
	}

	set := scoring.RawScoreSet{
		Scores: make(map[string]float64, len(reply.Scores)),
		Flags:  reply.Flags,
	}
	// Keep only registered dimensions; the scorer treats anything the
	// model skipped as 0 with a recorded warning.
	for key, v := range reply.Scores {
		if reg.Has(key) {
			set.Scores[key] = clamp(v, 0, 100)
		}
	}
	if len(reply.Gates) > 0 {
		set.Gates = make(map[string]scoring.GateState, len(reply.Gates))
		for name, state := range reply.Gates {
			set.Gates[name] = scoring.GateState(state)
		}
	}
	return set, nil
}
