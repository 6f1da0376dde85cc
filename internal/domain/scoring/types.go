// Package scoring turns raw per-dimension scores into weighted composites,
// verdicts, batch-normalized composites, and tournament rankings.
//
// All scores live on a 0-100 scale throughout; callers convert at
// serialization boundaries only.
package scoring

// GateState is a tri-state check independent of the weighted dimensions.
// A "missing" gate is a hard fail: it forces an EXCLUDE verdict no matter
// what the composite says.
type GateState string

// Gate states.
const (
	GatePass    GateState = "pass"
	GateWarn    GateState = "warn"
	GateMissing GateState = "missing"
)

// FlagValidationFailed marks an item whose raw scores failed validation.
// Such items are recorded as EXCLUDE rather than aborting their batch.
const FlagValidationFailed = "validation_failed"

// HardFail reports whether this gate state forces an EXCLUDE verdict.
func (g GateState) HardFail() bool { return g == GateMissing }

// RawScoreSet is one item's unprocessed evaluation input, produced once
// per item (by the vision evaluator or the synthetic generator) and
// immutable afterwards.
type RawScoreSet struct {
	// Scores maps dimension key to a raw score in [0,100]. A key missing
	// for a registered dimension is scored as 0 and recorded as a warning
	// on the resulting item; it is never silently dropped.
	Scores map[string]float64 `json:"scores"`

	// Flags are penalty/bonus codes resolved against a PenaltyTable.
	Flags []string `json:"flags,omitempty"`

	// Gates are tri-state checks (ethics/process fields) that can veto an
	// item regardless of its composite.
	Gates map[string]GateState `json:"gates,omitempty"`
}

// HasFlag reports whether flag is present on the set.
func (r RawScoreSet) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// PenaltyTable maps flag codes to fixed composite deltas. Deltas are
// typically negative; a positive delta is a documented bonus. Flags not
// present in the table contribute 0 and are reported as warnings.
type PenaltyTable map[string]float64

// ScoredItem is the output of the scorer, later enriched in place by the
// batch normalizer (CompositeZ, rewritten Verdict) and the tournament
// ranker (PairwiseWins/PairwiseLosses/PlayoffScore). Field names mirror
// the JSON contract served to callers.
type ScoredItem struct {
	ID string `json:"id"`

	// ScoresRaw and Flags retain the input for traceability.
	ScoresRaw map[string]float64   `json:"scores_raw"`
	Flags     []string             `json:"flags"`
	Gates     map[string]GateState `json:"gates,omitempty"`

	CompositeRaw float64  `json:"composite_raw"`
	CompositeZ   *float64 `json:"composite_z"`

	Verdict Verdict `json:"verdict"`

	// Warnings records non-fatal oddities encountered while scoring:
	// missing dimension scores, unknown flags.
	Warnings []string `json:"warnings,omitempty"`

	PairwiseWins   *int `json:"pairwise_wins"`
	PairwiseLosses *int `json:"pairwise_losses"`
	PlayoffScore   *int `json:"playoff_score"`
}

// Composite returns the authoritative composite: the z-score composite
// once batch normalization has run, otherwise the raw composite.
func (it ScoredItem) Composite() float64 {
	if it.CompositeZ != nil {
		return *it.CompositeZ
	}
	return it.CompositeRaw
}

// hasFlag reports whether flag is present on the item.
func (it ScoredItem) hasFlag(flag string) bool {
	for _, f := range it.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// hardFailed reports whether any gate on the item is a hard fail.
func (it ScoredItem) hardFailed() bool {
	for _, g := range it.Gates {
		if g.HardFail() {
			return true
		}
	}
	return false
}
