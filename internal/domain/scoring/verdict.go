package scoring

// Verdict is the actionable output of scoring an item.
type Verdict string

// Verdicts, ordered worst to best.
const (
	VerdictExclude Verdict = "EXCLUDE"
	VerdictMaybe   Verdict = "MAYBE"
	VerdictInclude Verdict = "INCLUDE"
)

// Default verdict thresholds on the 0-100 composite scale.
const (
	defaultIncludeMin = 75.0
	defaultMaybeMin   = 55.0
)

// Thresholds holds the verdict band boundaries. Bands are ordered and
// non-overlapping; both boundaries are inclusive at the lower edge, so a
// composite of exactly IncludeMin classifies as INCLUDE.
type Thresholds struct {
	// IncludeMin is the minimum composite for an INCLUDE verdict.
	IncludeMin float64 `koanf:"include_min"`

	// MaybeMin is the minimum composite for a MAYBE verdict. Anything
	// below it is an EXCLUDE.
	MaybeMin float64 `koanf:"maybe_min"`
}

// DefaultThresholds returns the thresholds observed across the curator
// personas: include at 75, maybe at 55.
func DefaultThresholds() Thresholds {
	return Thresholds{IncludeMin: defaultIncludeMin, MaybeMin: defaultMaybeMin}
}

// Classify maps a composite to a verdict. Every composite maps to exactly
// one verdict.
func (t Thresholds) Classify(composite float64) Verdict {
	switch {
	case composite >= t.IncludeMin:
		return VerdictInclude
	case composite >= t.MaybeMin:
		return VerdictMaybe
	default:
		return VerdictExclude
	}
}

// valid reports whether the bands are ordered.
func (t Thresholds) valid() bool {
	return t.MaybeMin <= t.IncludeMin
}
