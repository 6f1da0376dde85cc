package scoring

import "math"

// zSpread is the assumed usable z-score range. Scores rarely land beyond
// three standard deviations from the batch mean; anything further
// saturates at the scale edge. This is a deliberate bounded approximation,
// not a normal-CDF transform, and is preserved exactly for output
// compatibility with prior batches.
const zSpread = 3.0

// NormalizeBatch rewrites each item's composite using per-dimension
// z-scores computed over the whole batch, correcting for rater drift
// between batches. It mutates the items in place and returns the same
// slice; callers may rely on reference identity.
//
// Per dimension the batch's population mean and standard deviation
// (divide by N, matching the original implementation) are computed; a
// standard deviation of 0 is substituted with 1 so a degenerate dimension
// yields z = 0 for every item instead of NaN. Each z is mapped onto the
// 0-100 scale via clamp((z+3)/6, 0, 1)*100 and recombined with the
// registry weights. Flag deltas are applied to the z-composite as well,
// so a penalized item cannot regain a verdict through normalization.
//
// Verdicts are re-classified with CompositeZ authoritative; CompositeRaw
// is retained on every item for reference. A batch of one degenerates to
// a fixed offset (every z is 0), which is expected rather than an error.
//
// Items flagged validation_failed carry unusable raw scores: they are
// excluded from the per-dimension statistics and keep their EXCLUDE
// verdict, with CompositeZ left nil.
func (s *Scorer) NormalizeBatch(items []ScoredItem) []ScoredItem {
	if len(items) == 0 {
		return items
	}

	valid := make([]int, 0, len(items))
	for i := range items {
		if !items[i].hasFlag(FlagValidationFailed) {
			valid = append(valid, i)
		}
	}
	if len(valid) == 0 {
		return items
	}

	dims := s.reg.Dimensions()
	n := float64(len(valid))

	type stats struct{ mean, std float64 }
	byDim := make(map[string]stats, len(dims))
	for _, dim := range dims {
		var sum float64
		for _, i := range valid {
			sum += items[i].ScoresRaw[dim.Key]
		}
		mean := sum / n

		var variance float64
		for _, i := range valid {
			d := items[i].ScoresRaw[dim.Key] - mean
			variance += d * d
		}
		variance /= n

		std := math.Sqrt(variance)
		if std == 0 {
			std = 1
		}
		byDim[dim.Key] = stats{mean: mean, std: std}
	}

	for _, i := range valid {
		var composite float64
		for _, dim := range dims {
			st := byDim[dim.Key]
			z := (items[i].ScoresRaw[dim.Key] - st.mean) / st.std
			scaled := clamp((z+zSpread)/(2*zSpread), 0, 1) * 100
			composite += scaled * dim.Weight / 100
		}

		delta, _ := s.penaltyDelta(items[i].Flags)
		composite = clamp(composite+delta, 0, 100)

		z := composite
		items[i].CompositeZ = &z
		items[i].Verdict = s.thresholds.Classify(composite)
		if items[i].hardFailed() {
			items[i].Verdict = VerdictExclude
		}
	}
	return items
}
