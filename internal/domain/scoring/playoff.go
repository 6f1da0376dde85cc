package scoring

import "sort"

// defaultPoolCap bounds the playoff pool regardless of batch size. The
// pairwise pass is O(n²·k) over the pool, so the cap keeps ranking cheap
// even for large batches.
const defaultPoolCap = 40

// PlayoffOption applies a configuration option to RankTopCandidates.
type PlayoffOption func(*playoffConfig)

type playoffConfig struct {
	poolCap     int
	tiebreakKey string
}

// WithPoolCap overrides the candidate pool cap (default 40).
func WithPoolCap(size int) PlayoffOption {
	return func(c *playoffConfig) {
		if size > 0 {
			c.poolCap = size
		}
	}
}

// WithTiebreakKey designates the dimension whose raw score breaks playoff
// ties before falling back to the authoritative composite. Conventionally
// this is the lowest-weighted technical dimension of the persona.
func WithTiebreakKey(key string) PlayoffOption {
	return func(c *playoffConfig) {
		c.tiebreakKey = key
	}
}

// RankTopCandidates refines the ordering of the strongest candidates with
// a pairwise playoff. EXCLUDE items are dropped; the remaining items are
// pooled by authoritative composite (capped, default 40); every ordered
// pair in the pool is compared on compareKeys only, awarding a win to the
// strictly greater raw score per dimension and nothing on a tie. Each
// item's playoff score is its total wins minus total losses across all
// opponents.
//
// Restricting comparison to a small high-weight subset is intentional:
// comparing every dimension over-weights correlated dimensions. The final
// order is playoff score, then the tie-break dimension's raw score, then
// the authoritative composite, then ID for determinism.
//
// The result is a permutation of (a subset of) the input with pairwise
// fields populated; its length is at most min(topN, pool size). A topN
// of zero or less, or an empty pool, yields an empty result rather than
// an error.
func RankTopCandidates(items []ScoredItem, compareKeys []string, topN int, opts ...PlayoffOption) []ScoredItem {
	cfg := playoffConfig{poolCap: defaultPoolCap}
	for _, opt := range opts {
		opt(&cfg)
	}

	if topN <= 0 {
		return []ScoredItem{}
	}

	pool := make([]ScoredItem, 0, len(items))
	for _, it := range items {
		if it.Verdict != VerdictExclude {
			pool = append(pool, it)
		}
	}
	if len(pool) == 0 {
		return []ScoredItem{}
	}

	// Seed order: authoritative composite desc, ID asc for determinism.
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Composite() != pool[j].Composite() {
			return pool[i].Composite() > pool[j].Composite()
		}
		return pool[i].ID < pool[j].ID
	})
	if len(pool) > cfg.poolCap {
		pool = pool[:cfg.poolCap]
	}

	wins := make([]int, len(pool))
	losses := make([]int, len(pool))
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			for _, key := range compareKeys {
				si := pool[i].ScoresRaw[key]
				sj := pool[j].ScoresRaw[key]
				switch {
				case si > sj:
					wins[i]++
					losses[j]++
				case si < sj:
					wins[j]++
					losses[i]++
				}
			}
		}
	}

	for i := range pool {
		w, l := wins[i], losses[i]
		p := w - l
		pool[i].PairwiseWins = &w
		pool[i].PairwiseLosses = &l
		pool[i].PlayoffScore = &p
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if *pool[i].PlayoffScore != *pool[j].PlayoffScore {
			return *pool[i].PlayoffScore > *pool[j].PlayoffScore
		}
		if cfg.tiebreakKey != "" {
			ti := pool[i].ScoresRaw[cfg.tiebreakKey]
			tj := pool[j].ScoresRaw[cfg.tiebreakKey]
			if ti != tj {
				return ti > tj
			}
		}
		if pool[i].Composite() != pool[j].Composite() {
			return pool[i].Composite() > pool[j].Composite()
		}
		return pool[i].ID < pool[j].ID
	})

	if topN < len(pool) {
		pool = pool[:topN]
	}
	return pool
}
