package scoring_test

import (
	"math"
	"testing"

	"github.com/gallerist/curio/internal/domain/registry"
	"github.com/gallerist/curio/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func twoDimScorer(opts ...scoring.Option) *scoring.Scorer {
	reg, err := registry.New("curator", []registry.DimensionSpec{
		{Key: "composition", Weight: 60},
		{Key: "technique", Weight: 40},
	})
	So(err, ShouldBeNil)
	s, err := scoring.NewScorer(reg, opts...)
	So(err, ShouldBeNil)
	return s
}

func TestTwoDimensionComposites(t *testing.T) {
	Convey("Given a 60/40 two-dimension scorer", t, func() {
		s := twoDimScorer(scoring.WithPenaltyTable(scoring.PenaltyTable{
			"artifacting": -10,
		}))

		Convey("When one dimension is maxed and the other zero", func() {
			item, err := s.ScoreItem("img-1", scoring.RawScoreSet{
				Scores: map[string]float64{"composition": 100, "technique": 0},
			})
			So(err, ShouldBeNil)
			So(item.CompositeRaw, ShouldAlmostEqual, 60.0)
			So(item.Verdict, ShouldEqual, scoring.VerdictMaybe)
		})

		Convey("When both dimensions are maxed", func() {
			item, err := s.ScoreItem("img-2", scoring.RawScoreSet{
				Scores: map[string]float64{"composition": 100, "technique": 100},
			})
			So(err, ShouldBeNil)
			So(item.CompositeRaw, ShouldAlmostEqual, 100.0)
			So(item.Verdict, ShouldEqual, scoring.VerdictInclude)
		})

		Convey("When a penalty lands the composite exactly on the include edge", func() {
			// 85 weighted, -10 artifacting => 75, which is still INCLUDE
			// because the band edge is inclusive.
			item, err := s.ScoreItem("img-3", scoring.RawScoreSet{
				Scores: map[string]float64{"composition": 85, "technique": 85},
				Flags:  []string{"artifacting"},
			})
			So(err, ShouldBeNil)
			So(item.CompositeRaw, ShouldAlmostEqual, 75.0)
			So(item.Verdict, ShouldEqual, scoring.VerdictInclude)

			Convey("And one point below the edge drops to MAYBE", func() {
				item, err := s.ScoreItem("img-4", scoring.RawScoreSet{
					Scores: map[string]float64{"composition": 84, "technique": 84},
					Flags:  []string{"artifacting"},
				})
				So(err, ShouldBeNil)
				So(item.CompositeRaw, ShouldAlmostEqual, 74.0)
				So(item.Verdict, ShouldEqual, scoring.VerdictMaybe)
			})
		})
	})
}

func TestCompositeMonotonicity(t *testing.T) {
	Convey("Given a 60/40 two-dimension scorer", t, func() {
		s := twoDimScorer(scoring.WithPenaltyTable(scoring.PenaltyTable{
			"watermark": -15,
		}))

		Convey("Raising any single raw score never lowers the composite", func() {
			for _, base := range []float64{0, 25, 50, 75} {
				prev := math.Inf(-1)
				for _, v := range []float64{base, base + 10, base + 20} {
					item, err := s.ScoreItem("img", scoring.RawScoreSet{
						Scores: map[string]float64{"composition": v, "technique": base},
					})
					So(err, ShouldBeNil)
					So(item.CompositeRaw, ShouldBeGreaterThanOrEqualTo, prev)
					prev = item.CompositeRaw
				}
			}
		})

		Convey("Adding a penalty flag never raises the composite", func() {
			for _, v := range []float64{0, 10, 40, 70, 100} {
				scores := map[string]float64{"composition": v, "technique": v}

				clean, err := s.ScoreItem("clean", scoring.RawScoreSet{Scores: scores})
				So(err, ShouldBeNil)
				flagged, err := s.ScoreItem("flagged", scoring.RawScoreSet{
					Scores: scores,
					Flags:  []string{"watermark"},
				})
				So(err, ShouldBeNil)

				So(flagged.CompositeRaw, ShouldBeLessThanOrEqualTo, clean.CompositeRaw)
			}
		})
	})
}

func TestNormalizationProperties(t *testing.T) {
	Convey("Given three items spaced 40/50/60 on one dimension", t, func() {
		s := singleDimScorer()
		items := scoreAll(s, map[string]float64{
			"low": 40, "mid": 50, "high": 60,
		})

		Convey("When the batch is normalized", func() {
			out := s.NormalizeBatch(items)

			Convey("Then the z-composites match the fixed mapping exactly", func() {
				// mean 50, population std sqrt(200/3) = 8.165, z = +/-1.2247,
				// (z+3)/6 = 0.2959 / 0.5 / 0.7041 on the unit scale.
				byID := map[string]scoring.ScoredItem{}
				for _, it := range out {
					byID[it.ID] = it
				}
				So(*byID["low"].CompositeZ, ShouldAlmostEqual, 29.5876, 0.001)
				So(*byID["mid"].CompositeZ, ShouldAlmostEqual, 50.0, 0.001)
				So(*byID["high"].CompositeZ, ShouldAlmostEqual, 70.4124, 0.001)
			})
		})
	})

	Convey("Given the same spread shifted by a constant", t, func() {
		s := singleDimScorer()

		base := s.NormalizeBatch(scoreAll(s, map[string]float64{
			"low": 40, "mid": 50, "high": 60,
		}))
		shifted := s.NormalizeBatch(scoreAll(s, map[string]float64{
			"low": 55, "mid": 65, "high": 75,
		}))

		Convey("Then the z-composites are translation invariant", func() {
			baseByID := map[string]scoring.ScoredItem{}
			for _, it := range base {
				baseByID[it.ID] = it
			}
			for _, it := range shifted {
				So(*it.CompositeZ, ShouldAlmostEqual, *baseByID[it.ID].CompositeZ, 0.001)
				So(math.IsNaN(*it.CompositeZ), ShouldBeFalse)
			}
		})
	})
}

func TestPairwiseSplitComparison(t *testing.T) {
	Convey("Given two items that split their compare dimensions", t, func() {
		x := candidate("x", 80, map[string]float64{"composition": 90, "technique": 40})
		y := candidate("y", 78, map[string]float64{"composition": 50, "technique": 70})

		Convey("When ranked on both dimensions", func() {
			ranked := scoring.RankTopCandidates(
				[]scoring.ScoredItem{x, y},
				[]string{"composition", "technique"},
				2,
			)

			Convey("Then each earns one win and one loss, a net of zero", func() {
				So(len(ranked), ShouldEqual, 2)
				for _, it := range ranked {
					So(*it.PairwiseWins, ShouldEqual, 1)
					So(*it.PairwiseLosses, ShouldEqual, 1)
					So(*it.PlayoffScore, ShouldEqual, 0)
				}
			})

			Convey("And the composite breaks the playoff tie", func() {
				So(ranked[0].ID, ShouldEqual, "x")
			})
		})
	})
}
