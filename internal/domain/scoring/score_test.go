package scoring_test

import (
	"errors"
	"math"
	"testing"

	"github.com/gallerist/curio/internal/domain/registry"
	"github.com/gallerist/curio/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestScorer(opts ...scoring.Option) *scoring.Scorer {
	reg, err := registry.New("curator", []registry.DimensionSpec{
		{Key: "composition", Weight: 40},
		{Key: "technique", Weight: 35},
		{Key: "originality", Weight: 25},
	})
	So(err, ShouldBeNil)
	s, err := scoring.NewScorer(reg, opts...)
	So(err, ShouldBeNil)
	return s
}

func TestNewScorer(t *testing.T) {
	Convey("Given scorer construction", t, func() {
		Convey("When the registry is nil", func() {
			_, err := scoring.NewScorer(nil)
			So(errors.Is(err, scoring.ErrScorerConfig), ShouldBeTrue)
		})

		Convey("When the registry is not normalized", func() {
			reg, err := registry.New("curator", []registry.DimensionSpec{
				{Key: "composition", Weight: 3},
				{Key: "technique", Weight: 4},
			})
			So(err, ShouldBeNil)

			_, err = scoring.NewScorer(reg)
			So(errors.Is(err, scoring.ErrScorerConfig), ShouldBeTrue)

			Convey("And normalizing first makes it acceptable", func() {
				reg.NormalizeWeights()
				s, err := scoring.NewScorer(reg)
				So(err, ShouldBeNil)
				So(s, ShouldNotBeNil)
			})
		})

		Convey("When the thresholds are inverted", func() {
			reg, err := registry.New("curator", []registry.DimensionSpec{
				{Key: "composition", Weight: 100},
			})
			So(err, ShouldBeNil)

			_, err = scoring.NewScorer(reg, scoring.WithThresholds(scoring.Thresholds{
				IncludeMin: 50,
				MaybeMin:   80,
			}))
			So(errors.Is(err, scoring.ErrScorerConfig), ShouldBeTrue)
		})
	})
}

func TestScoreItemComposite(t *testing.T) {
	Convey("Given a scorer with 40/35/25 weights", t, func() {
		s := newTestScorer()

		Convey("When scoring a complete raw set", func() {
			item, err := s.ScoreItem("img-1", scoring.RawScoreSet{
				Scores: map[string]float64{
					"composition": 80,
					"technique":   70,
					"originality": 60,
				},
			})

			Convey("Then the weighted composite lands in the MAYBE band", func() {
				So(err, ShouldBeNil)
				So(item.CompositeRaw, ShouldAlmostEqual, 71.5)
				So(item.Verdict, ShouldEqual, scoring.VerdictMaybe)
				So(item.CompositeZ, ShouldBeNil)
				So(item.Composite(), ShouldAlmostEqual, 71.5)
				So(item.Warnings, ShouldBeEmpty)
			})
		})

		Convey("When the composite sits exactly on a band edge", func() {
			item, err := s.ScoreItem("img-2", scoring.RawScoreSet{
				Scores: map[string]float64{
					"composition": 75,
					"technique":   75,
					"originality": 75,
				},
			})
			So(err, ShouldBeNil)

			Convey("Then the lower edge is inclusive", func() {
				So(item.CompositeRaw, ShouldAlmostEqual, 75.0)
				So(item.Verdict, ShouldEqual, scoring.VerdictInclude)
			})

			item, err = s.ScoreItem("img-3", scoring.RawScoreSet{
				Scores: map[string]float64{
					"composition": 55,
					"technique":   55,
					"originality": 55,
				},
			})
			So(err, ShouldBeNil)
			So(item.Verdict, ShouldEqual, scoring.VerdictMaybe)
		})

		Convey("When a registered dimension is missing from the raw set", func() {
			item, err := s.ScoreItem("img-4", scoring.RawScoreSet{
				Scores: map[string]float64{
					"composition": 80,
					"technique":   70,
				},
			})

			Convey("Then it scores as zero with a warning", func() {
				So(err, ShouldBeNil)
				So(item.CompositeRaw, ShouldAlmostEqual, 56.5)
				So(item.Warnings, ShouldContain, "missing score for dimension originality")
			})
		})

		Convey("When a raw score is out of range", func() {
			_, err := s.ScoreItem("img-5", scoring.RawScoreSet{
				Scores: map[string]float64{"composition": 101},
			})
			So(errors.Is(err, scoring.ErrValidation), ShouldBeTrue)

			_, err = s.ScoreItem("img-6", scoring.RawScoreSet{
				Scores: map[string]float64{"composition": -1},
			})
			So(errors.Is(err, scoring.ErrValidation), ShouldBeTrue)

			_, err = s.ScoreItem("img-7", scoring.RawScoreSet{
				Scores: map[string]float64{"composition": math.NaN()},
			})
			So(errors.Is(err, scoring.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestScoreItemPenalties(t *testing.T) {
	Convey("Given a scorer with a penalty table", t, func() {
		s := newTestScorer(scoring.WithPenaltyTable(scoring.PenaltyTable{
			"watermark":   -15,
			"artifacting": -10,
		}))

		raw := scoring.RawScoreSet{
			Scores: map[string]float64{
				"composition": 80,
				"technique":   70,
				"originality": 60,
			},
		}

		Convey("When flags accumulate penalties", func() {
			raw.Flags = []string{"watermark", "artifacting"}
			item, err := s.ScoreItem("img-1", raw)

			Convey("Then deltas sum before the verdict is assigned", func() {
				So(err, ShouldBeNil)
				So(item.CompositeRaw, ShouldAlmostEqual, 46.5)
				So(item.Verdict, ShouldEqual, scoring.VerdictExclude)
			})
		})

		Convey("When a flag is not in the penalty table", func() {
			raw.Flags = []string{"sepia"}
			item, err := s.ScoreItem("img-2", raw)

			Convey("Then it contributes nothing and is recorded as a warning", func() {
				So(err, ShouldBeNil)
				So(item.CompositeRaw, ShouldAlmostEqual, 71.5)
				So(item.Warnings, ShouldContain, "unknown flag sepia")
			})
		})

		Convey("When penalties would push the composite below zero", func() {
			raw.Scores = map[string]float64{
				"composition": 5,
				"technique":   5,
				"originality": 5,
			}
			raw.Flags = []string{"watermark", "artifacting"}
			item, err := s.ScoreItem("img-3", raw)

			Convey("Then the composite clamps at zero", func() {
				So(err, ShouldBeNil)
				So(item.CompositeRaw, ShouldEqual, 0.0)
				So(item.Verdict, ShouldEqual, scoring.VerdictExclude)
			})
		})
	})
}

func TestScoreItemGates(t *testing.T) {
	Convey("Given a scorer and a high-composite raw set", t, func() {
		s := newTestScorer()
		raw := scoring.RawScoreSet{
			Scores: map[string]float64{
				"composition": 95,
				"technique":   95,
				"originality": 95,
			},
		}

		Convey("When a gate is missing", func() {
			raw.Gates = map[string]scoring.GateState{
				"subject_present": scoring.GateMissing,
			}
			item, err := s.ScoreItem("img-1", raw)

			Convey("Then the verdict is forced to EXCLUDE", func() {
				So(err, ShouldBeNil)
				So(item.CompositeRaw, ShouldAlmostEqual, 95.0)
				So(item.Verdict, ShouldEqual, scoring.VerdictExclude)
			})
		})

		Convey("When gates pass or warn", func() {
			raw.Gates = map[string]scoring.GateState{
				"subject_present": scoring.GatePass,
				"resolution_ok":   scoring.GateWarn,
			}
			item, err := s.ScoreItem("img-2", raw)

			Convey("Then the composite verdict stands", func() {
				So(err, ShouldBeNil)
				So(item.Verdict, ShouldEqual, scoring.VerdictInclude)
			})
		})
	})
}

func TestCustomThresholds(t *testing.T) {
	Convey("Given a scorer with custom verdict bands", t, func() {
		s := newTestScorer(scoring.WithThresholds(scoring.Thresholds{
			IncludeMin: 90,
			MaybeMin:   80,
		}))

		item, err := s.ScoreItem("img-1", scoring.RawScoreSet{
			Scores: map[string]float64{
				"composition": 85,
				"technique":   85,
				"originality": 85,
			},
		})
		So(err, ShouldBeNil)

		Convey("Then the custom bands apply", func() {
			So(item.CompositeRaw, ShouldAlmostEqual, 85.0)
			So(item.Verdict, ShouldEqual, scoring.VerdictMaybe)
		})
	})
}
