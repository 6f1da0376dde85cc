package evaluate_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gallerist/curio/internal/domain/registry"
	"github.com/gallerist/curio/internal/domain/scoring"
	"github.com/gallerist/curio/internal/evaluate"
	"github.com/gallerist/curio/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func testRegistry() *registry.Registry {
	reg, err := registry.New("curator", []registry.DimensionSpec{
		{Key: "composition", Weight: 40},
		{Key: "technique", Weight: 35},
		{Key: "originality", Weight: 25},
	})
	So(err, ShouldBeNil)
	return reg
}

func testImage(id string) evaluate.Image {
	return evaluate.Image{ID: id, Bytes: []byte("fake image bytes for " + id), MediaType: "image/png"}
}

// stubEvaluator counts calls and returns a fixed result or error.
type stubEvaluator struct {
	calls  atomic.Int64
	result scoring.RawScoreSet
	err    error
}

func (s *stubEvaluator) Evaluate(_ context.Context, _ *registry.Registry, _ evaluate.Image) (scoring.RawScoreSet, error) {
	s.calls.Add(1)
	return s.result, s.err
}

func TestSyntheticEvaluator(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Convey("Given a synthetic evaluator with a fixed seed", t, func() {
		reg := testRegistry()
		opts := []evaluate.SyntheticOption{
			evaluate.WithSeed(42),
			evaluate.WithSimulatedLatency(time.Microsecond, 2*time.Microsecond),
		}

		Convey("When two evaluators share the seed", func() {
			a := evaluate.NewSyntheticEvaluator(opts...)
			b := evaluate.NewSyntheticEvaluator(opts...)

			Convey("Then they generate identical score sequences", func() {
				for i := 0; i < 5; i++ {
					img := testImage(fmt.Sprintf("img-%d", i))
					setA, errA := a.Evaluate(context.Background(), reg, img)
					setB, errB := b.Evaluate(context.Background(), reg, img)
					So(errA, ShouldBeNil)
					So(errB, ShouldBeNil)
					So(setA.Scores, ShouldResemble, setB.Scores)
					So(setA.Flags, ShouldResemble, setB.Flags)
				}
			})
		})

		Convey("When scores are generated", func() {
			e := evaluate.NewSyntheticEvaluator(opts...)
			set, err := e.Evaluate(context.Background(), reg, testImage("img-1"))

			Convey("Then every registry dimension gets an in-range score", func() {
				So(err, ShouldBeNil)
				So(len(set.Scores), ShouldEqual, 3)
				for _, key := range reg.Keys() {
					score, ok := set.Scores[key]
					So(ok, ShouldBeTrue)
					So(score, ShouldBeBetweenOrEqual, 0, 100)
				}
			})
		})

		Convey("When the flag pool is disabled", func() {
			e := evaluate.NewSyntheticEvaluator(
				evaluate.WithSeed(42),
				evaluate.WithSimulatedLatency(time.Microsecond, 2*time.Microsecond),
				evaluate.WithFlagPool(nil, 0),
			)

			Convey("Then no flags are ever attached", func() {
				for i := 0; i < 20; i++ {
					set, err := e.Evaluate(context.Background(), reg, testImage(fmt.Sprintf("img-%d", i)))
					So(err, ShouldBeNil)
					So(set.Flags, ShouldBeEmpty)
				}
			})
		})

		Convey("When the context is already cancelled", func() {
			e := evaluate.NewSyntheticEvaluator(opts...)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := e.Evaluate(ctx, reg, testImage("img-1"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFallbackEvaluator(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Convey("Given a fallback evaluator", t, func() {
		reg := testRegistry()
		log := logger.Get().Named("test")

		Convey("When the primary succeeds", func() {
			primary := &stubEvaluator{result: scoring.RawScoreSet{
				Scores: map[string]float64{"composition": 88},
			}}
			f := evaluate.NewFallbackEvaluator(primary, log)

			set, err := f.Evaluate(context.Background(), reg, testImage("img-1"))
			So(err, ShouldBeNil)
			So(set.Scores["composition"], ShouldEqual, 88)
			So(set.HasFlag(evaluate.FlagEvaluationFailed), ShouldBeFalse)
		})

		Convey("When the primary fails", func() {
			primary := &stubEvaluator{err: errors.New("model unavailable")}
			f := evaluate.NewFallbackEvaluator(primary, log)

			set, err := f.Evaluate(context.Background(), reg, testImage("img-1"))

			Convey("Then a neutral all-50 set is substituted and flagged", func() {
				So(err, ShouldBeNil)
				for _, key := range reg.Keys() {
					So(set.Scores[key], ShouldEqual, 50.0)
				}
				So(set.HasFlag(evaluate.FlagEvaluationFailed), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			primary := &stubEvaluator{err: context.Canceled}
			f := evaluate.NewFallbackEvaluator(primary, log)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := f.Evaluate(ctx, reg, testImage("img-1"))

			Convey("Then cancellation propagates instead of a neutral set", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestCachedEvaluator(t *testing.T) {
	Convey("Given a cached evaluator", t, func() {
		reg := testRegistry()

		Convey("When the same image is evaluated twice", func() {
			inner := &stubEvaluator{result: scoring.RawScoreSet{
				Scores: map[string]float64{"composition": 77},
			}}
			e := evaluate.NewCachedEvaluator(inner, evaluate.NewCache())

			first, err := e.Evaluate(context.Background(), reg, testImage("img-1"))
			So(err, ShouldBeNil)
			second, err := e.Evaluate(context.Background(), reg, testImage("img-1"))
			So(err, ShouldBeNil)

			Convey("Then the inner evaluator runs once", func() {
				So(inner.calls.Load(), ShouldEqual, 1)
				So(second.Scores, ShouldResemble, first.Scores)
			})
		})

		Convey("When different images are evaluated", func() {
			inner := &stubEvaluator{result: scoring.RawScoreSet{
				Scores: map[string]float64{"composition": 77},
			}}
			e := evaluate.NewCachedEvaluator(inner, evaluate.NewCache())

			_, _ = e.Evaluate(context.Background(), reg, testImage("img-1"))
			_, _ = e.Evaluate(context.Background(), reg, testImage("img-2"))

			So(inner.calls.Load(), ShouldEqual, 2)
		})

		Convey("When a fallback-flagged result comes back", func() {
			inner := &stubEvaluator{result: scoring.RawScoreSet{
				Scores: map[string]float64{"composition": 50},
				Flags:  []string{evaluate.FlagEvaluationFailed},
			}}
			e := evaluate.NewCachedEvaluator(inner, evaluate.NewCache())

			_, _ = e.Evaluate(context.Background(), reg, testImage("img-1"))
			_, _ = e.Evaluate(context.Background(), reg, testImage("img-1"))

			Convey("Then it is never cached, so the upstream gets retried", func() {
				So(inner.calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the cache bound is exceeded", func() {
			cache := evaluate.NewCache(evaluate.WithCacheSize(2))
			inner := &stubEvaluator{result: scoring.RawScoreSet{
				Scores: map[string]float64{"composition": 60},
			}}
			e := evaluate.NewCachedEvaluator(inner, cache)

			_, _ = e.Evaluate(context.Background(), reg, testImage("img-1"))
			_, _ = e.Evaluate(context.Background(), reg, testImage("img-2"))
			_, _ = e.Evaluate(context.Background(), reg, testImage("img-3"))

			Convey("Then the oldest entry is evicted", func() {
				So(cache.Len(), ShouldEqual, 2)

				// img-1 was evicted; re-evaluating it calls inner again.
				_, _ = e.Evaluate(context.Background(), reg, testImage("img-1"))
				So(inner.calls.Load(), ShouldEqual, 4)
			})
		})

		Convey("When the cache is reset", func() {
			cache := evaluate.NewCache()
			inner := &stubEvaluator{result: scoring.RawScoreSet{
				Scores: map[string]float64{"composition": 60},
			}}
			e := evaluate.NewCachedEvaluator(inner, cache)

			_, _ = e.Evaluate(context.Background(), reg, testImage("img-1"))
			So(cache.Len(), ShouldEqual, 1)

			cache.Reset()
			So(cache.Len(), ShouldEqual, 0)
		})
	})
}
