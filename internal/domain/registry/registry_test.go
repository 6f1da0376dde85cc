package registry_test

import (
	"errors"
	"math"
	"testing"

	"github.com/gallerist/curio/internal/domain/registry"
	. "github.com/smartystreets/goconvey/convey"
)

func curatorDims() []registry.DimensionSpec {
	return []registry.DimensionSpec{
		{Key: "composition", Weight: 40},
		{Key: "technique", Weight: 35},
		{Key: "originality", Weight: 25},
	}
}

func TestRegistryNew(t *testing.T) {
	Convey("Given dimension specs whose weights sum to 100", t, func() {
		reg, err := registry.New("curator", curatorDims())

		Convey("Then the registry is built and normalized", func() {
			So(err, ShouldBeNil)
			So(reg, ShouldNotBeNil)
			So(reg.Name(), ShouldEqual, "curator")
			So(reg.Normalized(), ShouldBeTrue)
			So(reg.WeightSum(), ShouldAlmostEqual, 100.0)
			So(reg.Keys(), ShouldResemble, []string{"composition", "technique", "originality"})
		})

		Convey("And weights are retrievable by key", func() {
			w, ok := reg.Weight("technique")
			So(ok, ShouldBeTrue)
			So(w, ShouldEqual, 35.0)

			_, ok = reg.Weight("absent")
			So(ok, ShouldBeFalse)
			So(reg.Has("composition"), ShouldBeTrue)
			So(reg.Has("absent"), ShouldBeFalse)
		})
	})

	Convey("Given invalid dimension specs", t, func() {
		Convey("When the list is empty", func() {
			_, err := registry.New("curator", nil)
			So(errors.Is(err, registry.ErrConfig), ShouldBeTrue)
		})

		Convey("When a key is empty", func() {
			_, err := registry.New("curator", []registry.DimensionSpec{
				{Key: "", Weight: 100},
			})
			So(errors.Is(err, registry.ErrConfig), ShouldBeTrue)
		})

		Convey("When a key is duplicated", func() {
			_, err := registry.New("curator", []registry.DimensionSpec{
				{Key: "composition", Weight: 50},
				{Key: "composition", Weight: 50},
			})
			So(errors.Is(err, registry.ErrConfig), ShouldBeTrue)
		})

		Convey("When a weight is zero or negative", func() {
			_, err := registry.New("curator", []registry.DimensionSpec{
				{Key: "composition", Weight: 0},
				{Key: "technique", Weight: 100},
			})
			So(errors.Is(err, registry.ErrConfig), ShouldBeTrue)

			_, err = registry.New("curator", []registry.DimensionSpec{
				{Key: "composition", Weight: -5},
				{Key: "technique", Weight: 105},
			})
			So(errors.Is(err, registry.ErrConfig), ShouldBeTrue)
		})

		Convey("When a weight is NaN or infinite", func() {
			_, err := registry.New("curator", []registry.DimensionSpec{
				{Key: "composition", Weight: math.NaN()},
				{Key: "technique", Weight: 100},
			})
			So(errors.Is(err, registry.ErrConfig), ShouldBeTrue)

			_, err = registry.New("curator", []registry.DimensionSpec{
				{Key: "composition", Weight: math.Inf(1)},
			})
			So(errors.Is(err, registry.ErrConfig), ShouldBeTrue)
		})
	})
}

func TestRegistryNormalizeWeights(t *testing.T) {
	Convey("Given a registry whose weights do not sum to 100", t, func() {
		reg, err := registry.New("curator", []registry.DimensionSpec{
			{Key: "composition", Weight: 2},
			{Key: "technique", Weight: 2},
			{Key: "originality", Weight: 4},
		})
		So(err, ShouldBeNil)
		So(reg.Normalized(), ShouldBeFalse)

		Convey("When NormalizeWeights runs", func() {
			reg.NormalizeWeights()

			Convey("Then the weights rescale proportionally to 100", func() {
				So(reg.Normalized(), ShouldBeTrue)
				So(reg.WeightSum(), ShouldAlmostEqual, 100.0)

				w, _ := reg.Weight("composition")
				So(w, ShouldAlmostEqual, 25.0)
				w, _ = reg.Weight("originality")
				So(w, ShouldAlmostEqual, 50.0)
			})

			Convey("And normalizing again is a no-op", func() {
				before := reg.Dimensions()
				reg.NormalizeWeights()
				So(reg.Dimensions(), ShouldResemble, before)
				So(reg.WeightSum(), ShouldAlmostEqual, 100.0)
			})
		})
	})

	Convey("Given an already normalized registry", t, func() {
		reg, err := registry.New("curator", curatorDims())
		So(err, ShouldBeNil)

		Convey("Then NormalizeWeights leaves the weights untouched", func() {
			before := reg.Dimensions()
			reg.NormalizeWeights()
			So(reg.Dimensions(), ShouldResemble, before)
		})
	})
}

func TestRegistryDimensionsCopy(t *testing.T) {
	Convey("Given a registry", t, func() {
		reg, err := registry.New("curator", curatorDims())
		So(err, ShouldBeNil)

		Convey("Then mutating the returned dimensions does not affect the registry", func() {
			dims := reg.Dimensions()
			dims[0].Weight = 1

			w, _ := reg.Weight("composition")
			So(w, ShouldEqual, 40.0)
		})
	})
}
