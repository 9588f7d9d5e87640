package rng_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"crossyarena/server/internal/rng"
)

func TestDeterminism(t *testing.T) {
	Convey("Given two generators built from the same key tuple", t, func() {
		a := rng.New(uint64(12375972415461437779), uint8(1), "row", 4)
		b := rng.New(uint64(12375972415461437779), uint8(1), "row", 4)

		Convey("Gen should produce identical draws", func() {
			So(a.Gen("x"), ShouldEqual, b.Gen("x"))
		})

		Convey("GenUnit should stay within [0, 1)", func() {
			u := a.GenUnit("unit")
			So(u, ShouldBeGreaterThanOrEqualTo, 0.0)
			So(u, ShouldBeLessThan, 1.0)
		})
	})

	Convey("Given a generator built from different key tuples", t, func() {
		a := rng.New(uint64(1), "a")
		b := rng.New(uint64(2), "a")

		Convey("draws should (almost always) differ", func() {
			So(a.Gen("x"), ShouldNotEqual, b.Gen("x"))
		})
	})
}

func TestChoose(t *testing.T) {
	Convey("Given a fixed slice and key", t, func() {
		slice := []string{"a", "b", "c", "d"}
		r := rng.New(uint64(99), "choice")

		Convey("repeated Choose calls with the same key return the same element", func() {
			first := rng.Choose(r, slice, "k")
			second := rng.Choose(r, slice, "k")
			So(first, ShouldEqual, second)
		})
	})
}

func TestShuffleIsPermutation(t *testing.T) {
	Convey("Given a slice and a shuffle key", t, func() {
		slice := []int{0, 1, 2, 3, 4, 5, 6, 7}
		original := append([]int{}, slice...)
		r := rng.New(uint64(7), "shuffle-test")

		rng.Shuffle(r, slice, "k")

		Convey("the shuffled slice is a permutation of the original", func() {
			seen := map[int]bool{}
			for _, v := range slice {
				seen[v] = true
			}
			So(len(seen), ShouldEqual, len(original))
			for _, v := range original {
				So(seen[v], ShouldBeTrue)
			}
		})
	})
}

func TestGenFroggyWithinBounds(t *testing.T) {
	Convey("Given a froggy draw over [3, 7] with n=4", t, func() {
		r := rng.New(uint64(42), "froggy")
		for i := 0; i < 50; i++ {
			v := r.GenFroggy(3, 7, 4, "k", i)
			Convey("the draw stays within bounds", func() {
				So(v, ShouldBeGreaterThanOrEqualTo, 3.0)
				So(v, ShouldBeLessThanOrEqualTo, 7.0)
			})
		}
	})
}
