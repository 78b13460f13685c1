package similarity_test

import (
	"errors"
	"testing"

	"github.com/okian/careerrank/internal/domain/model"
	"github.com/okian/careerrank/internal/domain/similarity"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCosine(t *testing.T) {
	Convey("Given two vectors", t, func() {
		Convey("When a vector is compared with itself", func() {
			v := model.Vector{0.3, -1.2, 4, 0.01}
			c, err := similarity.Cosine(v, v)

			Convey("Then the similarity should be one", func() {
				So(err, ShouldBeNil)
				So(c, ShouldAlmostEqual, 1.0, 1e-6)
			})
		})

		Convey("When the vectors are orthogonal", func() {
			c, err := similarity.Cosine(model.Vector{1, 0}, model.Vector{0, 1})

			Convey("Then the similarity should be zero", func() {
				So(err, ShouldBeNil)
				So(c, ShouldAlmostEqual, 0.0, 1e-9)
			})
		})

		Convey("When the vectors point in opposite directions", func() {
			d, err := similarity.Distance(model.Vector{1, 2}, model.Vector{-1, -2})

			Convey("Then the distance should be two", func() {
				So(err, ShouldBeNil)
				So(d, ShouldAlmostEqual, 2.0, 1e-6)
			})
		})

		Convey("When one vector is all zeros", func() {
			c, err := similarity.Cosine(model.Vector{0, 0, 0}, model.Vector{1, 2, 3})

			Convey("Then the result should be zero rather than NaN", func() {
				So(err, ShouldBeNil)
				So(c, ShouldEqual, 0.0)
			})
		})

		Convey("When lengths differ", func() {
			_, err := similarity.Cosine(model.Vector{1, 2}, model.Vector{1, 2, 3})

			Convey("Then a dimension mismatch should be reported", func() {
				So(errors.Is(err, similarity.ErrDimensionMismatch), ShouldBeTrue)
			})
		})
	})
}
