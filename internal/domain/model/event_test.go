package model_test

import (
	"testing"

	model "github.com/okian/careerrank/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestTimelineEvent(t *testing.T) {
	convey.Convey("Given a TimelineEvent", t, func() {
		convey.Convey("When all fields are set", func() {
			e := model.TimelineEvent{Role: "Staff Engineer", Organization: "Google", PeriodLabel: "2019-2022"}

			convey.Convey("Then the text should read as a sentence", func() {
				convey.So(e.Text(), convey.ShouldEqual, "Staff Engineer at Google (2019-2022)")
				convey.So(e.IsEmpty(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When only the organization is set", func() {
			e := model.TimelineEvent{Organization: " DeepMind "}

			convey.Convey("Then the text should be the trimmed organization", func() {
				convey.So(e.Text(), convey.ShouldEqual, "DeepMind")
			})
		})

		convey.Convey("When role and period are set", func() {
			e := model.TimelineEvent{Role: "PhD", PeriodLabel: "2015"}

			convey.Convey("Then the organization part should be skipped", func() {
				convey.So(e.Text(), convey.ShouldEqual, "PhD (2015)")
			})
		})

		convey.Convey("When every field is blank", func() {
			e := model.TimelineEvent{Role: "  "}

			convey.Convey("Then it should be empty", func() {
				convey.So(e.IsEmpty(), convey.ShouldBeTrue)
				convey.So(e.Text(), convey.ShouldEqual, "")
			})
		})
	})
}

func TestCandidateClone(t *testing.T) {
	convey.Convey("Given a candidate", t, func() {
		c := model.Candidate{
			ID:            "c-1",
			Sequence:      model.Sequence{{1, 0}, {0, 1}},
			Organizations: []string{"google"},
			Institutions:  []string{"MIT"},
		}

		convey.Convey("When the clone is mutated", func() {
			cp := c.Clone()
			cp.Sequence[0][0] = 9
			cp.Organizations[0] = "meta"
			cp.Institutions[0] = "CMU"

			convey.Convey("Then the original should be unchanged", func() {
				convey.So(c.Sequence[0][0], convey.ShouldEqual, float32(1))
				convey.So(c.Organizations[0], convey.ShouldEqual, "google")
				convey.So(c.Institutions[0], convey.ShouldEqual, "MIT")
			})
		})

		convey.Convey("When cloning a nil sequence", func() {
			convey.So(model.Sequence(nil).Clone(), convey.ShouldBeNil)
		})
	})
}
