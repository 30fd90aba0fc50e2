package dedupe_test

import (
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/gesturelab/distill/internal/domain/dedupe"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemory()

		Convey("When an ID is recorded twice", func() {
			first := d.SeenAndRecord("evt-1")
			second := d.SeenAndRecord("evt-1")

			Convey("Then only the second observation reports seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When distinct IDs are recorded", func() {
			So(d.SeenAndRecord("a"), ShouldBeFalse)
			So(d.SeenAndRecord("b"), ShouldBeFalse)

			Convey("Then both are tracked", func() {
				So(d.Size(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemory(dedupe.WithMaxSize(3))

		Convey("When more IDs arrive than the cap", func() {
			for i := 0; i < 5; i++ {
				So(d.SeenAndRecord(fmt.Sprintf("evt-%d", i)), ShouldBeFalse)
			}

			Convey("Then the oldest entries were evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord("evt-0"), ShouldBeFalse)
				So(d.SeenAndRecord("evt-4"), ShouldBeTrue)
			})
		})
	})
}
