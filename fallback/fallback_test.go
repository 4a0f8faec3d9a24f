package fallback

import (
	"testing"

	"github.com/nezuko-cli/nezuko/source"
	. "github.com/smartystreets/goconvey/convey"
)

var three = []source.Variant{
	{Name: "Server 1", ID: "allanime:a:sub", Type: source.Sub},
	{Name: "Server 2", ID: "hianime:b", Type: source.Multi},
	{Name: "Server 3", ID: "c", Type: source.Sub},
}

func TestController(t *testing.T) {
	Convey("Given three variants with the first selected", t, func() {
		c := New()
		c.SetVariants(three)
		So(c.Select("allanime:a:sub"), ShouldBeNil)
		So(c.State(), ShouldEqual, Resolving)

		c.Resolved()
		So(c.State(), ShouldEqual, Playing)
		c.TimeUpdate(312)

		Convey("The first failure should move to the next variant and carry the position", func() {
			d, err := c.Fail()
			So(err, ShouldBeNil)
			So(d.Next.ID, ShouldEqual, "hianime:b")
			So(d.Position, ShouldEqual, 312)
			So(c.State(), ShouldEqual, Resolving)

			sel, _ := c.Selected()
			So(sel.ID, ShouldEqual, "hianime:b")

			Convey("A failure on the fallback target should be terminal", func() {
				c.Resolved()
				_, err := c.Fail()
				So(err, ShouldEqual, ErrAllFailed)
				So(c.State(), ShouldEqual, FailedTerminal)

				Convey("An explicit selection should re-arm the guard", func() {
					So(c.Select("c"), ShouldBeNil)
					d, err := c.Fail()
					So(err, ShouldBeNil)
					So(d.Next.ID, ShouldEqual, "allanime:a:sub")
				})
			})
		})

		Convey("An empty episode list should count as a failure", func() {
			d, err := c.EmptyEpisodes()
			So(err, ShouldBeNil)
			So(d.Next.ID, ShouldEqual, "hianime:b")

			_, err = c.EmptyEpisodes()
			So(err, ShouldEqual, ErrAllFailed)
		})

		Convey("An explicit episode change should re-arm the guard", func() {
			_, err := c.Fail()
			So(err, ShouldBeNil)

			c.ChangeEpisode(0)
			d, err := c.Fail()
			So(err, ShouldBeNil)
			So(d.Next.ID, ShouldEqual, "c")
			So(d.Position, ShouldEqual, 0)
		})
	})

	Convey("Given a single variant", t, func() {
		c := New()
		c.SetVariants(three[:1])
		So(c.Select("allanime:a:sub"), ShouldBeNil)

		Convey("A failure should be terminal at once", func() {
			_, err := c.Fail()
			So(err, ShouldEqual, ErrAllFailed)
			So(c.State(), ShouldEqual, FailedTerminal)
		})
	})

	Convey("Given nothing selected", t, func() {
		c := New()
		c.SetVariants(three)

		Convey("A failure should be terminal", func() {
			_, err := c.Fail()
			So(err, ShouldEqual, ErrAllFailed)
		})

		Convey("Selecting an unknown id should fail", func() {
			So(c.Select("nope"), ShouldNotBeNil)
		})
	})

	Convey("Given a rebuilt variant list", t, func() {
		c := New()
		c.SetVariants(three)
		So(c.Select("c"), ShouldBeNil)

		Convey("A selection that survives should be kept", func() {
			c.SetVariants(three[1:])
			sel, ok := c.Selected()
			So(ok, ShouldBeTrue)
			So(sel.ID, ShouldEqual, "c")
		})

		Convey("A selection that disappears should be cleared", func() {
			c.SetVariants(three[:2])
			_, ok := c.Selected()
			So(ok, ShouldBeFalse)
		})
	})
}
