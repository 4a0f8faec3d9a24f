package player

import (
	"testing"

	"github.com/nezuko-cli/nezuko/aniskip"
	"github.com/nezuko-cli/nezuko/source"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingSeeker struct {
	seeks []float64
}

func (r *recordingSeeker) Seek(s float64) error {
	r.seeks = append(r.seeks, s)
	return nil
}

func TestSkipper(t *testing.T) {
	Convey("Given stream intervals and AniSkip times", t, func() {
		seeker := &recordingSeeker{}
		stream := &source.Stream{Intro: &source.Interval{Start: 30, End: 120}}
		times := &aniskip.SkipTimes{
			Opening: &source.Interval{Start: 0, End: 90},
			Ending:  &source.Interval{Start: 1300, End: 1390},
		}
		s := NewSkipper(seeker, stream, times)

		Convey("The stream intro should win and the AniSkip outro fill in", func() {
			skipped, err := s.Check(45)
			So(err, ShouldBeNil)
			So(skipped, ShouldBeTrue)

			skipped, _ = s.Check(1310)
			So(skipped, ShouldBeTrue)
			So(seeker.seeks, ShouldResemble, []float64{120, 1390})
		})

		Convey("A range should only be skipped once", func() {
			_, _ = s.Check(45)
			skipped, _ := s.Check(50)
			So(skipped, ShouldBeFalse)
			So(seeker.seeks, ShouldHaveLength, 1)
		})

		Convey("Positions outside the ranges should not seek", func() {
			skipped, _ := s.Check(120)
			So(skipped, ShouldBeFalse)
			skipped, _ = s.Check(10)
			So(skipped, ShouldBeFalse)
		})

		Convey("Chapters should mark both ranges", func() {
			chapters := s.Chapters()
			So(chapters, ShouldHaveLength, 5)
			So(chapters[1], ShouldResemble, Chapter{Title: "Opening", Time: 30})
			So(chapters[3], ShouldResemble, Chapter{Title: "Ending", Time: 1300})
		})
	})

	Convey("Without any ranges", t, func() {
		s := NewSkipper(&recordingSeeker{}, &source.Stream{Outro: &source.Interval{}}, nil)
		So(s.Empty(), ShouldBeTrue)
		So(s.Chapters(), ShouldBeNil)
	})
}
