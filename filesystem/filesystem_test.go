package filesystem

import (
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestApi(t *testing.T) {
	Convey("Filesystem API", t, func() {
		Convey("Should default to OsFs", func() {
			SetOsFs()
			So(API().Name(), ShouldEqual, "OsFs")
			So(OnDisk(), ShouldBeTrue)
		})

		Convey("Should switch to MemMapFs", func() {
			SetMemMapFs()
			So(API().Name(), ShouldEqual, "MemMapFS")
			So(OnDisk(), ShouldBeFalse)
		})
	})
}

func TestGacheFs(t *testing.T) {
	Convey("Given the in-memory backend", t, func() {
		SetMemMapFs()
		fs := GacheFs{}

		Convey("Files written through GacheFs should be visible to API", func() {
			So(fs.MkdirAll("/cache", os.ModePerm), ShouldBeNil)
			f, err := fs.OpenFile("/cache/data.json", os.O_CREATE|os.O_WRONLY, 0o644)
			So(err, ShouldBeNil)
			_, err = f.Write([]byte("{}"))
			So(err, ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			exists, err := API().Exists("/cache/data.json")
			So(err, ShouldBeNil)
			So(exists, ShouldBeTrue)
		})
	})
}
