package query

import (
	"testing"

	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestQuery(t *testing.T) {
	Convey("Given query history", t, func() {
		viper.Set(key.SearchShowQuerySuggestions, true)
		So(Forget(), ShouldBeNil)

		So(Remember("Frieren", 1), ShouldBeNil)
		So(Remember("  frieren beyond  ", 10), ShouldBeNil)
		So(Remember("bleach", 3), ShouldBeNil)

		Convey("Suggestions should be sorted by rank", func() {
			s := SuggestMany("fri")
			So(s, ShouldResemble, []string{"frieren beyond", "frieren"})
			So(Suggest("ble").MustGet(), ShouldEqual, "bleach")
		})

		Convey("Remembering again should refresh suggestions", func() {
			_ = SuggestMany("fri")
			So(Remember("frieren", 20), ShouldBeNil)
			So(SuggestMany("fri")[0], ShouldEqual, "frieren")
		})

		Convey("Nothing should be suggested when disabled", func() {
			viper.Set(key.SearchShowQuerySuggestions, false)
			So(SuggestMany("fri"), ShouldBeEmpty)
			So(Suggest("fri").IsAbsent(), ShouldBeTrue)
		})

		Convey("It sanitizes input", func() {
			So(sanitize("  NARUTO  "), ShouldEqual, "naruto")
		})
	})
}
