package custom

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	lua "github.com/yuin/gopher-lua"
)

func TestCandidateFromTable(t *testing.T) {
	Convey("candidateFromTable", t, func() {
		L := lua.NewState()
		defer L.Close()

		Convey("Should qualify the id with the script name", func() {
			tbl := L.NewTable()
			tbl.RawSetString("id", lua.LString("naruto-hindi"))
			tbl.RawSetString("title", lua.LString("Naruto (Hindi Dub)"))
			tbl.RawSetString("available_languages", lua.LString("Hindi, Tamil"))
			tbl.RawSetString("episodes", lua.LNumber(220))

			c, err := candidateFromTable(tbl, "desi")
			So(err, ShouldBeNil)
			So(c.ID, ShouldEqual, "desi-custom:naruto-hindi")
			So(c.AvailableLanguages, ShouldResemble, []string{"Hindi", "Tamil"})
			So(c.EpisodeCount.MustGet(), ShouldEqual, 220)
		})

		Convey("Should fall back to the url as id", func() {
			tbl := L.NewTable()
			tbl.RawSetString("url", lua.LString("https://example.com/naruto"))
			tbl.RawSetString("title", lua.LString("Naruto"))

			langs := L.NewTable()
			langs.Append(lua.LString("Telugu"))
			tbl.RawSetString("available_languages", langs)
			tbl.RawSetString("is_multi_audio", lua.LTrue)

			c, err := candidateFromTable(tbl, "desi")
			So(err, ShouldBeNil)
			So(c.ID, ShouldEqual, "desi-custom:https://example.com/naruto")
			So(c.IsMultiAudio, ShouldBeTrue)
			So(c.AvailableLanguages, ShouldResemble, []string{"Telugu"})
			So(c.EpisodeCount.IsPresent(), ShouldBeFalse)
		})

		Convey("Should fail without a title", func() {
			tbl := L.NewTable()
			tbl.RawSetString("id", lua.LString("x"))

			_, err := candidateFromTable(tbl, "desi")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestEpisodeFromTable(t *testing.T) {
	Convey("episodeFromTable", t, func() {
		L := lua.NewState()
		defer L.Close()

		Convey("Should prefer the explicit number", func() {
			tbl := L.NewTable()
			tbl.RawSetString("id", lua.LString("ep-3"))
			tbl.RawSetString("number", lua.LNumber(3))
			tbl.RawSetString("title", lua.LString("Season 2 Episode 11"))

			ep, err := episodeFromTable(tbl, "desi")
			So(err, ShouldBeNil)
			So(ep.Number, ShouldEqual, 3)
			So(ep.ID, ShouldEqual, "desi-custom:ep-3")
		})

		Convey("Should read the last number of the title", func() {
			tbl := L.NewTable()
			tbl.RawSetString("id", lua.LString("ep"))
			tbl.RawSetString("title", lua.LString("Season 2 Episode 11"))

			ep, err := episodeFromTable(tbl, "desi")
			So(err, ShouldBeNil)
			So(ep.Number, ShouldEqual, 11)
		})

		Convey("Should accept a numeric string", func() {
			tbl := L.NewTable()
			tbl.RawSetString("id", lua.LString("ep"))
			tbl.RawSetString("number", lua.LString("7"))

			ep, err := episodeFromTable(tbl, "desi")
			So(err, ShouldBeNil)
			So(ep.Number, ShouldEqual, 7)
		})

		Convey("Should reject fractional numbers", func() {
			tbl := L.NewTable()
			tbl.RawSetString("id", lua.LString("ep"))
			tbl.RawSetString("number", lua.LNumber(12.5))

			_, err := episodeFromTable(tbl, "desi")
			So(err, ShouldNotBeNil)

			tbl = L.NewTable()
			tbl.RawSetString("id", lua.LString("ep"))
			tbl.RawSetString("title", lua.LString("Episode 12.5"))

			_, err = episodeFromTable(tbl, "desi")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestStreamFromTable(t *testing.T) {
	Convey("streamFromTable", t, func() {
		L := lua.NewState()
		defer L.Close()

		Convey("Should extract headers and subtitles", func() {
			tbl := L.NewTable()
			tbl.RawSetString("url", lua.LString("https://example.com/stream.m3u8"))

			headers := L.NewTable()
			headers.RawSetString("Referer", lua.LString("https://example.com"))
			tbl.RawSetString("headers", headers)

			sub := L.NewTable()
			sub.RawSetString("lang", lua.LString("Hindi"))
			sub.RawSetString("url", lua.LString("https://example.com/hi.vtt"))
			subs := L.NewTable()
			subs.Append(sub)
			tbl.RawSetString("subtitles", subs)

			s, err := streamFromTable(tbl)
			So(err, ShouldBeNil)
			So(s.IsM3U8, ShouldBeTrue)
			So(s.Quality, ShouldEqual, "default")
			So(s.Headers["Referer"], ShouldEqual, "https://example.com")
			So(s.Subtitles, ShouldHaveLength, 1)
			So(s.Subtitles[0].Label, ShouldEqual, "Hindi")
		})

		Convey("Should fail when URL is missing", func() {
			tbl := L.NewTable()
			tbl.RawSetString("quality", lua.LString("720p"))

			_, err := streamFromTable(tbl)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestParseID(t *testing.T) {
	Convey("ParseID", t, func() {
		name, rest, ok := ParseID("desi-custom:https://example.com/a")
		So(ok, ShouldBeTrue)
		So(name, ShouldEqual, "desi")
		So(rest, ShouldEqual, "https://example.com/a")

		_, _, ok = ParseID("allanime:abc")
		So(ok, ShouldBeFalse)

		_, _, ok = ParseID("-custom:abc")
		So(ok, ShouldBeFalse)
	})
}
