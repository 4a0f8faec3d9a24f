package hianime

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nezuko-cli/nezuko/network"
	"github.com/nezuko-cli/nezuko/source"
	. "github.com/smartystreets/goconvey/convey"
)

const searchPage = `<div class="film_list-wrap">
<div class="flw-item">
  <div class="film-poster"><img data-src="https://img/frieren.jpg" src="placeholder.gif">
    <div class="tick"><div class="tick-item tick-sub">28</div><div class="tick-item tick-dub">28</div></div>
  </div>
  <a href="/watch/frieren-beyond-journeys-end-18542?ref=search"></a>
  <h3 class="film-name"><a class="dynamic-name">Frieren: Beyond Journey's End</a></h3>
</div>
<div class="flw-item">
  <img src="https://img/movie.jpg">
  <a href="/frieren-recap-999"></a>
  <h3 class="film-name"><a class="dynamic-name">Frieren Recap</a></h3>
</div>
<div class="flw-item"><a href="/nameless-1"></a></div>
</div>`

const episodeList = `<div class="ss-list">
<a class="ssl-item ep-item" data-number="1" data-id="1001" title="The Journey's End"><div class="ep-name e-dynamic-name">The Journey's End</div></a>
<a class="ssl-item ep-item ssl-item-filler" data-number="2" data-id="1002" title="Filler"></a>
<a class="ssl-item ep-item" data-number="x" data-id="1003"></a>
</div>`

const serverList = `<div>
<div class="server-item" data-type="sub" data-id="s2"><a>HD-2</a></div>
<div class="server-item" data-type="sub" data-id="s1"><a>HD-1</a></div>
<div class="server-item" data-type="dub" data-id="d1"><a>HD-1</a></div>
</div>`

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

func newServer(encrypted bool) *httptest.Server {
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, searchPage)
	})
	mux.HandleFunc("/ajax/v2/episode/list/18542", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"html": episodeList})
	})
	mux.HandleFunc("/ajax/v2/episode/servers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"html": serverList})
	})
	mux.HandleFunc("/ajax/v2/episode/sources", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"link": srv.URL + "/embed-2/v2/e-1/" + r.URL.Query().Get("id") + "?k=1"})
	})
	mux.HandleFunc("/embed-2/v2/e-1/getSources", func(w http.ResponseWriter, r *http.Request) {
		if encrypted {
			writeJSON(w, map[string]any{"sources": "U2FsdGVkX1..."})
			return
		}
		writeJSON(w, map[string]any{
			"sources": []map[string]string{{"file": "https://cdn/" + r.URL.Query().Get("id") + "/master.m3u8", "type": "hls"}},
			"tracks": []map[string]any{
				{"file": "https://cdn/en.vtt", "label": "English", "kind": "captions", "default": true},
				{"file": "https://cdn/thumbs.vtt", "kind": "thumbnails"},
			},
			"intro": map[string]float64{"start": 30, "end": 120},
			"outro": map[string]float64{"start": 0, "end": 0},
		})
	})

	srv = httptest.NewServer(mux)
	return srv
}

func TestBackend(t *testing.T) {
	Convey("Given a HiAnime server", t, func() {
		srv := newServer(false)
		defer srv.Close()
		b := New(network.Client).WithBase(srv.URL)

		Convey("Search should parse the result cards", func() {
			cs, err := b.Search(context.Background(), "frieren")
			So(err, ShouldBeNil)
			So(cs, ShouldHaveLength, 2)

			So(cs[0].ID, ShouldEqual, "hianime:frieren-beyond-journeys-end-18542")
			So(cs[0].Image, ShouldEqual, "https://img/frieren.jpg")
			So(cs[0].IsMultiAudio, ShouldBeTrue)
			So(cs[0].Count(), ShouldEqual, 28)
			So(cs[0].Provider, ShouldEqual, source.HiAnime)

			So(cs[1].Image, ShouldEqual, "https://img/movie.jpg")
			So(cs[1].AvailableLanguages, ShouldResemble, []string{"Japanese"})
		})

		Convey("Episodes should come from the ajax list", func() {
			eps, err := b.Episodes(context.Background(), "hianime:frieren-beyond-journeys-end-18542")
			So(err, ShouldBeNil)
			So(eps, ShouldHaveLength, 2)
			So(eps[0].ID, ShouldEqual, "hianime:frieren-beyond-journeys-end-18542|1001")
			So(eps[0].Title, ShouldEqual, "The Journey's End")
			So(eps[1].IsFiller, ShouldBeTrue)
		})

		Convey("A slug without a numeric id should be rejected", func() {
			_, err := b.Episodes(context.Background(), "hianime:frieren")
			So(err, ShouldNotBeNil)
		})

		Convey("Stream should use the HD-1 server of the category", func() {
			s, err := b.Stream(context.Background(), "hianime:frieren-beyond-journeys-end-18542|1001")
			So(err, ShouldBeNil)
			So(s.URL, ShouldEqual, "https://cdn/s1/master.m3u8")
			So(s.IsM3U8, ShouldBeTrue)
			So(s.Subtitles, ShouldHaveLength, 1)
			So(s.Subtitles[0].Default, ShouldBeTrue)
			So(s.Intro, ShouldResemble, &source.Interval{Start: 30, End: 120})
			So(s.Outro, ShouldBeNil)
		})

		Convey("A dub category should pick the dub server", func() {
			s, err := b.Stream(context.Background(), "hianime:frieren-beyond-journeys-end-18542|1001|dub")
			So(err, ShouldBeNil)
			So(s.URL, ShouldEqual, "https://cdn/d1/master.m3u8")
		})
	})

	Convey("Given an embed serving encrypted sources", t, func() {
		srv := newServer(true)
		defer srv.Close()
		b := New(network.Client).WithBase(srv.URL)

		Convey("Stream should report it", func() {
			_, err := b.Stream(context.Background(), "hianime:x-1|1001")
			So(err, ShouldEqual, ErrEncrypted)
		})
	})
}

func TestPickServer(t *testing.T) {
	Convey("pickServer should fall back to the first server", t, func() {
		s, ok := pickServer([]server{{ID: "a", Name: "Other", Type: "raw"}}, "sub")
		So(ok, ShouldBeTrue)
		So(s.ID, ShouldEqual, "a")

		_, ok = pickServer(nil, "sub")
		So(ok, ShouldBeFalse)
	})
}
