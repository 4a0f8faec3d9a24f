package allanime

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nezuko-cli/nezuko/network"
	"github.com/nezuko-cli/nezuko/source"
	. "github.com/smartystreets/goconvey/convey"
)

func encode(s string) string {
	var sb strings.Builder
	sb.WriteString("--")
	for i := 0; i < len(s); i++ {
		fmt.Fprintf(&sb, "%02x", s[i]^56)
	}
	return sb.String()
}

func newServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("query")
		vars := r.URL.Query().Get("variables")

		switch {
		case strings.Contains(q, "shows("):
			_, _ = io.WriteString(w, `{"data":{"shows":{"edges":[
				{"_id":"ReooPAxPMsHM4KPMY","name":"Sousou no Frieren","englishName":"Frieren","thumbnail":"https://img/1.jpg","availableEpisodes":{"sub":28,"dub":28,"raw":0}},
				{"_id":"abc","name":"Frieren Mini","availableEpisodes":{"sub":0,"dub":0,"raw":1}}
			]}}}`)
		case strings.Contains(q, "show("):
			_, _ = io.WriteString(w, `{"data":{"show":{"_id":"x","availableEpisodesDetail":{"sub":["3","2","1","0","1.5"],"dub":["1","2"]}}}}`)
		case strings.Contains(q, "episode("):
			if strings.Contains(vars, `"episodeString":"404"`) {
				_, _ = io.WriteString(w, `{"data":{"episode":null}}`)
				return
			}
			_, _ = fmt.Fprintf(w, `{"data":{"episode":{"sourceUrls":[
				{"sourceUrl":"%s","sourceName":"Sak","type":"player"},
				{"sourceUrl":"%s","sourceName":"Default","type":"iframe"},
				{"sourceUrl":"zz","sourceName":"Yt-mp4","type":"player"}
			]}}}`, "https://sakura/video.mp4", encode("/apivtwo/clock?id=7"))
		default:
			_, _ = io.WriteString(w, `{"errors":[{"message":"bad query"}]}`)
		}
	})
	mux.HandleFunc("/apivtwo/clock.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"links":[{"link":"https://cdn/master.m3u8"}]}`)
	})
	return httptest.NewServer(mux)
}

func TestDecode(t *testing.T) {
	Convey("decode should reverse the XOR hex encoding", t, func() {
		So(decode(encode("/apivtwo/clock?id=1")), ShouldEqual, "/apivtwo/clock?id=1")
		So(decode("--"), ShouldBeEmpty)
		So(decode("--zz"), ShouldBeEmpty)
	})

	Convey("rank should follow the source preference", t, func() {
		So(rank("Default"), ShouldBeGreaterThan, rank("S-mp4"))
		So(rank("Luf-Mp4"), ShouldBeGreaterThan, rank("Default"))
		So(rank("whatever"), ShouldEqual, 1)
	})
}

func TestSplit(t *testing.T) {
	Convey("Variant ids should carry the mode", t, func() {
		id, mode := splitVariant("allanime:abc:dub")
		So(id, ShouldEqual, "abc")
		So(mode, ShouldEqual, "dub")

		id, mode = splitVariant("allanime:abc-dub")
		So(id, ShouldEqual, "abc")
		So(mode, ShouldEqual, "dub")

		id, mode = splitVariant("allanime:abc")
		So(id, ShouldEqual, "abc")
		So(mode, ShouldEqual, "sub")
	})

	Convey("Malformed episode ids should be rejected", t, func() {
		_, _, _, err := splitEpisode("allanime:abc|1")
		So(err, ShouldNotBeNil)
	})
}

func TestBackend(t *testing.T) {
	Convey("Given an AllAnime server", t, func() {
		srv := newServer()
		defer srv.Close()
		b := New(network.Client).WithEndpoint(srv.URL+"/api", srv.URL)

		Convey("Search should namespace ids and report languages", func() {
			cs, err := b.Search(context.Background(), "frieren")
			So(err, ShouldBeNil)
			So(cs, ShouldHaveLength, 2)

			So(cs[0].ID, ShouldEqual, "allanime:ReooPAxPMsHM4KPMY")
			So(cs[0].Provider, ShouldEqual, source.AllAnime)
			So(cs[0].IsMultiAudio, ShouldBeTrue)
			So(cs[0].AvailableLanguages, ShouldResemble, []string{"Japanese", "English"})
			So(cs[0].Count(), ShouldEqual, 28)

			So(cs[1].EpisodeCount.IsPresent(), ShouldBeFalse)
			So(cs[1].Language, ShouldEqual, "Japanese")
		})

		Convey("Episodes should be ascending and skip zero and fractional numbers", func() {
			eps, err := b.Episodes(context.Background(), "allanime:x:sub")
			So(err, ShouldBeNil)
			So(eps, ShouldHaveLength, 4)
			So(eps[0].Number, ShouldEqual, 0)
			So(eps[1].Number, ShouldEqual, 1)
			So(eps[3].Number, ShouldEqual, 3)
			So(eps[1].ID, ShouldEqual, "allanime:x|1|sub")
		})

		Convey("Dub episodes should come from the dub list", func() {
			eps, err := b.Episodes(context.Background(), "allanime:x:dub")
			So(err, ShouldBeNil)
			So(eps, ShouldHaveLength, 2)
			So(eps[0].ID, ShouldEqual, "allanime:x|1|dub")
		})

		Convey("Stream should follow the best ranked source through the clock endpoint", func() {
			s, err := b.Stream(context.Background(), "allanime:x|1|sub")
			So(err, ShouldBeNil)
			So(s.URL, ShouldEqual, "https://cdn/master.m3u8")
			So(s.IsM3U8, ShouldBeTrue)
			So(s.Headers["Referer"], ShouldEqual, srv.URL)
			So(s.Provider, ShouldEqual, source.AllAnime)
		})

		Convey("An episode without sources should not be playable", func() {
			_, err := b.Stream(context.Background(), "allanime:x|404|sub")
			So(err, ShouldEqual, ErrNoPlayable)
		})
	})
}
