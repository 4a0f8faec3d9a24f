package custom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/internal/cache"
	"github.com/nezuko-cli/nezuko/internal/scraper"
	"github.com/nezuko-cli/nezuko/network"
	. "github.com/smartystreets/goconvey/convey"
)

const script = `
local http = require("http_tls")
local base = "%s"

function SearchRegional(query)
	local body = http.get(base .. "/search?q=" .. query)
	if body == "none" then
		return {}
	end
	return {
		{ id = "one", title = body, available_languages = { "Hindi" } },
		{ title = "missing id" },
	}
end

function RegionalEpisodes(id)
	return {
		{ id = id .. "-2", number = 2 },
		{ id = id .. "-1", title = "Episode 1" },
	}
end

function RegionalStream(id)
	local resp = http.request({ url = base .. "/stream", headers = { ["X-Id"] = id } })
	return { url = resp.body, headers = { Referer = base } }
end

function Slow()
	while true do end
end
`

func TestSource(t *testing.T) {
	Convey("Given a regional script", t, func() {
		filesystem.SetMemMapFs()
		cache.Dir = func() string { return "/cache/scrapers" }
		Client = network.Client

		mux := http.NewServeMux()
		mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("q") == "nothing" {
				_, _ = io.WriteString(w, "none")
				return
			}
			_, _ = io.WriteString(w, "Naruto (Hindi)")
		})
		mux.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "https://cdn/"+r.Header.Get("X-Id")+".m3u8")
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		path := "/sources/desi.lua"
		So(filesystem.API().WriteFile(path, []byte(fmt.Sprintf(script, srv.URL)), 0o644), ShouldBeNil)

		// Every leaf serves the script from a new address.
		scraper.Forget(path)

		s, err := LoadSource(path)
		So(err, ShouldBeNil)
		defer s.Close()

		So(s.Name(), ShouldEqual, "desi")

		Convey("Search should keep valid results", func() {
			cs, err := s.Search(context.Background(), "naruto")
			So(err, ShouldBeNil)
			So(cs, ShouldHaveLength, 1)
			So(cs[0].ID, ShouldEqual, "desi-custom:one")
			So(cs[0].Title, ShouldEqual, "Naruto (Hindi)")
		})

		Convey("An empty search should return an empty slice", func() {
			cs, err := s.Search(context.Background(), "nothing")
			So(err, ShouldBeNil)
			So(cs, ShouldBeEmpty)
		})

		Convey("Episodes should be sorted by number", func() {
			eps, err := s.Episodes(context.Background(), "desi-custom:one")
			So(err, ShouldBeNil)
			So(eps, ShouldHaveLength, 2)
			So(eps[0].Number, ShouldEqual, 1)
			So(eps[0].ID, ShouldEqual, "desi-custom:one-1")
		})

		Convey("Episodes of another script should be refused", func() {
			_, err := s.Episodes(context.Background(), "other-custom:one")
			So(err, ShouldNotBeNil)
		})

		Convey("Stream should pass the raw episode id to the script", func() {
			st, err := s.Stream(context.Background(), "desi-custom:one-1")
			So(err, ShouldBeNil)
			So(st.URL, ShouldEqual, "https://cdn/one-1.m3u8")
			So(st.IsM3U8, ShouldBeTrue)
			So(st.EpisodeID, ShouldEqual, "desi-custom:one-1")
			So(st.Headers["Referer"], ShouldEqual, srv.URL)
		})

		Convey("A cancelled context should stop a running script", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			_, err := s.call(ctx, "Slow", 0)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestLoadSource(t *testing.T) {
	Convey("A script without the regional functions should not load", t, func() {
		filesystem.SetMemMapFs()
		So(filesystem.API().WriteFile("/sources/empty.lua", []byte(`x = 1`), 0o644), ShouldBeNil)

		_, err := LoadSource("/sources/empty.lua")
		So(err, ShouldNotBeNil)
	})
}
