package mapping

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/nezuko-cli/nezuko/gateway"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

const anizipJSON = `{
  "titles": {"en": "Frieren: Beyond Journey's End", "ja": "葬送のフリーレン", "x-jat": "Sousou no Frieren"},
  "episodes": {
    "1": {"title": {"en": "The Journey's End", "x-jat": "Tabi no Owari"}, "overview": "The party returns.", "image": "https://img/1.jpg"},
    "2": {"title": {"en": null, "x-jat": "Soutou no Mahou"}},
    "S1": {"title": {}}
  },
  "mappings": {"anilist_id": 154587, "mal_id": 52991, "anidb_id": 17617, "sites": {"zoro": "frieren-18542", "gogoanime": "sousou-no-frieren"}}
}`

func TestParseAniZip(t *testing.T) {
	Convey("Given an ani.zip response with episodes", t, func() {
		m, err := parseAniZip(154587, []byte(anizipJSON))
		So(err, ShouldBeNil)

		Convey("Ids should be copied", func() {
			So(m.AnilistID, ShouldEqual, 154587)
			So(m.MalID, ShouldEqual, 52991)
			So(m.AnidbID, ShouldEqual, 17617)
			So(m.ZoroID, ShouldEqual, "frieren-18542")
			So(m.GogoanimeID, ShouldEqual, "sousou-no-frieren")
			So(m.AllAnimeID, ShouldBeEmpty)
		})

		Convey("The episode count should be the number of entries", func() {
			So(m.EpisodeCount, ShouldEqual, 3)
		})

		Convey("Episode titles should prefer English", func() {
			So(m.Title(1), ShouldEqual, "The Journey's End")
			So(m.Title(2), ShouldEqual, "Soutou no Mahou")
			So(m.Overview(1), ShouldEqual, "The party returns.")
			So(m.Image(1), ShouldEqual, "https://img/1.jpg")
			So(m.Image(2), ShouldBeEmpty)
		})

		Convey("Series titles should be kept", func() {
			So(m.HasSeriesTitles(), ShouldBeTrue)
			So(m.SeriesTitles["en"], ShouldEqual, "Frieren: Beyond Journey's End")
			So(m.SeriesTitles["ja"], ShouldEqual, "葬送のフリーレン")
		})
	})

	Convey("Given a response without episodes", t, func() {
		m, err := parseAniZip(1, []byte(`{"titles": {"en": "Cowboy Bebop"}}`))
		So(err, ShouldBeNil)
		So(m.EpisodeCount, ShouldEqual, 0)
		So(m.Titles, ShouldBeNil)
		So(m.SeriesTitles["en"], ShouldEqual, "Cowboy Bebop")
	})
}

func TestKeys(t *testing.T) {
	Convey("Episode lookups", t, func() {
		Convey("Should probe plain then padded keys", func() {
			So(keys(1), ShouldResemble, []string{"1", "01"})
			So(keys(12), ShouldResemble, []string{"12"})
		})

		Convey("Should fall back to the padded key", func() {
			m := &Mapping{Titles: map[string]string{"01": "padded"}}
			So(m.Title(1), ShouldEqual, "padded")
		})

		Convey("Should prefer the plain key", func() {
			m := &Mapping{Titles: map[string]string{"01": "padded", "1": "plain"}}
			So(m.Title(1), ShouldEqual, "plain")
		})

		Convey("A nil mapping should have nothing", func() {
			var m *Mapping
			So(m.Title(1), ShouldBeEmpty)
			So(m.HasSeriesTitles(), ShouldBeFalse)
		})
	})
}

type fakeFetcher struct {
	calls int32
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, id int) (*Mapping, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return &Mapping{AnilistID: id, EpisodeCount: 24}, nil
}

func TestCache(t *testing.T) {
	Convey("Given a cache over a working fetcher", t, func() {
		clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		fetcher := &fakeFetcher{}
		cache := New(Options{
			Path:    "/cache/mappings-ok.json",
			Fetcher: fetcher,
			Now:     func() time.Time { return clock },
		})
		So(cache.Clear(), ShouldBeNil)

		Convey("A miss should fetch and store", func() {
			m := cache.Get(context.Background(), 7)
			So(m.IsPresent(), ShouldBeTrue)
			So(m.MustGet().EpisodeCount, ShouldEqual, 24)

			again := cache.Get(context.Background(), 7)
			So(again.MustGet().EpisodeCount, ShouldEqual, 24)
			So(atomic.LoadInt32(&fetcher.calls), ShouldEqual, 1)
		})

		Convey("An entry should expire after a day", func() {
			cache.Get(context.Background(), 7)
			clock = clock.Add(23 * time.Hour)
			cache.Get(context.Background(), 7)
			So(atomic.LoadInt32(&fetcher.calls), ShouldEqual, 1)

			clock = clock.Add(time.Hour)
			cache.Get(context.Background(), 7)
			So(atomic.LoadInt32(&fetcher.calls), ShouldEqual, 2)
		})

		Convey("Different ids should be stored apart", func() {
			cache.Get(context.Background(), 7)
			cache.Get(context.Background(), 8)
			So(atomic.LoadInt32(&fetcher.calls), ShouldEqual, 2)
			So(cache.Get(context.Background(), 8).MustGet().AnilistID, ShouldEqual, 8)
		})
	})

	Convey("Given a cache over a failing fetcher", t, func() {
		clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		fetcher := &fakeFetcher{err: errors.New("boom")}
		cache := New(Options{
			Path:    "/cache/mappings-fail.json",
			Fetcher: fetcher,
			Now:     func() time.Time { return clock },
		})
		So(cache.Clear(), ShouldBeNil)

		Convey("A failure should degrade to none", func() {
			So(cache.Get(context.Background(), 7).IsAbsent(), ShouldBeTrue)
		})

		Convey("The failure should be remembered for the negative TTL", func() {
			cache.Get(context.Background(), 7)
			clock = clock.Add(29 * time.Minute)
			So(cache.Get(context.Background(), 7).IsAbsent(), ShouldBeTrue)
			So(atomic.LoadInt32(&fetcher.calls), ShouldEqual, 1)

			clock = clock.Add(time.Minute)
			cache.Get(context.Background(), 7)
			So(atomic.LoadInt32(&fetcher.calls), ShouldEqual, 2)
		})
	})
}

func TestAniZip(t *testing.T) {
	Convey("Given an ani.zip server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("anilist_id") != "154587" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = io.WriteString(w, anizipJSON)
		}))
		defer srv.Close()

		fetcher := NewAniZip(gateway.New(gateway.Options{})).WithEndpoint(srv.URL)

		Convey("A known id should parse", func() {
			m, err := fetcher.Fetch(context.Background(), 154587)
			So(err, ShouldBeNil)
			So(m.MalID, ShouldEqual, 52991)
		})

		Convey("An unknown id should fail", func() {
			_, err := fetcher.Fetch(context.Background(), 1)
			So(err, ShouldNotBeNil)
		})

		Convey("Through a cache, an unknown id should be none", func() {
			cache := New(Options{Path: "/cache/mappings-http.json", Fetcher: fetcher})
			So(cache.Get(context.Background(), 1).IsAbsent(), ShouldBeTrue)
			So(cache.Get(context.Background(), 154587).IsPresent(), ShouldBeTrue)
		})
	})
}
