package aniskip

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nezuko-cli/nezuko/network"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGetSkipTimes(t *testing.T) {
	Convey("Given an AniSkip server", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/1535/1", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"found":true,"results":[
				{"interval":{"start_time":60.5,"end_time":150.5},"skip_type":"op"},
				{"interval":{"start_time":1300,"end_time":1390},"skip_type":"ed"}]}`)
		})
		mux.HandleFunc("/1535/2", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"found":true,"results":[
				{"interval":{"start_time":0,"end_time":0},"skip_type":"op"}]}`)
		})
		mux.HandleFunc("/1535/3", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		prev := BaseURL
		BaseURL = srv.URL
		defer func() { BaseURL = prev }()

		ctx := context.Background()

		Convey("Should return both intervals", func() {
			times, err := GetSkipTimes(ctx, network.Client, 1535, 1)
			So(err, ShouldBeNil)
			So(times, ShouldNotBeNil)
			So(times.Opening.Start, ShouldEqual, 60.5)
			So(times.Ending.End, ShouldEqual, 1390)
		})

		Convey("Should drop empty intervals", func() {
			times, err := GetSkipTimes(ctx, network.Client, 1535, 2)
			So(err, ShouldBeNil)
			So(times, ShouldBeNil)
		})

		Convey("Should degrade on unknown episodes and server errors", func() {
			times, err := GetSkipTimes(ctx, network.Client, 1535, 9)
			So(err, ShouldBeNil)
			So(times, ShouldBeNil)

			times, err = GetSkipTimes(ctx, network.Client, 1535, 3)
			So(err, ShouldBeNil)
			So(times, ShouldBeNil)
		})

		Convey("Should skip lookups without a MAL id", func() {
			times, err := GetSkipTimes(ctx, network.Client, 0, 1)
			So(err, ShouldBeNil)
			So(times, ShouldBeNil)
		})
	})
}
