package player

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/nezuko-cli/nezuko/source"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMpvArgs(t *testing.T) {
	Convey("Given media with headers, subtitles and a start", t, func() {
		m := Media{
			URL:   "https://cdn/ep.m3u8",
			Title: "Frieren\nEpisode 3",
			Headers: map[string]string{
				"Referer":    "https://hianime.bz/",
				"User-Agent": "a,b",
			},
			Subtitles: []source.Subtitle{{Label: "English", File: "https://cdn/en.vtt"}, {File: "--evil"}},
			Start:     312.7,
		}

		args := mpvArgs("/tmp/s.sock", m.URL, m)

		Convey("The socket and title should be passed", func() {
			So(args, ShouldContain, "--input-ipc-server=/tmp/s.sock")
			So(args, ShouldContain, "--force-media-title=Frieren Episode 3")
		})

		Convey("Headers should be sorted and escaped", func() {
			So(args, ShouldContain, "--http-header-fields=Referer: https://hianime.bz/,User-Agent: a%2Cb")
		})

		Convey("Start and subtitles should be set", func() {
			So(args, ShouldContain, "--start=313")
			So(args, ShouldContain, "--sub-file=https://cdn/en.vtt")
			So(args, ShouldNotContain, "--sub-file=--evil")
		})

		Convey("The target should come last", func() {
			So(args[len(args)-1], ShouldEqual, "https://cdn/ep.m3u8")
		})
	})
}

func TestSanitizeMediaTarget(t *testing.T) {
	Convey("sanitizeMediaTarget", t, func() {
		_, err := sanitizeMediaTarget("--script=x.lua")
		So(err, ShouldNotBeNil)

		_, err = sanitizeMediaTarget("file:///etc/passwd")
		So(err, ShouldNotBeNil)

		_, err = sanitizeMediaTarget("https://a/b\nc")
		So(err, ShouldNotBeNil)

		u, err := sanitizeMediaTarget(" https://a/b.mp4 ")
		So(err, ShouldBeNil)
		So(u, ShouldEqual, "https://a/b.mp4")
	})
}

func TestParseEvent(t *testing.T) {
	Convey("parseEvent", t, func() {
		sig, ok := parseEvent([]byte(`{"event":"property-change","id":1,"name":"time-pos","data":12.5}`))
		So(ok, ShouldBeTrue)
		So(sig.Kind, ShouldEqual, TimeUpdate)
		So(sig.Seconds, ShouldEqual, 12.5)

		sig, ok = parseEvent([]byte(`{"event":"property-change","id":2,"name":"duration","data":1420}`))
		So(ok, ShouldBeTrue)
		So(sig.Kind, ShouldEqual, Duration)

		_, ok = parseEvent([]byte(`{"event":"property-change","name":"time-pos","data":null}`))
		So(ok, ShouldBeFalse)

		sig, ok = parseEvent([]byte(`{"event":"end-file","reason":"eof"}`))
		So(ok, ShouldBeTrue)
		So(sig.Kind, ShouldEqual, Ended)

		sig, ok = parseEvent([]byte(`{"event":"end-file","reason":"error","file_error":"loading failed"}`))
		So(ok, ShouldBeTrue)
		So(sig.Kind, ShouldEqual, Error)
		So(sig.Err.Error(), ShouldEqual, "loading failed")

		_, ok = parseEvent([]byte(`{"event":"end-file","reason":"stop"}`))
		So(ok, ShouldBeFalse)

		_, ok = parseEvent([]byte(`{"data":null,"error":"success","request_id":0}`))
		So(ok, ShouldBeFalse)

		_, ok = parseEvent([]byte(`not json`))
		So(ok, ShouldBeFalse)
	})
}

func TestListen(t *testing.T) {
	Convey("Given an mpv connection", t, func() {
		client, server := net.Pipe()
		signals := make(chan Signal, 16)
		go listen(client, signals)

		reader := bufio.NewReader(server)

		Convey("It should observe properties and forward events", func() {
			for range observed {
				line, err := reader.ReadString('\n')
				So(err, ShouldBeNil)
				So(line, ShouldContainSubstring, "observe_property")
			}

			_, err := server.Write([]byte(`{"error":"success","request_id":0}` + "\n" +
				`{"event":"property-change","name":"time-pos","data":4.0}` + "\n" +
				`{"event":"end-file","reason":"eof"}` + "\n"))
			So(err, ShouldBeNil)
			So(server.Close(), ShouldBeNil)

			var kinds []Kind
			for sig := range signals {
				kinds = append(kinds, sig.Kind)
			}
			So(kinds, ShouldResemble, []Kind{TimeUpdate, Ended, Exited})
		})
	})
}

func TestListenTerminal(t *testing.T) {
	Convey("Given an idle mpv that keeps its connection open", t, func() {
		client, server := net.Pipe()
		defer server.Close()

		signals := make(chan Signal, 16)
		go listen(client, signals)

		reader := bufio.NewReader(server)
		for range observed {
			_, err := reader.ReadString('\n')
			So(err, ShouldBeNil)
		}

		Convey("A failed file should end the signal stream", func() {
			_, err := server.Write([]byte(`{"event":"end-file","reason":"error","file_error":"loading failed"}` + "\n"))
			So(err, ShouldBeNil)

			var got []Signal
			timeout := time.After(2 * time.Second)
		drain:
			for {
				select {
				case sig, ok := <-signals:
					if !ok {
						break drain
					}
					got = append(got, sig)
				case <-timeout:
					break drain
				}
			}

			So(got, ShouldHaveLength, 2)
			So(got[0].Kind, ShouldEqual, Error)
			So(got[0].Err.Error(), ShouldEqual, "loading failed")
			So(got[1].Kind, ShouldEqual, Exited)
		})

		Convey("A file played to the end should end the signal stream", func() {
			_, err := server.Write([]byte(`{"event":"end-file","reason":"eof"}` + "\n"))
			So(err, ShouldBeNil)

			var kinds []Kind
			for sig := range signals {
				kinds = append(kinds, sig.Kind)
			}
			So(kinds, ShouldResemble, []Kind{Ended, Exited})
		})
	})
}

func TestNew(t *testing.T) {
	Convey("New", t, func() {
		p, err := New("mpv")
		So(err, ShouldBeNil)
		So(p, ShouldHaveSameTypeAs, &MPV{})

		p, err = New("IINA")
		So(err, ShouldBeNil)
		So(p, ShouldHaveSameTypeAs, &IINA{})

		_, err = New("vlc")
		So(err, ShouldNotBeNil)

		So(iinaArgs("https://a/b", Media{Title: "x", Start: 10}), ShouldContain, "--mpv-start=10")
	})
}
