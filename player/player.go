// Package player drives the external video player. mpv is controlled over
// its JSON IPC socket and reports progress as a stream of signals.
package player

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/nezuko-cli/nezuko/source"
)

// Media is what to play.
type Media struct {
	URL       string
	Title     string
	Headers   map[string]string
	Subtitles []source.Subtitle
	// Start is the position to begin at, in seconds.
	Start float64
}

// FromStream builds the media for one episode stream.
func FromStream(s *source.Stream, title string, start float64) Media {
	return Media{
		URL:       s.URL,
		Title:     title,
		Headers:   s.Headers,
		Subtitles: s.Subtitles,
		Start:     start,
	}
}

// Kind classifies a Signal.
type Kind int

const (
	// TimeUpdate carries the playback position.
	TimeUpdate Kind = iota
	// Duration carries the length of the file once known.
	Duration
	// Ended means the file played to the end.
	Ended
	// Error means the file could not be played.
	Error
	// Exited means the player process went away.
	Exited
)

// terminal reports whether no further signals follow for the file.
func (k Kind) terminal() bool {
	return k == Ended || k == Error
}

func (k Kind) String() string {
	switch k {
	case TimeUpdate:
		return "time-update"
	case Duration:
		return "duration"
	case Ended:
		return "ended"
	case Error:
		return "error"
	case Exited:
		return "exited"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Signal is one playback event.
type Signal struct {
	Kind    Kind
	Seconds float64
	Err     error
}

// Chapter is a named mark on the timeline.
type Chapter struct {
	Title string  `json:"title"`
	Time  float64 `json:"time"`
}

// Player is an external playback engine.
type Player interface {
	// Play starts m, replacing whatever was playing. The returned channel
	// receives the signals of this playback and is closed after Exited.
	Play(ctx context.Context, m Media) (<-chan Signal, error)
	Seek(seconds float64) error
	SetChapters(chapters []Chapter) error
	Close() error
}

// New returns the player named by the player.default setting.
func New(name string) (Player, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mpv":
		return NewMPV(), nil
	case "iina":
		return NewIINA(), nil
	default:
		return nil, fmt.Errorf("unknown player %q: expected mpv or iina", name)
	}
}

// headerFields renders headers for --http-header-fields. Commas separate
// fields, so commas inside values are escaped.
func headerFields(headers map[string]string) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, fmt.Sprintf("%s: %s", k, strings.ReplaceAll(headers[k], ",", "%2C")))
	}
	return strings.Join(fields, ",")
}
