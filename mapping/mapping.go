// Package mapping keeps cross-reference records (authoritative episode
// counts, per-episode titles, overviews and thumbnails) keyed by AniList id.
package mapping

import (
	"fmt"
	"strconv"

	"github.com/samber/lo"
)

// Mapping is replaced wholesale on refresh and never modified afterwards.
type Mapping struct {
	AnilistID int `json:"anilist_id"`
	MalID     int `json:"mal_id,omitempty"`
	AnidbID   int `json:"anidb_id,omitempty"`

	AllAnimeID  string `json:"allanime_id,omitempty"`
	GogoanimeID string `json:"gogoanime_id,omitempty"`
	ZoroID      string `json:"zoro_id,omitempty"`

	// EpisodeCount is zero when unknown.
	EpisodeCount int `json:"episode_count,omitempty"`

	// SeriesTitles holds series-level titles keyed by language ("en", "ja", "x-jat").
	SeriesTitles map[string]string `json:"series_titles,omitempty"`

	// Per-episode metadata keyed by episode number.
	Titles    map[string]string `json:"titles,omitempty"`
	Overviews map[string]string `json:"overviews,omitempty"`
	Images    map[string]string `json:"images,omitempty"`
}

// keys lists the lookup keys for episode n in probing order: the plain
// number, the two-digit zero-padded number and the raw numeric form.
// The raw form renders like the plain one for integers and is dropped as
// a duplicate.
func keys(n int) []string {
	return lo.Uniq([]string{
		strconv.Itoa(n),
		fmt.Sprintf("%02d", n),
		strconv.FormatFloat(float64(n), 'f', -1, 64),
	})
}

func probe(m map[string]string, n int) string {
	for _, k := range keys(n) {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}

// Title returns the title of episode n, or "".
func (m *Mapping) Title(n int) string {
	if m == nil {
		return ""
	}
	return probe(m.Titles, n)
}

// Overview returns the synopsis of episode n, or "".
func (m *Mapping) Overview(n int) string {
	if m == nil {
		return ""
	}
	return probe(m.Overviews, n)
}

// Image returns the thumbnail of episode n, or "".
func (m *Mapping) Image(n int) string {
	if m == nil {
		return ""
	}
	return probe(m.Images, n)
}

// HasSeriesTitles reports whether series-level titles are known.
func (m *Mapping) HasSeriesTitles() bool {
	return m != nil && len(m.SeriesTitles) > 0
}
