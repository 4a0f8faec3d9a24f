// Package catalog reads media records from the AniList GraphQL API.
package catalog

import (
	"regexp"
	"strings"

	"github.com/samber/mo"
)

// Date is a calendar date whose parts may be zero when unknown.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// StreamingEpisode is a per-episode hint published alongside a media record.
type StreamingEpisode struct {
	// Title usually reads "Episode 3 - Name".
	Title     string `json:"title" jsonschema:"description=Episode title as published by the streaming site."`
	Thumbnail string `json:"thumbnail" jsonschema:"description=URL of the episode thumbnail."`
	URL       string `json:"url" jsonschema:"description=URL of the episode on the streaming site."`
	Site      string `json:"site" jsonschema:"description=Name of the streaming site."`
}

// Media is a canonical media record. It is treated as immutable once fetched.
type Media struct {
	// ID is the AniList identifier.
	ID    int `json:"id" jsonschema:"description=ID of the anime on Anilist."`
	IDMal int `json:"idMal" jsonschema:"description=ID of the anime on MyAnimeList."`

	Title struct {
		Romaji  string `json:"romaji" jsonschema:"description=Romanized title of the anime."`
		English string `json:"english" jsonschema:"description=English title of the anime."`
		Native  string `json:"native" jsonschema:"description=Native title of the anime. Usually in kanji."`
	} `json:"title"`

	CoverImage struct {
		ExtraLarge string `json:"extraLarge"`
		Large      string `json:"large"`
		Medium     string `json:"medium"`
	} `json:"coverImage" jsonschema:"description=Cover image of the anime."`
	BannerImage string `json:"bannerImage" jsonschema:"description=Banner image of the anime."`

	// Description is HTML.
	Description  string   `json:"description" jsonschema:"description=Description of the anime in html format."`
	AverageScore int      `json:"averageScore"`
	MeanScore    int      `json:"meanScore"`
	Popularity   int      `json:"popularity"`
	Status       string   `json:"status" jsonschema:"enum=FINISHED,enum=RELEASING,enum=NOT_YET_RELEASED,enum=CANCELLED,enum=HIATUS"`
	Format       string   `json:"format"`
	Genres       []string `json:"genres"`

	// Episodes is null for titles still airing with an unknown length.
	Episodes   *int   `json:"episodes" jsonschema:"description=Total number of episodes the anime has when complete."`
	Duration   *int   `json:"duration"`
	Season     string `json:"season"`
	SeasonYear int    `json:"seasonYear"`
	StartDate  Date   `json:"startDate"`
	EndDate    Date   `json:"endDate"`
	Source     string `json:"source"`

	Studios struct {
		Nodes []struct {
			Name              string `json:"name"`
			IsAnimationStudio bool   `json:"isAnimationStudio"`
		} `json:"nodes"`
	} `json:"studios"`

	StreamingEpisodes []StreamingEpisode `json:"streamingEpisodes"`
}

// Name prefers the English title and falls back to romaji.
func (m *Media) Name() string {
	if m.Title.English == "" {
		return m.Title.Romaji
	}

	return m.Title.English
}

// EpisodeCount is the native episode count if the catalog knows it.
func (m *Media) EpisodeCount() mo.Option[int] {
	if m.Episodes == nil || *m.Episodes <= 0 {
		return mo.None[int]()
	}
	return mo.Some(*m.Episodes)
}

// Cover returns the largest available cover image.
func (m *Media) Cover() string {
	for _, url := range []string{m.CoverImage.ExtraLarge, m.CoverImage.Large, m.CoverImage.Medium} {
		if url != "" {
			return url
		}
	}
	return ""
}

var (
	lineBreak = regexp.MustCompile(`<br\s*/?>`)
	htmlTag   = regexp.MustCompile(`<[^>]*>`)
)

// PlainDescription is Description with markup removed.
func (m *Media) PlainDescription() string {
	s := lineBreak.ReplaceAllString(m.Description, " ")
	return strings.TrimSpace(htmlTag.ReplaceAllString(s, ""))
}
