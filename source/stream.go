package source

// Subtitle is an external text track.
type Subtitle struct {
	Label   string `json:"label"`
	File    string `json:"file"`
	Kind    string `json:"kind,omitempty"`
	Default bool   `json:"default,omitempty"`
}

// AudioTrack is an audio rendition carried by the stream.
type AudioTrack struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Default  bool   `json:"default,omitempty"`
}

// Interval is a skippable range in seconds.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Valid reports whether the interval covers a positive span.
func (i *Interval) Valid() bool {
	return i != nil && i.End > i.Start
}

// Stream is a playable asset for one episode.
type Stream struct {
	URL         string            `json:"url"`
	Quality     string            `json:"quality,omitempty"`
	IsM3U8      bool              `json:"is_m3u8"`
	Subtitles   []Subtitle        `json:"subtitles,omitempty"`
	AudioTracks []AudioTrack      `json:"audio_tracks,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Provider    ProviderID        `json:"provider"`
	EpisodeID   string            `json:"episode_id"`
	Intro       *Interval         `json:"intro,omitempty"`
	Outro       *Interval         `json:"outro,omitempty"`
}
