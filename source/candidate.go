package source

import "github.com/samber/mo"

// Candidate is one raw search hit. Candidates live for one resolution and
// are never modified after the backend returns them.
type Candidate struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title"`
	URL                string         `json:"url,omitempty"`
	Image              string         `json:"image,omitempty"`
	ReleaseDate        string         `json:"release_date,omitempty"`
	Language           string         `json:"language,omitempty"`
	IsMultiAudio       bool           `json:"is_multi_audio"`
	AvailableLanguages []string       `json:"available_languages,omitempty"`
	Provider           ProviderID     `json:"provider"`
	EpisodeCount       mo.Option[int] `json:"episode_count"`
}

// Count is the episode count or zero when unknown.
func (c *Candidate) Count() int {
	return c.EpisodeCount.OrElse(0)
}

func (c *Candidate) String() string {
	return c.Title
}
