// Package history persists playback positions and per-title preferences.
package history

import (
	"fmt"
	"time"

	"github.com/nezuko-cli/nezuko/source"
)

// finishedRatio is the share of an episode after which it counts as watched.
const finishedRatio = 0.9

// Position is the last playback position of one episode.
type Position struct {
	MediaID   int       `json:"media_id"`
	Episode   int       `json:"episode"`
	Seconds   float64   `json:"seconds"`
	Duration  float64   `json:"duration"`
	Title     string    `json:"title,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Finished reports whether the episode was watched to the end.
func (p Position) Finished() bool {
	return p.Duration > 0 && p.Seconds/p.Duration >= finishedRatio
}

// Resume is where playback should restart. Finished episodes restart from
// the beginning.
func (p Position) Resume() float64 {
	if p.Finished() || p.Seconds < 0 {
		return 0
	}
	return p.Seconds
}

func (p Position) String() string {
	if p.Duration > 0 {
		return fmt.Sprintf("%s : episode %d (%d%%)", p.Title, p.Episode, int(p.Seconds/p.Duration*100))
	}
	return fmt.Sprintf("%s : episode %d", p.Title, p.Episode)
}

// Preference is what the user last chose for a title.
type Preference struct {
	MediaID int          `json:"media_id"`
	Mode    source.Audio `json:"audio_mode"`
	Variant string       `json:"variant,omitempty"`
}
